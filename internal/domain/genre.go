package domain

// Genre is a leaf of the taxonomy and the unit a search can be filtered by.
// Its ID starts with the owning group's ID.
type Genre struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Checked     bool   `json:"checked"`
}

// GenreGroup is a top-level taxonomy node owning an ordered list of genres.
// DisplayName may carry a full-width parenthetical gloss, e.g. "Travel（旅行）".
type GenreGroup struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Checked     bool    `json:"checked"`
	Genres      []Genre `json:"genres"`
}

// SelectionState is the whole genre tree in taxonomy order.
// A group's Checked flag is only changed by an explicit toggle; it is never
// derived from its genres.
type SelectionState []GenreGroup

// Clone returns a deep copy that shares no slices with s.
func (s SelectionState) Clone() SelectionState {
	if s == nil {
		return nil
	}
	out := make(SelectionState, len(s))
	for i, g := range s {
		out[i] = g
		if g.Genres != nil {
			out[i].Genres = append([]Genre(nil), g.Genres...)
		}
	}
	return out
}

// LeafCount returns the number of genres across all groups.
func (s SelectionState) LeafCount() int {
	n := 0
	for _, g := range s {
		n += len(g.Genres)
	}
	return n
}
