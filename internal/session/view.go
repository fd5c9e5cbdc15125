package session

import (
	"time"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/genre"
)

// GroupView is a genre group with its heading shaped for display.
type GroupView struct {
	domain.GenreGroup
	Heading string `json:"heading"`
}

// View is a point-in-time copy of a session for rendering.
type View struct {
	ID              string                 `json:"id"`
	Form            domain.SearchFormState `json:"form"`
	Groups          []GroupView            `json:"groups"`
	CheckedGenreIDs []string               `json:"checked_genre_ids"`
	Books           []domain.Book          `json:"books"`
	PageSet         *domain.PageSet        `json:"page_set,omitempty"`
	Query           *domain.SearchQuery    `json:"query,omitempty"`
	HasError        bool                   `json:"has_error"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	InFlight        int                    `json:"in_flight"`
	Submitted       uint64                 `json:"submitted"`
	CreatedAt       time.Time              `json:"created_at"`
	LastActive      time.Time              `json:"last_active"`
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state.Clone()
	groups := make([]GroupView, len(state))
	for i, g := range state {
		groups[i] = GroupView{GenreGroup: g, Heading: genre.ShapeName(g.DisplayName)}
	}

	v := View{
		ID:              s.id,
		Form:            s.form,
		Groups:          groups,
		CheckedGenreIDs: genre.CollectCheckedLeafIDs(state),
		Books:           append([]domain.Book{}, s.books...),
		HasError:        s.hasError,
		ErrorMessage:    s.errMessage,
		InFlight:        s.inFlight,
		Submitted:       s.submitted,
		CreatedAt:       s.createdAt,
		LastActive:      s.lastActive,
	}
	if s.pageSet != nil {
		ps := *s.pageSet
		v.PageSet = &ps
	}
	if s.shown != nil {
		q := s.shown.WithPage(s.shown.Page)
		v.Query = &q
	}
	return v
}
