package genre

import (
	"iter"
	"strings"

	"github.com/listenupapp/bookfinder/internal/domain"
)

// Toggle sets every group and every genre whose ID starts with clickedID to
// !previousChecked. The whole tree is scanned on every call, so a group ID
// also flips each genre sharing that prefix, and a short ID such as "0054"
// flips every group under it. Callers pass the pre-toggle state of the
// clicked node. Returns the number of nodes matched; zero is a no-op.
func Toggle(state domain.SelectionState, clickedID string, previousChecked bool) int {
	next := !previousChecked
	matched := 0

	for gi := range state {
		group := &state[gi]
		if strings.HasPrefix(group.ID, clickedID) {
			group.Checked = next
			matched++
		}
		for i := range group.Genres {
			if strings.HasPrefix(group.Genres[i].ID, clickedID) {
				group.Genres[i].Checked = next
				matched++
			}
		}
	}

	return matched
}

// CheckedLeafIDs yields the IDs of checked genres in tree order.
// Group flags are ignored. The sequence can be ranged over repeatedly.
func CheckedLeafIDs(state domain.SelectionState) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, group := range state {
			for _, g := range group.Genres {
				if g.Checked && !yield(g.ID) {
					return
				}
			}
		}
	}
}

// CollectCheckedLeafIDs returns CheckedLeafIDs as a slice, never nil.
func CollectCheckedLeafIDs(state domain.SelectionState) []string {
	ids := []string{}
	for id := range CheckedLeafIDs(state) {
		ids = append(ids, id)
	}
	return ids
}
