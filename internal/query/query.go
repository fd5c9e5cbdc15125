// Package query turns search form input and the genre selection into a SearchQuery.
package query

import (
	"strconv"
	"strings"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/errors"
	"github.com/listenupapp/bookfinder/internal/genre"
)

// EmptyTitle is sent in place of an empty title. It is the two characters "".
const EmptyTitle = `""`

// Page bounds used when the form leaves a page field empty.
const (
	DefaultPageFrom = 0
	DefaultPageTo   = 9999
)

// Field names reported by InvalidPageNumber.
const (
	FieldPageFrom = "pageFrom"
	FieldPageTo   = "pageTo"
)

// Build assembles a SearchQuery from the form and the selection tree.
// Page bounds are not cross-checked; pageFrom > pageTo is passed through.
// A non-numeric page field fails with InvalidPageNumber and no query.
func Build(form domain.SearchFormState, state domain.SelectionState) (domain.SearchQuery, error) {
	pageFrom, err := parsePage(FieldPageFrom, form.PageFrom, DefaultPageFrom)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	pageTo, err := parsePage(FieldPageTo, form.PageTo, DefaultPageTo)
	if err != nil {
		return domain.SearchQuery{}, err
	}

	title := form.Title
	if title == "" {
		title = EmptyTitle
	}

	genreIDs := []string{}
	if form.GenreFilterEnabled {
		genreIDs = genre.CollectCheckedLeafIDs(state)
	}

	return domain.SearchQuery{
		TitleFilter:   title,
		GenreIDFilter: genreIDs,
		PageFrom:      pageFrom,
		PageTo:        pageTo,
	}, nil
}

// GenreIDLiteral renders ids as ["a","b"], or [] when there are none.
func GenreIDLiteral(ids []string) string {
	return domain.SearchQuery{GenreIDFilter: ids}.GenreIDLiteral()
}

func parsePage(field, raw string, fallback int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.InvalidPageNumber(field, raw)
	}
	return n, nil
}
