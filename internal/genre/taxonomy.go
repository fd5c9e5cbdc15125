// Package genre builds the two-level genre selection tree from a taxonomy
// payload and implements toggling and checked-leaf extraction over it.
package genre

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/errors"
)

// Wire field names of the taxonomy payload.
const (
	fieldGenreID   = "booksGenreId"
	fieldGenreName = "booksGenreName"
	fieldGenres    = "genres"
)

// BuildTree decodes a taxonomy payload into a SelectionState with every
// checked flag false. Groups and genres keep the payload's key order.
//
// The payload maps group keys to {booksGenreId, booksGenreName, genres}, and
// genres maps genre keys to {booksGenreId, booksGenreName}. A group without
// booksGenreId, a genre missing either field, or a non-object genres value
// fails the whole build with a MalformedTaxonomy error. A missing or null
// genres value yields a group with no genres.
func BuildTree(payload []byte) (domain.SelectionState, error) {
	state := domain.SelectionState{}

	err := walkObject(payload, func(groupKey string, raw json.RawMessage) error {
		group, err := decodeGroup(groupKey, raw)
		if err != nil {
			return err
		}
		state = append(state, group)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

func decodeGroup(key string, raw json.RawMessage) (domain.GenreGroup, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.GenreGroup{}, errors.MalformedTaxonomyf("group %q is not an object", key)
	}

	id, ok := stringField(fields, fieldGenreID)
	if !ok {
		return domain.GenreGroup{}, errors.MalformedTaxonomyf("group %q has no %s", key, fieldGenreID)
	}
	name, _ := stringField(fields, fieldGenreName)

	group := domain.GenreGroup{ID: id, DisplayName: name, Genres: []domain.Genre{}}

	genresRaw, present := fields[fieldGenres]
	if !present || isNull(genresRaw) {
		return group, nil
	}

	if !isObject(genresRaw) {
		return domain.GenreGroup{}, errors.MalformedTaxonomyf("group %q: %s is not an object", key, fieldGenres)
	}

	err := walkObject(genresRaw, func(genreKey string, raw json.RawMessage) error {
		g, err := decodeGenre(key, genreKey, raw)
		if err != nil {
			return err
		}
		group.Genres = append(group.Genres, g)
		return nil
	})
	if err != nil {
		return domain.GenreGroup{}, err
	}

	return group, nil
}

func decodeGenre(groupKey, key string, raw json.RawMessage) (domain.Genre, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.Genre{}, errors.MalformedTaxonomyf("group %q: genre %q is not an object", groupKey, key)
	}

	id, ok := stringField(fields, fieldGenreID)
	if !ok {
		return domain.Genre{}, errors.MalformedTaxonomyf("group %q: genre %q has no %s", groupKey, key, fieldGenreID)
	}
	name, ok := stringField(fields, fieldGenreName)
	if !ok {
		return domain.Genre{}, errors.MalformedTaxonomyf("group %q: genre %q has no %s", groupKey, key, fieldGenreName)
	}

	return domain.Genre{ID: id, DisplayName: name}, nil
}

// stringField reports a present, non-empty JSON string field.
func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// walkObject calls fn for each member of the JSON object in raw, in document order.
func walkObject(raw []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return errors.MalformedTaxonomyf("taxonomy is not valid JSON: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.MalformedTaxonomyf("expected a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.MalformedTaxonomyf("read key: %v", err)
		}
		key, ok := tok.(string)
		if !ok {
			return errors.MalformedTaxonomyf("unexpected token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return errors.MalformedTaxonomyf("read value of %q: %v", key, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return errors.MalformedTaxonomyf("unterminated object: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.MalformedTaxonomyf("trailing data after object")
	}
	return nil
}
