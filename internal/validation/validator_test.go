package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookfinder/internal/errors"
	"github.com/listenupapp/bookfinder/internal/validation"
)

type formRequest struct {
	Title  string `json:"title" validate:"max=20"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json yaml"`
	Page   int    `json:"page" validate:"gte=0"`
}

type toggleRequest struct {
	ClickedID string `json:"clicked_id" validate:"genreid"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(formRequest{Title: "Dune", Format: "yaml", Page: 2}))
	assert.NoError(t, v.Validate(toggleRequest{ClickedID: "005409001"}))
}

func TestValidator_TitleLengthCountsCharacters(t *testing.T) {
	v := validation.New()

	// Twenty multi-byte characters are fine; twenty-one are not.
	assert.NoError(t, v.Validate(formRequest{Title: "旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅"}))
	assert.Error(t, v.Validate(formRequest{Title: "旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅旅"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{
			name:      "title too long",
			req:       formRequest{Title: "abcdefghijklmnopqrstuvwxyz"},
			wantField: "title",
			wantMsg:   "must not exceed 20 characters",
		},
		{
			name:      "unknown format",
			req:       formRequest{Format: "xml"},
			wantField: "format",
			wantMsg:   "must be one of: json yaml",
		},
		{
			name:      "negative page",
			req:       formRequest{Page: -1},
			wantField: "page",
			wantMsg:   "must be greater than or equal to 0",
		},
		{
			name:      "empty genre id",
			req:       toggleRequest{},
			wantField: "clicked_id",
			wantMsg:   "must be a genre id",
		},
		{
			name:      "genre id with comma",
			req:       toggleRequest{ClickedID: "0054,0055"},
			wantField: "clicked_id",
			wantMsg:   "must be a genre id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details[tt.wantField], tt.wantMsg)
		})
	}
}
