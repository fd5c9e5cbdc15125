package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/genre"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "load fixture %s", name)
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(Options{
		SearchURL:   server.URL + "/graphql",
		TaxonomyURL: server.URL + "/genre_groups",
		RPS:         100,
		Burst:       100,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Override HTTP client to use test server
	client.http = server.Client()
	t.Cleanup(func() { _ = client.Shutdown() })

	return client
}

func TestClient_SearchBooks_RequestShape(t *testing.T) {
	fixture := loadFixture(t, "books_response.json")

	var got graphqlRequest
	var headers http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/graphql", r.URL.Path)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(fixture) //nolint:errcheck // Test handler
	})

	q := domain.SearchQuery{
		TitleFilter:   "Dune",
		GenreIDFilter: []string{"005409001", "005409002"},
		PageFrom:      100,
		PageTo:        300,
		Page:          2,
	}
	_, err := client.SearchBooks(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, booksQuery, got.Query)
	assert.Equal(t, booksVariables{
		Title:        "Dune",
		BooksGenreID: `["005409001","005409002"]`,
		PageNumFrom:  100,
		PageNumTo:    300,
		NowPage:      2,
	}, got.Variables)

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	_, err = uuid.Parse(headers.Get("X-Request-ID"))
	assert.NoError(t, err, "request id is a uuid")
}

func TestClient_SearchBooks_EmptyFiltersUseSentinels(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"data":{"books":{"books":[],"pageSet":{"booksPerPage":30,"nowPage":0,"totalBooksNum":0}}}}`)) //nolint:errcheck // Test handler
	})

	_, err := client.SearchBooks(context.Background(), domain.SearchQuery{
		TitleFilter:   `""`,
		GenreIDFilter: []string{},
		PageTo:        9999,
	})
	require.NoError(t, err)

	vars := raw["variables"].(map[string]any)
	assert.Equal(t, `""`, vars["title"])
	assert.Equal(t, "[]", vars["booksGenreId"])
	assert.Equal(t, float64(0), vars["pageNumFrom"])
	assert.Equal(t, float64(9999), vars["pageNumTo"])
}

func TestClient_SearchBooks_ParsesResult(t *testing.T) {
	fixture := loadFixture(t, "books_response.json")
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(fixture) //nolint:errcheck // Test handler
	})

	result, err := client.SearchBooks(context.Background(), domain.SearchQuery{TitleFilter: "Dune"})
	require.NoError(t, err)

	require.Len(t, result.Books, 2)
	first := result.Books[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Dune", first.Title)
	assert.Equal(t, "005409001", first.BooksGenreID)
	assert.Equal(t, "https://img.example.com/101/l.jpg", first.LargeImageURL)
	assert.Equal(t, 120, first.ReviewCount)
	assert.Equal(t, "4.25", first.ReviewAverage)
	require.NotNil(t, first.Page)
	assert.Equal(t, 412, *first.Page)
	require.NotNil(t, first.Vocabulary)
	assert.Equal(t, 187000, *first.Vocabulary)

	assert.Nil(t, result.Books[1].Page)
	assert.Nil(t, result.Books[1].Vocabulary)
	assert.Equal(t, domain.PageSet{BooksPerPage: 30, NowPage: 0, TotalBooksNum: 2}, result.PageSet)
}

func TestClient_SearchBooks_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		wantErr    error
	}{
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "server error", statusCode: http.StatusBadGateway, wantErr: ErrServer},
		{name: "bad request", statusCode: http.StatusBadRequest, wantErr: ErrBadRequest},
		{name: "not found", statusCode: http.StatusNotFound, wantErr: ErrNotFound},
		{
			name:       "graphql errors",
			statusCode: http.StatusOK,
			response:   `{"data":null,"errors":[{"message":"booksGenreId is invalid"}]}`,
			wantErr:    ErrQuery,
		},
		{
			name:       "missing books",
			statusCode: http.StatusOK,
			response:   `{"data":{"books":null}}`,
			wantErr:    ErrQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.response != "" {
					w.Write([]byte(tt.response)) //nolint:errcheck // Test handler
				}
			})

			result, err := client.SearchBooks(context.Background(), domain.SearchQuery{})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)

			var upErr *Error
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, "searchBooks", upErr.Op)
			assert.NotEmpty(t, upErr.RequestID)
		})
	}
}

func TestClient_SearchBooks_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck // Test handler
	})

	_, err := client.SearchBooks(context.Background(), domain.SearchQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestClient_FetchTaxonomy(t *testing.T) {
	fixture := loadFixture(t, "taxonomy.json")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/genre_groups", r.URL.Path)
		w.Write(fixture) //nolint:errcheck // Test handler
	})

	payload, err := client.FetchTaxonomy(context.Background())
	require.NoError(t, err)

	state, err := genre.BuildTree(payload)
	require.NoError(t, err)
	require.Len(t, state, 1)
	assert.Equal(t, "005409", state[0].ID)
	assert.Len(t, state[0].Genres, 2)
}

func TestClient_FetchTaxonomy_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchTaxonomy(context.Background())
	assert.ErrorIs(t, err, ErrServer)
}

func TestClient_CanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck // Test handler
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchBooks(ctx, domain.SearchQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_InvalidEndpoint(t *testing.T) {
	client := New(Options{SearchURL: "not a url"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer client.Shutdown() //nolint:errcheck // Test cleanup

	_, err := client.SearchBooks(context.Background(), domain.SearchQuery{})
	assert.ErrorIs(t, err, ErrBadRequest)
}
