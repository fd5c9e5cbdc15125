// Package session implements the search session: the form and genre
// selection owned by one user, query submission to a search backend, and
// the result set shown for the most recently completed search.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/errors"
	"github.com/listenupapp/bookfinder/internal/genre"
	"github.com/listenupapp/bookfinder/internal/query"
)

// Searcher runs a book search against a backend.
type Searcher interface {
	SearchBooks(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error)
}

// TaxonomyProvider returns the raw genre taxonomy payload.
type TaxonomyProvider interface {
	FetchTaxonomy(ctx context.Context) ([]byte, error)
}

// Form field names accepted by SetField.
const (
	FieldTitle    = "title"
	FieldPageFrom = "pageFrom"
	FieldPageTo   = "pageTo"
)

// Session holds one user's search form, genre selection and displayed results.
// Handlers are serialised by mu and each returns after its mutation is complete.
type Session struct {
	id       string
	searcher Searcher
	logger   *slog.Logger

	mu         sync.Mutex
	form       domain.SearchFormState
	state      domain.SelectionState
	books      []domain.Book
	pageSet    *domain.PageSet
	shown      *domain.SearchQuery
	hasError   bool
	errMessage string
	inFlight   int
	submitted  uint64
	createdAt  time.Time
	lastActive time.Time
}

// New creates a session over an already built selection tree.
func New(id string, state domain.SelectionState, searcher Searcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Session{
		id:         id,
		searcher:   searcher,
		logger:     logger.With("session_id", id),
		state:      state,
		books:      []domain.Book{},
		createdAt:  now,
		lastActive: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetField updates one text field of the form. Page fields are stored as
// typed and only parsed on submit.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case FieldTitle:
		s.form.Title = value
	case FieldPageFrom:
		s.form.PageFrom = value
	case FieldPageTo:
		s.form.PageTo = value
	default:
		return errors.ValidationWithDetails("unknown form field", map[string]string{"field": name})
	}

	s.touch()
	return nil
}

// SetGenreFilterEnabled switches the genre filter on or off.
func (s *Session) SetGenreFilterEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form.GenreFilterEnabled = enabled
	s.touch()
}

// ToggleGenreFilter flips the genre filter switch and returns the new value.
func (s *Session) ToggleGenreFilter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form.GenreFilterEnabled = !s.form.GenreFilterEnabled
	s.touch()
	return s.form.GenreFilterEnabled
}

// ToggleGenre forwards a click on a group or genre checkbox to the selection
// tree. wasChecked is the clicked node's state before the click.
// Returns the number of nodes that were set.
func (s *Session) ToggleGenre(clickedID string, wasChecked bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := genre.Toggle(s.state, clickedID, wasChecked)
	s.touch()

	s.logger.Debug("genre toggled",
		"clicked_id", clickedID,
		"was_checked", wasChecked,
		"matched", matched,
	)
	return matched
}

// Submit builds a query from the current form and selection and starts the
// search. Query errors such as InvalidPageNumber are returned at once and
// nothing is sent. The search outlives ctx cancellation.
func (s *Session) Submit(ctx context.Context) (*SearchTask, error) {
	s.mu.Lock()
	q, err := query.Build(s.form, s.state)
	if err != nil {
		s.touch()
		s.mu.Unlock()
		return nil, err
	}
	task := s.startLocked(q)
	s.mu.Unlock()

	go s.run(context.WithoutCancel(ctx), task)
	return task, nil
}

// ChangePage re-issues the query behind the displayed results for another
// result page. Pages are zero based.
func (s *Session) ChangePage(ctx context.Context, page int) (*SearchTask, error) {
	if page < 0 {
		return nil, errors.ValidationWithDetails("page must not be negative", map[string]int{"page": page})
	}
	if page > domain.MaxPage {
		return nil, errors.ValidationWithDetails(
			fmt.Sprintf("page must not exceed %d", domain.MaxPage), map[string]int{"page": page})
	}

	s.mu.Lock()
	if s.shown == nil {
		s.mu.Unlock()
		return nil, errors.Validation("no search results to paginate")
	}
	task := s.startLocked(s.shown.WithPage(page))
	s.mu.Unlock()

	go s.run(context.WithoutCancel(ctx), task)
	return task, nil
}

func (s *Session) startLocked(q domain.SearchQuery) *SearchTask {
	s.submitted++
	s.inFlight++
	s.touch()

	task := newSearchTask(s.submitted, q)
	s.logger.Info("search submitted",
		"seq", task.Seq,
		"title", q.TitleFilter,
		"genre_ids", q.GenreIDLiteral(),
		"page_from", q.PageFrom,
		"page_to", q.PageTo,
		"page", q.Page,
	)
	return task
}

func (s *Session) run(ctx context.Context, task *SearchTask) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := errors.EndpointFailure(fmt.Errorf("search panicked: %v", r))
			s.apply(task, nil, err, time.Since(start))
			task.complete(nil, err)
		}
	}()

	result, err := s.searcher.SearchBooks(ctx, task.Query)
	if err == nil && result == nil {
		err = errors.Internal("search backend returned no result")
	}
	if err != nil && !errors.Is(err, errors.ErrEndpointFailure) {
		err = errors.EndpointFailure(err)
	}

	s.apply(task, result, err, time.Since(start))
	task.complete(result, err)
}

// apply merges a completed search into the session. Completions are applied
// in the order they finish, so the last one to finish is what is shown.
func (s *Session) apply(task *SearchTask, result *domain.SearchResult, err error, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--

	if err != nil {
		s.hasError = true
		s.errMessage = err.Error()
		s.logger.Warn("search failed",
			"seq", task.Seq,
			"duration", took,
			"error", err,
		)
		return
	}

	books := result.Books
	if books == nil {
		books = []domain.Book{}
	}
	pageSet := result.PageSet
	q := task.Query

	s.books = books
	s.pageSet = &pageSet
	s.shown = &q
	s.hasError = false
	s.errMessage = ""

	s.logger.Info("search completed",
		"seq", task.Seq,
		"duration", took,
		"books", len(books),
		"total", pageSet.TotalBooksNum,
	)
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// LastActive reports when a handler last ran on this session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
