package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gatedSearcher holds every call until the test releases it with a result.
type gatedSearcher struct {
	mu    sync.Mutex
	calls []domain.SearchQuery
	gates []chan outcome
	ctxs  []context.Context
}

type outcome struct {
	result *domain.SearchResult
	err    error
}

func newGatedSearcher(slots int) *gatedSearcher {
	g := &gatedSearcher{}
	for range slots {
		g.gates = append(g.gates, make(chan outcome, 1))
	}
	return g
}

func (g *gatedSearcher) SearchBooks(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	g.mu.Lock()
	n := len(g.calls)
	g.calls = append(g.calls, q)
	g.ctxs = append(g.ctxs, ctx)
	gate := g.gates[n]
	g.mu.Unlock()

	o := <-gate
	return o.result, o.err
}

func (g *gatedSearcher) release(i int, result *domain.SearchResult, err error) {
	g.gates[i] <- outcome{result: result, err: err}
}

// stubSearcher answers immediately.
type stubSearcher struct {
	result *domain.SearchResult
	err    error

	mu    sync.Mutex
	calls []domain.SearchQuery
}

func (s *stubSearcher) SearchBooks(_ context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	s.mu.Unlock()
	return s.result, s.err
}

func testTree() domain.SelectionState {
	return domain.SelectionState{
		{
			ID:          "005409",
			DisplayName: "Travel（旅行）",
			Genres: []domain.Genre{
				{ID: "005409001", DisplayName: "Asia"},
				{ID: "005409002", DisplayName: "Europe"},
			},
		},
		{
			ID:          "005410",
			DisplayName: "Fiction",
			Genres: []domain.Genre{
				{ID: "005410001", DisplayName: "Mystery"},
			},
		},
	}
}

func resultWith(titles ...string) *domain.SearchResult {
	books := make([]domain.Book, len(titles))
	for i, title := range titles {
		books[i] = domain.Book{ID: title, Title: title}
	}
	return &domain.SearchResult{
		Books:   books,
		PageSet: domain.PageSet{BooksPerPage: 30, NowPage: 0, TotalBooksNum: len(titles)},
	}
}

func waitTask(t *testing.T, task *SearchTask) (*domain.SearchResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := task.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return result, err
}

func TestSession_SetField(t *testing.T) {
	s := New("ses-1", testTree(), &stubSearcher{}, quietLogger())

	require.NoError(t, s.SetField(FieldTitle, "Dune"))
	require.NoError(t, s.SetField(FieldPageFrom, "abc"))
	require.NoError(t, s.SetField(FieldPageTo, "300"))

	err := s.SetField("author", "Herbert")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	form := s.Snapshot().Form
	assert.Equal(t, "Dune", form.Title)
	assert.Equal(t, "abc", form.PageFrom, "page fields are kept as typed")
	assert.Equal(t, "300", form.PageTo)
}

func TestSession_GenreFilterSwitch(t *testing.T) {
	s := New("ses-1", testTree(), &stubSearcher{}, quietLogger())

	assert.True(t, s.ToggleGenreFilter())
	assert.False(t, s.ToggleGenreFilter())

	s.SetGenreFilterEnabled(true)
	assert.True(t, s.Snapshot().Form.GenreFilterEnabled)
}

func TestSession_ToggleGenre(t *testing.T) {
	s := New("ses-1", testTree(), &stubSearcher{}, quietLogger())

	matched := s.ToggleGenre("005409", false)
	assert.Equal(t, 3, matched)

	v := s.Snapshot()
	assert.True(t, v.Groups[0].Checked)
	assert.Equal(t, []string{"005409001", "005409002"}, v.CheckedGenreIDs)

	s.ToggleGenre("005409002", true)
	assert.Equal(t, []string{"005409001"}, s.Snapshot().CheckedGenreIDs)
}

func TestSession_SubmitSuccess(t *testing.T) {
	searcher := &stubSearcher{result: resultWith("Dune", "Dune Messiah")}
	s := New("ses-1", testTree(), searcher, quietLogger())
	require.NoError(t, s.SetField(FieldTitle, "Dune"))
	s.SetGenreFilterEnabled(true)
	s.ToggleGenre("005410", false)

	task, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), task.Seq)

	result, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Len(t, result.Books, 2)

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "Dune", searcher.calls[0].TitleFilter)
	assert.Equal(t, []string{"005410001"}, searcher.calls[0].GenreIDFilter)
	assert.Equal(t, 9999, searcher.calls[0].PageTo)

	v := s.Snapshot()
	assert.Len(t, v.Books, 2)
	require.NotNil(t, v.PageSet)
	assert.Equal(t, 2, v.PageSet.TotalBooksNum)
	require.NotNil(t, v.Query)
	assert.Equal(t, "Dune", v.Query.TitleFilter)
	assert.False(t, v.HasError)
	assert.Zero(t, v.InFlight)
}

func TestSession_SubmitInvalidPageNumberSendsNothing(t *testing.T) {
	searcher := &stubSearcher{result: resultWith("x")}
	s := New("ses-1", testTree(), searcher, quietLogger())
	require.NoError(t, s.SetField(FieldPageFrom, "abc"))
	require.NoError(t, s.SetField(FieldTitle, "kept"))

	task, err := s.Submit(context.Background())
	require.Error(t, err)
	assert.Nil(t, task)
	assert.True(t, errors.Is(err, errors.ErrInvalidPageNumber))
	assert.Empty(t, searcher.calls)

	v := s.Snapshot()
	assert.Equal(t, "kept", v.Form.Title)
	assert.False(t, v.HasError, "query errors are returned, not stored")
	assert.Zero(t, v.Submitted)
}

func TestSession_FailureKeepsPreviousBooks(t *testing.T) {
	searcher := newGatedSearcher(2)
	s := New("ses-1", testTree(), searcher, quietLogger())

	first, err := s.Submit(context.Background())
	require.NoError(t, err)
	searcher.release(0, resultWith("A", "B"), nil)
	_, err = waitTask(t, first)
	require.NoError(t, err)

	second, err := s.Submit(context.Background())
	require.NoError(t, err)

	// Form edit while the search is in flight survives the failure.
	require.NoError(t, s.SetField(FieldTitle, "typed meanwhile"))
	searcher.release(1, nil, io.ErrUnexpectedEOF)

	_, err = waitTask(t, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEndpointFailure))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	v := s.Snapshot()
	assert.True(t, v.HasError)
	assert.Contains(t, v.ErrorMessage, "unexpected EOF")
	assert.Equal(t, []string{"A", "B"}, bookTitles(v.Books))
	assert.Equal(t, "typed meanwhile", v.Form.Title)
}

func TestSession_SuccessClearsErrorFlag(t *testing.T) {
	searcher := newGatedSearcher(2)
	s := New("ses-1", testTree(), searcher, quietLogger())

	first, _ := s.Submit(context.Background())
	searcher.release(0, nil, io.EOF)
	_, _ = waitTask(t, first)
	require.True(t, s.Snapshot().HasError)

	second, _ := s.Submit(context.Background())
	searcher.release(1, resultWith("C"), nil)
	_, err := waitTask(t, second)
	require.NoError(t, err)

	v := s.Snapshot()
	assert.False(t, v.HasError)
	assert.Empty(t, v.ErrorMessage)
	assert.Equal(t, []string{"C"}, bookTitles(v.Books))
}

func TestSession_LastToCompleteWins(t *testing.T) {
	searcher := newGatedSearcher(2)
	s := New("ses-1", testTree(), searcher, quietLogger())

	require.NoError(t, s.SetField(FieldTitle, "older"))
	older, err := s.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.SetField(FieldTitle, "newer"))
	newer, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, s.Snapshot().InFlight)

	// The newer search finishes first; the older one lands afterwards and wins.
	searcher.release(1, resultWith("newer-result"), nil)
	_, err = waitTask(t, newer)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer-result"}, bookTitles(s.Snapshot().Books))

	searcher.release(0, resultWith("older-result"), nil)
	_, err = waitTask(t, older)
	require.NoError(t, err)

	v := s.Snapshot()
	assert.Equal(t, []string{"older-result"}, bookTitles(v.Books))
	assert.Equal(t, "older", v.Query.TitleFilter)
	assert.Zero(t, v.InFlight)
	assert.Equal(t, uint64(2), v.Submitted)
}

func TestSession_SearchOutlivesCallerContext(t *testing.T) {
	searcher := newGatedSearcher(1)
	s := New("ses-1", testTree(), searcher, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	task, err := s.Submit(ctx)
	require.NoError(t, err)
	cancel()

	searcher.release(0, resultWith("still applied"), nil)
	_, err = waitTask(t, task)
	require.NoError(t, err)

	searcher.mu.Lock()
	assert.NoError(t, searcher.ctxs[0].Err())
	searcher.mu.Unlock()
	assert.Equal(t, []string{"still applied"}, bookTitles(s.Snapshot().Books))
}

func TestSession_WaitRespectsContext(t *testing.T) {
	searcher := newGatedSearcher(1)
	s := New("ses-1", testTree(), searcher, quietLogger())

	task, err := s.Submit(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = task.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-task.Done():
		t.Fatal("task should still be running")
	default:
	}

	searcher.release(0, resultWith("x"), nil)
	<-task.Done()
}

func TestSession_ChangePage(t *testing.T) {
	searcher := &stubSearcher{result: resultWith("p0")}
	s := New("ses-1", testTree(), searcher, quietLogger())

	_, err := s.ChangePage(context.Background(), 1)
	require.Error(t, err, "nothing displayed yet")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	require.NoError(t, s.SetField(FieldTitle, "Dune"))
	task, err := s.Submit(context.Background())
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.NoError(t, err)

	// Form edits after the search do not leak into pagination.
	require.NoError(t, s.SetField(FieldTitle, "Other"))

	task, err = s.ChangePage(context.Background(), 2)
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.NoError(t, err)

	require.Len(t, searcher.calls, 2)
	assert.Equal(t, "Dune", searcher.calls[1].TitleFilter)
	assert.Equal(t, 2, searcher.calls[1].Page)
	assert.Equal(t, 2, s.Snapshot().Query.Page)

	_, err = s.ChangePage(context.Background(), -1)
	assert.Error(t, err)
}

func TestSession_ChangePageUpperBound(t *testing.T) {
	searcher := &stubSearcher{result: resultWith("p0")}
	s := New("ses-1", testTree(), searcher, quietLogger())

	task, err := s.Submit(context.Background())
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.NoError(t, err)

	_, err = s.ChangePage(context.Background(), domain.MaxPage+1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Len(t, searcher.calls, 1, "nothing sent")

	task, err = s.ChangePage(context.Background(), domain.MaxPage)
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.NoError(t, err)
}

// panickingSearcher answers from result until armed, then panics.
type panickingSearcher struct {
	result *domain.SearchResult
	armed  bool
}

func (p *panickingSearcher) SearchBooks(context.Context, domain.SearchQuery) (*domain.SearchResult, error) {
	if p.armed {
		panic("index exploded")
	}
	return p.result, nil
}

func TestSession_SearcherPanicBecomesFailure(t *testing.T) {
	searcher := &panickingSearcher{result: resultWith("A", "B")}
	s := New("ses-1", testTree(), searcher, quietLogger())

	task, err := s.Submit(context.Background())
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.NoError(t, err)

	searcher.armed = true
	task, err = s.ChangePage(context.Background(), 1)
	require.NoError(t, err)
	_, err = waitTask(t, task)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEndpointFailure))
	assert.Contains(t, err.Error(), "index exploded")

	v := s.Snapshot()
	assert.True(t, v.HasError)
	assert.Equal(t, []string{"A", "B"}, bookTitles(v.Books))
	assert.Zero(t, v.InFlight)
}

func TestSession_NilResultIsFailure(t *testing.T) {
	s := New("ses-1", testTree(), &stubSearcher{}, quietLogger())

	task, err := s.Submit(context.Background())
	require.NoError(t, err)
	_, err = waitTask(t, task)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEndpointFailure))
	assert.True(t, s.Snapshot().HasError)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	s := New("ses-1", testTree(), &stubSearcher{}, quietLogger())

	v := s.Snapshot()
	v.Groups[0].Checked = true
	v.Groups[0].Genres[0].Checked = true

	fresh := s.Snapshot()
	assert.False(t, fresh.Groups[0].Checked)
	assert.False(t, fresh.Groups[0].Genres[0].Checked)
	assert.Equal(t, "旅行", fresh.Groups[0].Heading)
	assert.Equal(t, "Fiction", fresh.Groups[1].Heading)
	assert.NotNil(t, fresh.Books)
}

func bookTitles(books []domain.Book) []string {
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}
	return titles
}
