package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookfinder/internal/session"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Create session",
		Description:   "Loads the genre taxonomy and starts a search session with nothing selected",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get session",
		Description: "Returns the form, genre selection and displayed results of a session",
		Tags:        []string{"Sessions"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSession",
		Method:        http.MethodDelete,
		Path:          "/api/v1/sessions/{id}",
		Summary:       "Delete session",
		Description:   "Discards a session; searches still in flight finish unobserved",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSessionForm",
		Method:      http.MethodPatch,
		Path:        "/api/v1/sessions/{id}/form",
		Summary:     "Edit form field",
		Description: "Sets one text field of the search form. Page fields are parsed on search",
		Tags:        []string{"Sessions"},
	}, s.handleUpdateForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "setGenreFilter",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/genre-filter",
		Summary:     "Switch genre filter",
		Description: "Turns filtering by the checked genres on or off",
		Tags:        []string{"Sessions"},
	}, s.handleSetGenreFilter)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleGenre",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/genres/toggle",
		Summary:     "Toggle genre",
		Description: "Applies a checkbox click to every group and genre whose ID starts with the clicked ID",
		Tags:        []string{"Sessions"},
	}, s.handleToggleGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/search",
		Summary:     "Search",
		Description: "Builds a query from the form and selection, runs it and returns the updated session",
		Tags:        []string{"Sessions"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePage",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/page",
		Summary:     "Change result page",
		Description: "Re-runs the query behind the displayed results for another page (0 is the first)",
		Tags:        []string{"Sessions"},
	}, s.handleChangePage)
}

// === DTOs ===

// SessionPathInput identifies a session.
type SessionPathInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// SessionOutput returns a session view.
type SessionOutput struct {
	Body session.View
}

// UpdateFormRequest is the body of a form edit.
type UpdateFormRequest struct {
	Field string `json:"field" enum:"title,pageFrom,pageTo" doc:"Form field name" validate:"required,oneof=title pageFrom pageTo"`
	Value string `json:"value" doc:"New field value" validate:"max=20"`
}

// UpdateFormInput wraps the form edit request.
type UpdateFormInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body UpdateFormRequest
}

// GenreFilterRequest is the body of a genre filter switch.
type GenreFilterRequest struct {
	Enabled bool `json:"enabled" doc:"Filter by checked genres"`
}

// GenreFilterInput wraps the genre filter request.
type GenreFilterInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body GenreFilterRequest
}

// ToggleGenreRequest is the body of a checkbox click.
type ToggleGenreRequest struct {
	ID         string `json:"id" doc:"Clicked group or genre ID" validate:"genreid"`
	WasChecked bool   `json:"was_checked" doc:"Checkbox state before the click"`
}

// ToggleGenreInput wraps the toggle request.
type ToggleGenreInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body ToggleGenreRequest
}

// ChangePageRequest is the body of a page change.
type ChangePageRequest struct {
	Page int `json:"page" minimum:"0" maximum:"100000" doc:"Result page, 0 being the first" validate:"gte=0,lte=100000"`
}

// ChangePageInput wraps the page change request.
type ChangePageInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body ChangePageRequest
}

// === Handlers ===

func (s *Server) handleCreateSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &SessionOutput{Body: sess.Snapshot()}, nil
}

func (s *Server) handleGetSession(_ context.Context, input *SessionPathInput) (*SessionOutput, error) {
	sess, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &SessionOutput{Body: sess.Snapshot()}, nil
}

func (s *Server) handleDeleteSession(_ context.Context, input *SessionPathInput) (*struct{}, error) {
	if err := s.sessions.Delete(input.ID); err != nil {
		return nil, toHumaError(err)
	}
	return nil, nil
}

func (s *Server) handleUpdateForm(_ context.Context, input *UpdateFormInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}

	sess, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	if err := sess.SetField(input.Body.Field, input.Body.Value); err != nil {
		return nil, toHumaError(err)
	}
	return &SessionOutput{Body: sess.Snapshot()}, nil
}

func (s *Server) handleSetGenreFilter(_ context.Context, input *GenreFilterInput) (*SessionOutput, error) {
	sess, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	sess.SetGenreFilterEnabled(input.Body.Enabled)
	return &SessionOutput{Body: sess.Snapshot()}, nil
}

func (s *Server) handleToggleGenre(_ context.Context, input *ToggleGenreInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}

	sess, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	sess.ToggleGenre(input.Body.ID, input.Body.WasChecked)
	return &SessionOutput{Body: sess.Snapshot()}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SessionPathInput) (*SessionOutput, error) {
	sess, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}

	task, err := sess.Submit(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	return s.awaitSearch(ctx, sess, task)
}

func (s *Server) handleChangePage(ctx context.Context, input *ChangePageInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}

	sess, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}

	task, err := sess.ChangePage(ctx, input.Body.Page)
	if err != nil {
		return nil, toHumaError(err)
	}
	return s.awaitSearch(ctx, sess, task)
}

// awaitSearch waits for task and returns the session as it stands afterwards.
// A failed search is reported with its error; the session keeps the books it
// showed before, which a follow-up GET returns.
func (s *Server) awaitSearch(ctx context.Context, sess *session.Session, task *session.SearchTask) (*SessionOutput, error) {
	if _, err := task.Wait(ctx); err != nil {
		s.logger.Debug("search request failed",
			"session_id", sess.ID(),
			"seq", task.Seq,
			"error", err,
		)
		return nil, toHumaError(err)
	}
	return &SessionOutput{Body: sess.Snapshot()}, nil
}
