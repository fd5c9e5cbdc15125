package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// HealthChecker probes a backing component.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"sessions": s.checkSessions(),
	}
	overall := "healthy"

	if s.backend != nil {
		backendHealth := s.checkBackend(ctx)
		components["backend"] = backendHealth
		if backendHealth.Status != "healthy" {
			overall = "unhealthy"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

func (s *Server) checkSessions() ComponentHealth {
	if s.sessions == nil {
		return ComponentHealth{Status: "degraded", Message: "session manager not configured"}
	}
	return ComponentHealth{
		Status:  "healthy",
		Message: strconv.Itoa(s.sessions.Len()) + " active",
	}
}

// checkBackend runs the search backend's own probe.
func (s *Server) checkBackend(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := s.backend.CheckHealth(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("backend health check failed", "error", err)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "search backend unavailable",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}
