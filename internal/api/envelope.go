package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is bumped whenever the envelope shape changes.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response and simple errors.
type APIEnvelope struct { //nolint:revive // Matches APIError naming
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope carries a coded error with optional details.
type APIErrorEnvelope struct { //nolint:revive // Matches APIError naming
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps huma response bodies in the versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if strings.HasPrefix(status, "2") || strings.HasPrefix(status, "3") {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	switch e := v.(type) {
	case *APIError:
		if e.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Code:    e.Code,
				Message: e.Message,
				Details: e.Details,
			}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Error: e.Message}, nil
	case error:
		return APIEnvelope{Version: EnvelopeVersion, Error: e.Error()}, nil
	default:
		return APIEnvelope{Version: EnvelopeVersion, Data: v}, nil
	}
}
