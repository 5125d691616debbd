package gateway

import (
	"encoding/json"
	"net/http"

	"file-relay/domain"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type uploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	Digest   string `json:"digest,omitempty"`
}

// StatusFor maps the status taxonomy onto HTTP.
func StatusFor(c domain.Code) int {
	switch c {
	case domain.CodeOK:
		return http.StatusOK
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(RequestIDHeader, RequestIDFromCtx(r.Context()))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeOutcome(w http.ResponseWriter, r *http.Request, o domain.Outcome) {
	writeError(w, r, StatusFor(o.Code), o)
}

// writeError answers with the outcome detail only, the cause stays in the logs.
func writeError(w http.ResponseWriter, r *http.Request, status int, o domain.Outcome) {
	writeJSON(w, r, status, errorEnvelope{Error: apiError{Code: o.Code.String(), Message: o.Detail}})
}
