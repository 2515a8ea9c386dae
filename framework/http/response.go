package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-beans/framework/container"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusConflict, err.Error())
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	msg := first(message, "Not found.")
	res.JSON(http.StatusNotFound, envelope{"message": msg})
}

// ── Container errors ─────────────────────────────────────────────────────────

// StatusFor maps a resolution error to a status: 404 when the requested id
// itself is unknown, 409 for cycles and missing transitive dependencies,
// 500 for everything else.
func StatusFor(err error) int {
	var unknown *container.UnknownDependencyError
	switch {
	case errors.As(err, &unknown) && len(unknown.Path) == 0:
		return http.StatusNotFound
	case container.IsResolutionError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ContainerError writes err with StatusFor(err) and returns that status.
func (res *Response) ContainerError(err error) int {
	status := StatusFor(err)
	res.Error(status, err.Error())
	return status
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
