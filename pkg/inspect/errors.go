package inspect

import (
	"io"
	"net/http"

	"github.com/vango-dev/shadowdom/internal/errors"
)

// statusFor maps an error to an HTTP status by category.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case "E160":
		return http.StatusNotFound
	case "E162":
		return http.StatusBadRequest
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryParse, errors.CategorySelector, errors.CategoryTree:
		return http.StatusBadRequest
	case errors.CategoryHost, errors.CategoryStorage:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, errors.FromError(err, "").FormatJSON())
}
