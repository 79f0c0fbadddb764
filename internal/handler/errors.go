package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/userdesk/userdesk/internal/handler/dto"
	"github.com/userdesk/userdesk/internal/middleware"
	"github.com/userdesk/userdesk/internal/service"
)

var errTrailingData = errors.New("unexpected data after JSON body")

const msgInternal = "an unexpected error occurred, please try again later"

// invalidJSON marks a request body that could not be decoded.
type invalidJSON struct {
	err error
}

func (e *invalidJSON) Error() string { return "invalid JSON body: " + e.err.Error() }

func (e *invalidJSON) Unwrap() error { return e.err }

// WriteError maps err onto the HTTP error response. Domain errors carry
// their own message; anything else is logged and answered with a generic
// 500 so storage details never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		notFound   *service.NotFoundError
		conflict   *service.ConflictError
		validation *service.ValidationError
		badJSON    *invalidJSON
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
			Error: notFound.Message,
			Code:  "NOT_FOUND",
		})
	case errors.As(err, &conflict):
		resp := dto.ErrorResponse{Error: conflict.Message, Code: "EMAIL_IN_USE"}
		if conflict.Field != "" {
			resp.Fields = map[string]string{conflict.Field: "is already in use"}
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  validation.Error(),
			Code:   "VALIDATION_FAILED",
			Fields: validation.Fields,
		})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{
			Error: "request body too large",
			Code:  "PAYLOAD_TOO_LARGE",
		})
	case errors.As(err, &badJSON):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_JSON",
		})
	default:
		logger.Error("request failed",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: msgInternal,
			Code:  "INTERNAL_ERROR",
		})
	}
}
