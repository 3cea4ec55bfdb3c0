package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/polkassembly/govauth"
)

const maxBodyBytes = 1 << 20

var errBadBody = &govauth.Error{Kind: govauth.KindInvalidParams, Msg: "invalid request body"}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind govauth.ErrorKind) int {
	switch kind {
	case govauth.KindNotFound:
		return http.StatusNotFound
	case govauth.KindExpired:
		return http.StatusGone
	case govauth.KindInvalidSignature, govauth.KindUnauthorized:
		return http.StatusUnauthorized
	case govauth.KindConflict:
		return http.StatusConflict
	case govauth.KindForbidden:
		return http.StatusForbidden
	case govauth.KindInvalidParams:
		return http.StatusBadRequest
	case govauth.KindRateLimited:
		return http.StatusTooManyRequests
	case govauth.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := govauth.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	var e *govauth.Error
	if errors.As(err, &e) && e.Msg != "" {
		msg = e.Msg
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("kind", kind.String()),
			slog.Any("error", err),
		)
		if kind == govauth.KindInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind.String()})
}
