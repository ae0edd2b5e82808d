package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bankportal.org/internal/gateway"
	"bankportal.org/internal/guard"
	"bankportal.org/internal/obs"
	"bankportal.org/internal/session"
	"bankportal.org/internal/validate"
	"bankportal.org/internal/views"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleGatewayError maps a failed backend or session call onto the portal's
// response. Backend messages are passed through verbatim.
func handleGatewayError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *validate.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      views.Rejected(err).Error,
			"fields":     ve.Errors,
			"request_id": RequestIDFromContext(r.Context()),
		})
	case errors.Is(err, validate.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, views.Rejected(err).Error)
	case errors.Is(err, gateway.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, gateway.Message(err, fallback))
	case errors.Is(err, gateway.ErrForbidden):
		writeError(w, r, http.StatusForbidden, gateway.Message(err, fallback))
	case errors.Is(err, gateway.ErrNotFound):
		writeError(w, r, http.StatusNotFound, gateway.Message(err, fallback))
	case errors.Is(err, gateway.ErrBadRequest):
		writeError(w, r, http.StatusBadRequest, gateway.Message(err, fallback))
	case errors.Is(err, session.ErrMalformedToken), errors.Is(err, session.ErrBadSignature):
		writeError(w, r, http.StatusBadGateway, session.ErrMalformedToken.Error())
	case errors.Is(err, session.ErrTokenExpired):
		writeError(w, r, http.StatusBadGateway, "issued token is already expired")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, fallback)
	default:
		obs.FromContext(r.Context()).Error().Err(err).Msg("backend call failed")
		writeError(w, r, http.StatusBadGateway, gateway.Message(err, fallback))
	}
}

// writeSubmission renders a form action. Local rejections are 400; backend
// failures keep the backend's 4xx and become 502 otherwise.
func writeSubmission(w http.ResponseWriter, r *http.Request, okCode int, sub views.Submission) {
	if redirected(w, r) {
		return
	}
	switch {
	case sub.OK():
		writeJSON(w, okCode, sub)
	case !sub.Submitted:
		writeJSON(w, http.StatusBadRequest, sub)
	case sub.Status >= 400 && sub.Status < 500:
		writeJSON(w, sub.Status, sub)
	default:
		writeJSON(w, http.StatusBadGateway, sub)
	}
}

// redirected re-runs the page guard after backend calls. A forced logout
// during the request turns the response into the guard's redirect.
func redirected(w http.ResponseWriter, r *http.Request) bool {
	d, ok := guard.Recheck(r.Context())
	if !ok || d.Render {
		return false
	}
	guard.WriteDecision(w, d)
	return true
}
