package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/and161185/supermock-admin/internal/errs"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errs.ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text the caller sees. Upstream failures are never echoed.
func publicMessage(err error, status int) string {
	var ve *errs.ValidationError
	var ce *errs.ConflictError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ce):
		return ce.Message
	}
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden: you do not have access to this center"
	case http.StatusTooManyRequests:
		return "Too many requests, please try again later"
	case http.StatusConflict:
		return "Already exists"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusRequestEntityTooLarge:
		return "Request body too large"
	case http.StatusBadRequest:
		return "Request body must be a JSON object"
	default:
		return "Internal server error"
	}
}

// fail logs err and renders it as {"error": ...}.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, publicMessage(err, status))
}

// readObject reads at most limit bytes and decodes them as a JSON object.
func readObject(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, error) {
	if r.ContentLength > limit {
		return nil, errs.ErrPayloadTooLarge
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errs.ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformed, err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, errs.ErrMalformed
	}
	return body, nil
}

// errNoBody marks a request that carried no JSON value at all.
var errNoBody = fmt.Errorf("%w: empty body", errs.ErrMalformed)

// decodeJSON decodes a size-capped body into out.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, out any) error {
	if r.ContentLength > limit {
		return errs.ErrPayloadTooLarge
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errs.ErrPayloadTooLarge
		}
		if errors.Is(err, io.EOF) {
			return errNoBody
		}
		return fmt.Errorf("%w: %v", errs.ErrMalformed, err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be omitted, chunked or not.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, limit int64, out any) error {
	if err := decodeJSON(w, r, limit, out); err != nil && !errors.Is(err, errNoBody) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func retryAfter(w http.ResponseWriter, seconds int) {
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}
