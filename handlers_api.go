package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

const sessionCookie = "calc_session"

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps engine and store errors onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var ie *InputError
	switch {
	case errors.As(err, &ie):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ie.Error(), Field: ie.Field})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedBrackets):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, invalid("body", "unreadable or too large")
	}
	return body, nil
}

func decodeBody(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return invalid("body", err.Error())
	}
	return nil
}

// sessionID returns the visitor's anonymous analytics id, issuing one on first use.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// recordUse logs a calculator run. Failures never reach the visitor.
func (a *App) recordUse(w http.ResponseWriter, r *http.Request, calc string) {
	e := AnalyticsEvent{
		SessionID:  sessionID(w, r),
		Calculator: calc,
		ContactRef: r.Header.Get("X-Contact-Ref"),
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.RecordEvent(ctx, e); err != nil {
		log.Printf("recording %s event: %v", calc, err)
	}
}

func (a *App) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	calc, ok := a.calcs[r.PathValue("calculator")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown calculator")
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	result, err := calc.Run(body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	a.recordUse(w, r, calc.Name)
	writeJSON(w, http.StatusOK, result)
}
