package main

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contactRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Calculator string `json:"calculator"`
}

func (c contactRequest) validate() error {
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if !strings.Contains(c.Email, "@") {
		return invalid("email", "must be an email address")
	}
	return nil
}

// handleContactCreate stores a visitor's details and hands back the reference the
// results page and the TFSA history are keyed by.
func (a *App) handleContactCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req contactRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := req.validate(); err != nil {
		writeFailure(w, err)
		return
	}

	c, err := a.store.CreateContact(r.Context(), Contact{
		Ref:        uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Calculator: req.Calculator,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// contactFromRef resolves a reference passed by the browser. Malformed references are
// rejected before touching the store.
func (a *App) contactFromRef(r *http.Request, ref string) (Contact, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return Contact{}, invalid("ref", "must be a contact reference")
	}
	return a.store.GetContactByRef(r.Context(), ref)
}
