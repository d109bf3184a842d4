package main

import (
	"log"
	"net/http"
	"strconv"
)

const defaultContactPage = 200

func (a *App) handleAdminContacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := defaultContactPage
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	contacts, err := a.store.ListContacts(r.Context(), limit)
	if err != nil {
		log.Printf("listing contacts: %v", err)
		http.Error(w, "could not load contacts", http.StatusInternalServerError)
		return
	}
	flash, flashType := a.getFlash(r)
	a.render(w, http.StatusOK, "admin_contacts.html", map[string]any{
		"Contacts":        contacts,
		"Limit":           limit,
		"Flash":           flash,
		"FlashType":       flashType,
		"CSRFToken":       a.getCSRFToken(r),
		"ContentTemplate": "admin_contacts_content",
	})
}

func (a *App) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	counts, err := a.store.CountEvents(r.Context())
	if err != nil {
		log.Printf("counting events: %v", err)
		http.Error(w, "could not load analytics", http.StatusInternalServerError)
		return
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	a.render(w, http.StatusOK, "admin_analytics.html", map[string]any{
		"Counts":          counts,
		"Total":           total,
		"CSRFToken":       a.getCSRFToken(r),
		"ContentTemplate": "admin_analytics_content",
	})
}
