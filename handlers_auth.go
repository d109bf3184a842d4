package main

import (
	"net/http"
	"net/url"
	"strings"
)

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/admin/contacts"
	}
	return target
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		flash, flashType := a.getFlash(r)
		a.render(w, http.StatusOK, "login.html", map[string]any{
			"Redirect":        safeRedirect(r.URL.Query().Get("redirect")),
			"Flash":           flash,
			"FlashType":       flashType,
			"ContentTemplate": "login_content",
		})
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	redirect := safeRedirect(r.FormValue("redirect"))

	if email == "" || password == "" {
		a.setFlash(w, "Email and password are required", true)
		http.Redirect(w, r, "/login?redirect="+url.QueryEscape(redirect), http.StatusSeeOther)
		return
	}

	advisor, err := a.store.GetAdvisorByEmail(r.Context(), email)
	if err != nil || !checkPasswordHash(password, advisor.PasswordHash) {
		a.setFlash(w, "Invalid email or password", true)
		http.Redirect(w, r, "/login?redirect="+url.QueryEscape(redirect), http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    a.sessionValue(advisor.ID),
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
