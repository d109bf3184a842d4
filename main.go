package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

//go:embed templates/*.html
var templateFS embed.FS

type App struct {
	store         Store
	rates         *Rates
	tpl           *template.Template
	calcs         map[string]calculator
	sessionKey    string
	csrfKey       string
	now           func() time.Time
	rateLimiter   map[string][]time.Time
	rateLimiterMu sync.RWMutex
}

func newApp(store Store, rates *Rates, sessionKey, csrfKey string) (*App, error) {
	a := &App{
		store:       store,
		rates:       rates,
		sessionKey:  sessionKey,
		csrfKey:     csrfKey,
		now:         time.Now,
		rateLimiter: make(map[string][]time.Time),
	}
	tpl, err := a.parseTemplates()
	if err != nil {
		return nil, err
	}
	a.tpl = tpl
	a.calcs = a.calculators()
	return a, nil
}

func (a *App) parseTemplates() (*template.Template, error) {
	var tpl *template.Template
	tpl = template.New("")
	funcs := template.FuncMap{
		"money":   moneyDec,
		"cents":   money,
		"percent": percent,
		"date":    func(format string, t time.Time) string { return t.Format(format) },
		"now":     func() time.Time { return a.now() },
		"renderContent": func(name string, data any) (template.HTML, error) {
			var buf bytes.Buffer
			err := tpl.ExecuteTemplate(&buf, name, data)
			return template.HTML(buf.String()), err
		},
		"cond": func(condition bool, trueVal, falseVal string) string {
			if condition {
				return trueVal
			}
			return falseVal
		},
	}
	tpl = tpl.Funcs(funcs)
	return tpl.ParseFS(templateFS, "templates/*.html")
}

func (a *App) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/brackets", a.handleTaxBrackets)
	mux.HandleFunc("/api/contacts", a.rateLimit(20, time.Hour)(a.handleContactCreate))
	mux.HandleFunc("/api/tfsa/records", a.handleTFSARecords)
	mux.HandleFunc("/api/tfsa/records/delete", a.handleTFSARecordDelete)
	mux.HandleFunc("/api/tfsa/room", a.handleTFSAStoredRoom)
	mux.HandleFunc("/api/{calculator}", a.handleCalculate)
	mux.HandleFunc("/export/{calculator}", a.handleExport)

	mux.HandleFunc("/login", a.rateLimit(5, 15*time.Minute)(a.handleLogin))
	mux.HandleFunc("/logout", a.requireAuth(a.requireCSRF(a.handleLogout)))
	mux.HandleFunc("/admin/contacts", a.requireAuth(a.handleAdminContacts))
	mux.HandleFunc("/admin/analytics", a.requireAuth(a.handleAdminAnalytics))
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/contacts", http.StatusSeeOther)
	})
	return mux
}

func main() {
	ratesPath := flag.String("rates", "", "rates YAML file (defaults to RATES_FILE, then the embedded table)")
	seed := flag.String("create-advisor", "", "create an advisor account as email:password and exit")
	flag.Parse()

	env := loadEnvFile()

	path := *ratesPath
	if path == "" {
		path = getEnv("RATES_FILE", env)
	}
	rates, err := LoadRates(path)
	if err != nil {
		log.Fatal(err)
	}

	store, err := openStore(env)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if *seed != "" {
		if err := createAdvisor(context.Background(), store, *seed); err != nil {
			log.Fatal(err)
		}
		log.Printf("Advisor account created")
		return
	}

	app, err := newApp(store, rates, loadOrCreateKey("SESSION_KEY", env), loadOrCreateKey("CSRF_KEY", env))
	if err != nil {
		log.Fatal(err)
	}
	mux := app.routes()

	certFile := getEnv("TLS_CERT_FILE", env)
	keyFile := getEnv("TLS_KEY_FILE", env)
	port := getEnvDefault("PORT", "8100", env)
	bind := getEnvDefault("BIND", "127.0.0.1", env)
	addr := bind + ":" + port

	if certFile != "" && keyFile != "" {
		log.Printf("Starting HTTPS server on %s", addr)
		log.Fatal(http.ListenAndServeTLS(addr, certFile, keyFile, mux))
	} else {
		log.Printf("Starting HTTP server on %s (set TLS_CERT_FILE and TLS_KEY_FILE for HTTPS)", addr)
		log.Fatal(http.ListenAndServe(addr, mux))
	}
}

// openStore picks the backend from STORE: postgres (default) or memory.
func openStore(env map[string]string) (Store, error) {
	switch kind := getEnvDefault("STORE", "postgres", env); kind {
	case "memory":
		log.Printf("Using in-memory store; data is lost on restart")
		return newMemoryStore(), nil
	case "postgres":
		db, err := openDB(env)
		if err != nil {
			return nil, err
		}
		return newPostgresStore(db)
	default:
		return nil, fmt.Errorf("unknown STORE %q", kind)
	}
}

// createAdvisor parses "email:password" and stores a bcrypt-hashed account.
func createAdvisor(ctx context.Context, store Store, account string) error {
	email, password, ok := strings.Cut(account, ":")
	email = strings.TrimSpace(email)
	if !ok || email == "" {
		return errors.New("create-advisor expects email:password")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := store.CreateAdvisor(ctx, email, hash); err != nil {
		return fmt.Errorf("creating advisor %s: %w", email, err)
	}
	return nil
}

func generateSessionKey() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func sign(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// sessionValue is "advisorID:hmac(advisorID)".
func (a *App) sessionValue(advisorID int64) string {
	id := strconv.FormatInt(advisorID, 10)
	return id + ":" + sign(a.sessionKey, id)
}

func (a *App) parseSession(value string) (int64, bool) {
	id, mac, ok := strings.Cut(value, ":")
	if !ok || !hmac.Equal([]byte(mac), []byte(sign(a.sessionKey, id))) {
		return 0, false
	}
	advisorID, err := parseInt64(id)
	if err != nil {
		return 0, false
	}
	return advisorID, true
}

func generateCSRFToken(advisorID int64, csrfKey string, now time.Time) string {
	return sign(csrfKey, fmt.Sprintf("%d:%d", advisorID, now.Unix()/3600))
}

func validateCSRFToken(token string, advisorID int64, csrfKey string, now time.Time) bool {
	// The previous hour's token is still accepted across an hour boundary.
	currentHour := now.Unix() / 3600
	for i := int64(0); i <= 1; i++ {
		expected := sign(csrfKey, fmt.Sprintf("%d:%d", advisorID, currentHour-i))
		if hmac.Equal([]byte(token), []byte(expected)) {
			return true
		}
	}
	return false
}

type contextKey string

const advisorIDKey contextKey = "advisorID"

func (a *App) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		toLogin := "/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
		c, err := r.Cookie("session")
		if err != nil {
			http.Redirect(w, r, toLogin, http.StatusSeeOther)
			return
		}
		advisorID, ok := a.parseSession(c.Value)
		if !ok {
			http.Redirect(w, r, toLogin, http.StatusSeeOther)
			return
		}
		if _, err := a.store.GetAdvisorByID(r.Context(), advisorID); err != nil {
			http.Redirect(w, r, toLogin, http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), advisorIDKey, advisorID)
		next(w, r.WithContext(ctx))
	}
}

func (a *App) requireCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next(w, r)
			return
		}

		advisorID := getAdvisorID(r)
		if advisorID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token := r.FormValue("csrf_token")
		if token == "" {
			token = r.Header.Get("X-CSRF-Token")
		}
		if !validateCSRFToken(token, advisorID, a.csrfKey, a.now()) {
			log.Printf("CSRF validation failed for advisor %d", advisorID)
			http.Error(w, "Invalid security token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (a *App) rateLimit(maxAttempts int, window time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			host := r.RemoteAddr
			if strings.HasPrefix(host, "127.0.0.1:") || strings.HasPrefix(host, "[::1]:") || strings.HasPrefix(host, "localhost:") {
				next(w, r)
				return
			}

			key := r.URL.Path + "|" + host
			now := a.now()

			a.rateLimiterMu.Lock()
			valid := a.rateLimiter[key][:0]
			for _, t := range a.rateLimiter[key] {
				if now.Sub(t) < window {
					valid = append(valid, t)
				}
			}
			if len(valid) >= maxAttempts {
				a.rateLimiter[key] = valid
				a.rateLimiterMu.Unlock()
				log.Printf("Rate limit exceeded for %s", key)
				http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				return
			}
			a.rateLimiter[key] = append(valid, now)
			a.rateLimiterMu.Unlock()

			next(w, r)
		}
	}
}

func getAdvisorID(r *http.Request) int64 {
	advisorID, ok := r.Context().Value(advisorIDKey).(int64)
	if !ok {
		return 0
	}
	return advisorID
}

func (a *App) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := a.tpl.ExecuteTemplate(w, name, data); err != nil {
		// Headers are already out; all that is left is the log.
		log.Printf("template error (%s): %v", name, err)
	}
}

func (a *App) getCSRFToken(r *http.Request) string {
	advisorID := getAdvisorID(r)
	if advisorID == 0 {
		return ""
	}
	return generateCSRFToken(advisorID, a.csrfKey, a.now())
}

func (a *App) setFlash(w http.ResponseWriter, message string, isError bool) {
	flashType := "success"
	if isError {
		flashType = "error"
	}
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: message, Path: "/", MaxAge: 1, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "flash_type", Value: flashType, Path: "/", MaxAge: 1, HttpOnly: true})
}

func (a *App) getFlash(r *http.Request) (string, string) {
	flashCookie, _ := r.Cookie("flash")
	typeCookie, _ := r.Cookie("flash_type")
	if flashCookie == nil {
		return "", ""
	}
	flashType := "success"
	if typeCookie != nil {
		flashType = typeCookie.Value
	}
	return flashCookie.Value, flashType
}
