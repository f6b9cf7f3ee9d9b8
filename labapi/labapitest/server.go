// Package labapitest runs an in-memory stand-in for the laboratory API. It enforces the same
// cookie session and anti-forgery checks as the real service, and records every request.
package labapitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"environovalab/labapi"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const sessionCookieName = "sessionid"

type Request struct {
	Method string
	Path   string
	Token  string
}

type Account struct {
	Id       labapi.ObjectId
	Username string
	Email    string
	Password string
	IsAdmin  bool
	Active   bool
}

type override struct {
	status int
	body   string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	requests    []Request
	overrides   map[string][]override
	issueTokens bool
	nextId      int
	nextNumber  int
	tokens      map[string]bool
	sessions    map[string]string
	resetTokens map[string]string
	accounts    []*Account
	sampleTypes []labapi.SampleType
	clients     []labapi.LabClient
	proformas   []*labapi.Proforma
	informes    []labapi.Informe
	settings    labapi.CompanySettings
}

// New starts a server that is closed when the test ends
func New(t testing.TB) *Server {
	s := &Server{
		overrides:   make(map[string][]override),
		issueTokens: true,
		nextNumber:  1,
		tokens:      make(map[string]bool),
		sessions:    make(map[string]string),
		resetTokens: make(map[string]string),
		settings: labapi.CompanySettings{
			Id:      "settings",
			Name:    "ENVIRONOVALAB",
			Address: "Dirección por defecto",
			Phone:   "000-000-0000",
			Email:   "info@environovalab.com",
			Ruc:     "0000000000000",
		},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) AddAccount(username, password string, isAdmin bool) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := &Account{
		Id:       s.newId(),
		Username: username,
		Email:    username + "@environovalab.com",
		Password: password,
		IsAdmin:  isAdmin,
		Active:   true,
	}
	s.accounts = append(s.accounts, account)
	return account
}

func (s *Server) Account(username string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account := s.findAccount(username); account != nil {
		return *account
	}
	return Account{}
}

func (s *Server) AddSampleType(sampleType labapi.SampleType) labapi.SampleType {
	s.mu.Lock()
	defer s.mu.Unlock()
	sampleType.Id = s.newId()
	s.sampleTypes = append(s.sampleTypes, sampleType)
	return sampleType
}

func (s *Server) SampleTypes() []labapi.SampleType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]labapi.SampleType{}, s.sampleTypes...)
}

func (s *Server) AddLabClient(client labapi.LabClient) labapi.LabClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	client.Id = s.newId()
	s.clients = append(s.clients, client)
	return client
}

func (s *Server) Proformas() []labapi.Proforma {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []labapi.Proforma
	for _, proforma := range s.proformas {
		copied := *proforma
		copied.Analyses = append([]labapi.Analysis{}, proforma.Analyses...)
		result = append(result, copied)
	}
	return result
}

func (s *Server) Informes() []labapi.Informe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]labapi.Informe{}, s.informes...)
}

// ResetToken is what the emailed link would carry for this address
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, username := range s.resetTokens {
		if account := s.findAccount(username); account != nil && account.Email == email {
			return token
		}
	}
	return ""
}

// SetIssueTokens controls whether /api/csrf/ sets the csrftoken cookie
func (s *Server) SetIssueTokens(issue bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issueTokens = issue
}

// Override makes the next request to method+path answer with status and a raw body, without
// touching any state
func (s *Server) Override(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.overrides[key] = append(s.overrides[key], override{status: status, body: body})
}

// ExpireSessions drops every login, as a server restart would
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.requests...)
}

// Mutations are the recorded requests other than GETs
func (s *Server) Mutations() []Request {
	var result []Request
	for _, request := range s.Requests() {
		if request.Method != http.MethodGet {
			result = append(result, request)
		}
	}
	return result
}

func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.applyOverrides)

	r.Get("/api/csrf/", s.csrf)
	r.Group(func(r chi.Router) {
		r.Use(s.checkToken)
		r.Post("/api/login/", s.login)
		r.Post("/api/logout/", s.logout)
		r.Post("/api/register/", s.register)
		r.Post("/api/auth/forgot-password/", s.forgotPassword)
		r.Post("/api/auth/reset-password/{token}/", s.resetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.checkToken)
		r.Use(s.requireSession)

		r.Get("/api/settings/current/", s.currentSettings)

		r.Get("/api/tipos-muestra/", s.listSampleTypes)
		r.Get("/api/tipos-muestra/search/", s.searchSampleTypes)
		r.Post("/api/tipos-muestra/", s.createSampleType)
		r.Get("/api/tipos-muestra/{id}/", s.getSampleType)
		r.Put("/api/tipos-muestra/{id}/", s.updateSampleType)
		r.Delete("/api/tipos-muestra/{id}/", s.deleteSampleType)

		r.Get("/api/clients/", s.listClients)
		r.Get("/api/clients/search/", s.searchClients)
		r.Post("/api/clients/", s.createClient)

		r.Get("/api/analysis/", s.listAnalyses)
		r.Post("/api/analysis/reorder/", s.reorderAnalyses)

		r.Get("/api/proformas/", s.listProformas)
		r.Post("/api/proformas/", s.createProforma)
		r.Get("/api/proformas/{id}/", s.getProforma)
		r.Post("/api/proformas/{id}/add_analysis/", s.addAnalysis)
		r.Delete("/api/proformas/{id}/remove_analysis/", s.removeAnalysis)
		r.Get("/api/proformas/{id}/informe/", s.informeData)
		r.Get("/api/proformas/{id}/pdf/", s.proformaPdf)
		r.Get("/api/proformas/{id}/informe_pdf/", s.proformaPdf)

		r.Get("/api/informes/", s.listInformes)
		r.Post("/api/informes/", s.createInforme)
		r.Get("/api/informes/{id}/resultados/", s.informeResults)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/api/auth/admin/users/", s.listUsers)
			r.Post("/api/auth/admin/users/", s.createUser)
			r.Post("/api/auth/admin/users/{id}/update_role/", s.updateRole)
			r.Post("/api/auth/admin/users/{id}/toggle_active/", s.toggleActive)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Token:  r.Header.Get(labapi.CSRFHeaderName),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) applyOverrides(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		pending := s.overrides[key]
		var current *override
		if len(pending) > 0 {
			current = &pending[0]
			s.overrides[key] = pending[1:]
		}
		s.mu.Unlock()

		if current == nil {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(current.status)
		_, _ = w.Write([]byte(current.body))
	})
}

func (s *Server) csrf(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	issue := s.issueTokens
	var token string
	if issue {
		if cookie, err := r.Cookie(labapi.CSRFCookieName); err == nil && s.tokens[cookie.Value] {
			token = cookie.Value
		} else {
			token = fmt.Sprintf("token-%s", s.newId())
			s.tokens[token] = true
		}
	}
	s.mu.Unlock()

	if issue {
		http.SetCookie(w, &http.Cookie{Name: labapi.CSRFCookieName, Value: token, Path: "/"})
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "CSRF cookie set"})
}

func (s *Server) checkToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(labapi.CSRFCookieName)
		header := r.Header.Get(labapi.CSRFHeaderName)
		s.mu.Lock()
		known := err == nil && s.tokens[cookie.Value]
		s.mu.Unlock()
		if !known || header != cookie.Value {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"detail": "CSRF Failed: CSRF token missing or incorrect.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUsername(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[cookie.Value]
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUsername(r) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := s.currentUsername(r)
		s.mu.Lock()
		account := s.findAccount(username)
		isAdmin := account != nil && account.IsAdmin
		s.mu.Unlock()
		if !isAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Acceso denegado"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Callers hold s.mu
func (s *Server) newId() labapi.ObjectId {
	s.nextId++
	return labapi.ObjectId(fmt.Sprint(s.nextId))
}

// Callers hold s.mu
func (s *Server) findAccount(username string) *Account {
	for _, account := range s.accounts {
		if account.Username == username {
			return account
		}
	}
	return nil
}

func readJSON(r *http.Request, out any) bool {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out) == nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
