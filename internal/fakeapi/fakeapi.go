// Package fakeapi is an in-memory stand-in for the business API. It issues
// short-lived JWT access tokens and answers with the same payload shapes and
// error codes as the real service, so the refresh path can be exercised end
// to end in tests and local demos.
package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Route names used by Calls.
const (
	RouteLogin   = "login"
	RouteRefresh = "refresh"
	RouteList    = "list"
	RouteCreate  = "create"
)

const (
	statusCompleted  = "concluido"
	statusScheduled  = "agendado"
	defaultAccessTTL = 5 * time.Minute
	dateLayout       = "2006-01-02"
)

// Appointment is the server-side wire form of an appointment.
type Appointment struct {
	ID               int64     `json:"id"`
	ClientName       string    `json:"client_name,omitempty"`
	ProfessionalName string    `json:"professional_name,omitempty"`
	DateTime         time.Time `json:"date_time"`
	Status           string    `json:"status"`
	ServiceNames     []string  `json:"service_names"`
	PricePaid        string    `json:"price_paid"`
}

// Account is a login the fake accepts.
type Account struct {
	ID       int64
	Name     string
	Email    string
	Password string
}

// Options configure a Server.
type Options struct {
	Secret         string        // HMAC key for access tokens; random when empty
	AccessTTL      time.Duration // zero uses five minutes
	RotateRefresh  bool          // hand out a new refresh credential on every refresh
	Location       *time.Location
	Accounts       []Account
	Clients        map[int64]string
	Professionals  map[int64]string
	Services       map[int64]string
	Latency        time.Duration
	OmitTotalPrice bool // drop completed_total_price from list responses
}

// Server is the fake API. The zero value is not usable; call New.
type Server struct {
	opts Options
	now  func() time.Time

	mu           sync.Mutex
	secret       []byte
	epoch        int
	refresh      map[string]int64 // refresh credential -> account id
	appointments []Appointment
	nextID       int64
	calls        map[string]int
	failRefresh  bool
}

// New builds a Server.
func New(opts Options) *Server {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	secret := opts.Secret
	if secret == "" {
		secret = uuid.NewString()
	}
	return &Server{
		opts:    opts,
		now:     time.Now,
		secret:  []byte(secret),
		refresh: make(map[string]int64),
		nextID:  1,
		calls:   make(map[string]int),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.latency)
	r.Route("/dashboard", func(r chi.Router) {
		r.Post("/auth/login/", s.handleLogin)
		r.Post("/auth/refresh/", s.handleRefresh)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/appointments/", s.handleList)
			r.Post("/appointments/", s.handleCreate)
		})
	})
	return r
}

// Calls returns how many times route was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// IssueSession mints a credential pair for accountID without a login call.
func (s *Server) IssueSession(accountID int64) (access, refresh string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(accountID)
}

// ExpireAccess invalidates every access token issued so far.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// FailRefresh makes every refresh attempt fail while on is true.
func (s *Server) FailRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = on
}

// Seed stores appointments, assigning ids to those without one.
func (s *Server) Seed(items ...Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if item.ID == 0 {
			item.ID = s.nextID
		}
		if item.ID >= s.nextID {
			s.nextID = item.ID + 1
		}
		s.appointments = append(s.appointments, item)
	}
}

func (s *Server) count(route string) {
	s.mu.Lock()
	s.calls[route]++
	s.mu.Unlock()
}

func (s *Server) latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type accessClaims struct {
	UserID int64 `json:"user_id"`
	Epoch  int   `json:"epoch"`
	jwt.RegisteredClaims
}

func (s *Server) issueLocked(accountID int64) (string, string, error) {
	access, err := s.signLocked(accountID)
	if err != nil {
		return "", "", err
	}
	refresh := uuid.NewString()
	s.refresh[refresh] = accountID
	return access, refresh, nil
}

func (s *Server) signLocked(accountID int64) (string, error) {
	now := s.now()
	claims := accessClaims{
		UserID: accountID,
		Epoch:  s.epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

var errStaleEpoch = errors.New("token from a previous epoch")

func (s *Server) verify(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()
	if claims.Epoch != epoch {
		return nil, errStaleEpoch
	}
	return claims, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		if _, err := s.verify(strings.TrimPrefix(header, "Bearer ")); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count(RouteLogin)
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON inválido."})
		return
	}
	for _, acct := range s.opts.Accounts {
		if strings.EqualFold(acct.Email, body.Email) && acct.Password == body.Password {
			s.mu.Lock()
			access, refresh, err := s.issueLocked(acct.ID)
			s.mu.Unlock()
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "erro interno"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access":  access,
				"refresh": refresh,
				"user":    map[string]any{"id": acct.ID, "name": acct.Name, "email": acct.Email},
			})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"detail": "Nenhuma conta ativa encontrada com as credenciais fornecidas.",
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.count(RouteRefresh)
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"refresh": []string{"Este campo é obrigatório."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	accountID, ok := s.refresh[body.Refresh]
	if !ok || s.failRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	access, err := s.signLocked(accountID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "erro interno"})
		return
	}
	resp := map[string]string{"access": access}
	if s.opts.RotateRefresh {
		delete(s.refresh, body.Refresh)
		rotated := uuid.NewString()
		s.refresh[rotated] = accountID
		resp["refresh"] = rotated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.count(RouteList)
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Data inválida. Use AAAA-MM-DD."})
			return
		}
	}

	s.mu.Lock()
	results := make([]Appointment, 0, len(s.appointments))
	completedCount := 0
	completedTotal := decimal.Zero
	for _, a := range s.appointments {
		if date != "" && a.DateTime.In(s.opts.Location).Format(dateLayout) != date {
			continue
		}
		if a.Status == statusCompleted {
			completedCount++
			if price, err := decimal.NewFromString(a.PricePaid); err == nil {
				completedTotal = completedTotal.Add(price)
			}
		}
		if status != "" && a.Status != status {
			continue
		}
		results = append(results, a)
	}
	s.mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DateTime.Before(results[j].DateTime)
	})
	resp := map[string]any{
		"results":               results,
		"count":                 len(results),
		"completed_total_count": completedCount,
		"next":                  nil,
		"previous":              nil,
	}
	if !s.opts.OmitTotalPrice {
		resp["completed_total_price"] = completedTotal.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, resp)
}

type createRequest struct {
	Client       int64   `json:"client"`
	Professional int64   `json:"professional"`
	Services     []int64 `json:"services"`
	PaymentType  string  `json:"payment_type"`
	DateTime     string  `json:"date_time"`
	PricePaid    string  `json:"price_paid"`
	Status       string  `json:"status"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.count(RouteCreate)
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON inválido."})
		return
	}
	when, err := time.Parse(time.RFC3339, body.DateTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"date_time": []string{"Formato de data inválido."}})
		return
	}
	price, err := decimal.NewFromString(body.PricePaid)
	if err != nil || !price.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]any{"price_paid": []string{"Valor inválido."}})
		return
	}
	if len(body.Services) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"services": []string{"Informe ao menos um serviço."}})
		return
	}
	status := body.Status
	if status == "" {
		status = statusScheduled
	}

	names := make([]string, 0, len(body.Services))
	for _, id := range body.Services {
		names = append(names, lookup(s.opts.Services, id, "Serviço"))
	}

	s.mu.Lock()
	created := Appointment{
		ID:               s.nextID,
		ClientName:       lookup(s.opts.Clients, body.Client, "Cliente"),
		ProfessionalName: lookup(s.opts.Professionals, body.Professional, "Profissional"),
		DateTime:         when,
		Status:           status,
		ServiceNames:     names,
		PricePaid:        price.StringFixed(2),
	}
	s.nextID++
	s.appointments = append(s.appointments, created)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, created)
}

func lookup(names map[int64]string, id int64, fallback string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("%s %d", fallback, id)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
