package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestLoginAndList(t *testing.T) {
	s := New(Options{Accounts: []Account{{ID: 5, Name: "Ana", Email: "ana@example.com", Password: "x"}}})
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Seed(
		Appointment{DateTime: day, Status: "concluido", PricePaid: "50.00"},
		Appointment{DateTime: day.Add(time.Hour), Status: "concluido", PricePaid: "30.50"},
		Appointment{DateTime: day.Add(2 * time.Hour), Status: "agendado", PricePaid: "20.00"},
		Appointment{DateTime: day.AddDate(0, 0, 1), Status: "concluido", PricePaid: "99.00"},
	)
	h := s.Handler()

	code, body := do(t, h, http.MethodPost, "/dashboard/auth/login/", "", map[string]string{"email": "ANA@example.com", "password": "x"})
	require.Equal(t, http.StatusOK, code)
	access, _ := body["access"].(string)
	require.NotEmpty(t, access)
	assert.NotEmpty(t, body["refresh"])

	code, body = do(t, h, http.MethodGet, "/dashboard/appointments/?date=2026-03-14&status=agendado", access, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["results"], 1)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 2, body["completed_total_count"], "day totals ignore the status filter")
	assert.Equal(t, "80.50", body["completed_total_price"])
	assert.Equal(t, 1, s.Calls(RouteLogin))
	assert.Equal(t, 1, s.Calls(RouteList))
}

func TestListRejectsBadDate(t *testing.T) {
	s := New(Options{})
	access, _, err := s.IssueSession(1)
	require.NoError(t, err)

	code, body := do(t, s.Handler(), http.MethodGet, "/dashboard/appointments/?date=14-03-2026", access, nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Data inválida. Use AAAA-MM-DD.", body["detail"])
}

func TestAuthenticate(t *testing.T) {
	s := New(Options{})
	h := s.Handler()

	code, body := do(t, h, http.MethodGet, "/dashboard/appointments/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Nil(t, body["code"], "no bearer is not the expiry signature")

	access, _, err := s.IssueSession(1)
	require.NoError(t, err)
	s.ExpireAccess()

	code, body = do(t, h, http.MethodGet, "/dashboard/appointments/", access, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token_not_valid", body["code"])
}

func TestRefresh(t *testing.T) {
	s := New(Options{RotateRefresh: true})
	h := s.Handler()
	_, refresh, err := s.IssueSession(1)
	require.NoError(t, err)
	s.ExpireAccess()

	code, body := do(t, h, http.MethodPost, "/dashboard/auth/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, code)
	access, _ := body["access"].(string)
	rotated, _ := body["refresh"].(string)
	require.NotEmpty(t, access)
	assert.NotEqual(t, refresh, rotated)

	code, _ = do(t, h, http.MethodGet, "/dashboard/appointments/", access, nil)
	assert.Equal(t, http.StatusOK, code, "refreshed access is from the current epoch")

	code, body = do(t, h, http.MethodPost, "/dashboard/auth/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, code, "rotated credential is single use")
	assert.Equal(t, "token_not_valid", body["code"])

	s.FailRefresh(true)
	code, _ = do(t, h, http.MethodPost, "/dashboard/auth/refresh/", "", map[string]string{"refresh": rotated})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 3, s.Calls(RouteRefresh))
}

func TestCreate(t *testing.T) {
	s := New(Options{
		Clients:       map[int64]string{7: "Bruno"},
		Professionals: map[int64]string{3: "Marcos"},
		Services:      map[int64]string{1: "Corte"},
	})
	s.Seed(Appointment{ID: 41, DateTime: time.Now(), Status: "agendado", PricePaid: "10.00"})
	access, _, err := s.IssueSession(1)
	require.NoError(t, err)
	h := s.Handler()

	code, body := do(t, h, http.MethodPost, "/dashboard/appointments/", access, map[string]any{
		"client":       7,
		"professional": 3,
		"services":     []int64{1},
		"payment_type": "pix",
		"date_time":    "2026-03-14T10:00:00Z",
		"price_paid":   "60.00",
	})

	require.Equal(t, http.StatusCreated, code)
	assert.EqualValues(t, 42, body["id"])
	assert.Equal(t, "Bruno", body["client_name"])
	assert.Equal(t, "Marcos", body["professional_name"])
	assert.Equal(t, "agendado", body["status"])
	assert.Equal(t, []any{"Corte"}, body["service_names"])

	code, body = do(t, h, http.MethodPost, "/dashboard/appointments/", access, map[string]any{
		"services":   []int64{1},
		"date_time":  "2026-03-14T10:00:00Z",
		"price_paid": "0",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"Valor inválido."}, body["price_paid"])
}
