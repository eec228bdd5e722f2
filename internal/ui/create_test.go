package ui

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/appointments"
)

func filledForm(values map[int]string) createForm {
	f := newCreateForm()
	for field, v := range values {
		f.inputs[field].SetValue(v)
	}
	return f
}

func TestCreateFormDraft(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	f := filledForm(map[int]string{
		fieldClient:       "7",
		fieldProfessional: "3",
		fieldServices:     "1, 4",
		fieldTime:         "09:30",
		fieldPrice:        "1.234,50",
		fieldPayment:      "pix",
	})

	d, err := f.draft(day)
	if err != nil {
		t.Fatalf("draft() error = %v", err)
	}
	if d.ClientID != 7 || d.ProfessionalID != 3 {
		t.Fatalf("ids = %d/%d, want 7/3", d.ClientID, d.ProfessionalID)
	}
	if len(d.ServiceIDs) != 2 || d.ServiceIDs[0] != 1 || d.ServiceIDs[1] != 4 {
		t.Fatalf("ServiceIDs = %v, want [1 4]", d.ServiceIDs)
	}
	if want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC); !d.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", d.ScheduledAt, want)
	}
	if d.Price != 1234.5 {
		t.Fatalf("Price = %v, want 1234.5", d.Price)
	}
	if d.PaymentType != "pix" || d.Status != "" {
		t.Fatalf("PaymentType/Status = %q/%q", d.PaymentType, d.Status)
	}
}

func TestCreateFormDraft_BlankTimeMeansNow(t *testing.T) {
	f := filledForm(map[int]string{
		fieldClient:       "1",
		fieldProfessional: "1",
		fieldServices:     "1",
		fieldPrice:        "50",
	})
	d, err := f.draft(time.Now())
	if err != nil {
		t.Fatalf("draft() error = %v", err)
	}
	if !d.ScheduledAt.IsZero() {
		t.Fatalf("ScheduledAt = %v, want zero", d.ScheduledAt)
	}
}

func TestCreateFormDraft_Errors(t *testing.T) {
	valid := map[int]string{
		fieldClient:       "1",
		fieldProfessional: "2",
		fieldServices:     "3",
		fieldPrice:        "50",
	}
	tests := []struct {
		name  string
		field int
		value string
		want  string
	}{
		{"client not a number", fieldClient, "ana", "Selecione um cliente."},
		{"professional missing", fieldProfessional, "", "Selecione um profissional."},
		{"no services", fieldServices, " , ", "Selecione ao menos um serviço."},
		{"bad service id", fieldServices, "1,x", "Selecione ao menos um serviço."},
		{"price text", fieldPrice, "cinquenta", "Informe um valor maior que zero."},
		{"price zero", fieldPrice, "0", "Informe um valor maior que zero."},
		{"bad time", fieldTime, "9h", "Horário inválido. Use HH:MM."},
		{"bad status", fieldStatus, "cancelado", "Status inválido."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[int]string{}
			for k, v := range valid {
				values[k] = v
			}
			values[tt.field] = tt.value

			_, err := filledForm(values).draft(time.Now())
			if !errors.Is(err, api.ErrValidation) {
				t.Fatalf("draft() error = %v, want validation error", err)
			}
			if got := api.UserMessage(err); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := map[string]float64{
		"50":       50,
		"50.5":     50.5,
		"50,50":    50.5,
		"1.200,00": 1200,
		"":         0,
	}
	for in, want := range tests {
		if got := parsePrice(in); got != want {
			t.Fatalf("parsePrice(%q) = %v, want %v", in, got, want)
		}
	}
	if got := parsePrice("abc"); !math.IsNaN(got) {
		t.Fatalf("parsePrice(abc) = %v, want NaN", got)
	}
}

func TestCreateFormStatusAccepted(t *testing.T) {
	f := filledForm(map[int]string{
		fieldClient:       "1",
		fieldProfessional: "2",
		fieldServices:     "3",
		fieldPrice:        "50",
		fieldStatus:       "concluido",
	})
	d, err := f.draft(time.Now())
	if err != nil {
		t.Fatalf("draft() error = %v", err)
	}
	if d.Status != appointments.StatusCompleted {
		t.Fatalf("Status = %q, want %q", d.Status, appointments.StatusCompleted)
	}
}
