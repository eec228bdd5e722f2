package ui

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"50", "R$ 50,00"},
		{"1234.5", "R$ 1.234,50"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-80", "-R$ 80,00"},
	}
	for _, tt := range tests {
		if got := formatBRL(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Fatalf("formatBRL(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		limit int
		want  string
	}{
		{"Maria", 10, "Maria"},
		{"  Maria  ", 10, "Maria"},
		{"Corte e barba", 8, "Corte..."},
		{"Ação", 3, "Açã"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.value, tt.limit); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.value, tt.limit, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ação", 6); got != "ação  " {
		t.Fatalf("padRight = %q, want %q", got, "ação  ")
	}
	if got := padRight("longo", 3); got != "longo" {
		t.Fatalf("padRight = %q, want %q", got, "longo")
	}
}

func TestOrDash(t *testing.T) {
	if got := orDash(" "); got != "-" {
		t.Fatalf("orDash(blank) = %q, want -", got)
	}
	if got := orDash("Ana"); got != "Ana" {
		t.Fatalf("orDash(Ana) = %q, want Ana", got)
	}
}
