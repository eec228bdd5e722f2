package appointments

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/backoffice/internal/api"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
		want   string
	}{
		{"valid", func(*Draft) {}, ""},
		{"zero client", func(d *Draft) { d.ClientID = 0 }, "Selecione um cliente."},
		{"negative professional", func(d *Draft) { d.ProfessionalID = -2 }, "Selecione um profissional."},
		{"no services", func(d *Draft) { d.ServiceIDs = nil }, "Selecione ao menos um serviço."},
		{"zero service", func(d *Draft) { d.ServiceIDs = []int64{3, 0} }, "Selecione ao menos um serviço."},
		{"zero price", func(d *Draft) { d.Price = 0 }, "Informe um valor maior que zero."},
		{"negative price", func(d *Draft) { d.Price = -1 }, "Informe um valor maior que zero."},
		{"infinite price", func(d *Draft) { d.Price = math.Inf(1) }, "Informe um valor maior que zero."},
		{"nan price", func(d *Draft) { d.Price = math.NaN() }, "Informe um valor maior que zero."},
		{"unknown status", func(d *Draft) { d.Status = "cancelado" }, "Status inválido."},
		{"explicit status", func(d *Draft) { d.Status = StatusCompleted }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()

			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *api.Error
			require.True(t, errors.As(err, &apiErr), "err = %v", err)
			assert.Equal(t, api.KindValidation, apiErr.Kind)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestDraftRequest_Defaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	d := Draft{ClientID: 1, ProfessionalID: 2, ServiceIDs: []int64{3}, Price: 19.999}

	req := d.request(now)

	assert.Equal(t, StatusScheduled, req.Status)
	assert.Equal(t, "2024-05-01T08:30:00Z", req.DateTime)
	assert.Equal(t, "20.00", req.PricePaid)
}
