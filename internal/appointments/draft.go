package appointments

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/five82/backoffice/internal/api"
)

// Draft is an appointment about to be created.
type Draft struct {
	ClientID       int64     `validate:"gt=0"`
	ProfessionalID int64     `validate:"gt=0"`
	ServiceIDs     []int64   `validate:"min=1,dive,gt=0"`
	PaymentType    string    `validate:"omitempty,max=32"`
	ScheduledAt    time.Time // zero means now
	Price          float64   `validate:"gt=0"`
	Status         Status    `validate:"omitempty,oneof=agendado em_andamento concluido"`
}

// createRequest is the wire body of a create call.
type createRequest struct {
	Client       int64   `json:"client"`
	Professional int64   `json:"professional"`
	Services     []int64 `json:"services"`
	PaymentType  string  `json:"payment_type"`
	DateTime     string  `json:"date_time"`
	PricePaid    string  `json:"price_paid"`
	Status       Status  `json:"status"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var fieldMessages = map[string]string{
	"ClientID":       "Selecione um cliente.",
	"ProfessionalID": "Selecione um profissional.",
	"ServiceIDs":     "Selecione ao menos um serviço.",
	"PaymentType":    "Forma de pagamento inválida.",
	"Price":          "Informe um valor maior que zero.",
	"Status":         "Status inválido.",
}

// Validate checks the draft before any network call. Failures are
// api.KindValidation errors carrying a displayable message.
func (d Draft) Validate() error {
	if math.IsInf(d.Price, 0) || math.IsNaN(d.Price) {
		return api.Validation(fieldMessages["Price"])
	}
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return api.Validation(err.Error())
	}
	// dive errors are reported as ServiceIDs[0].
	field, _, _ := strings.Cut(fieldErrs[0].Field(), "[")
	if msg, ok := fieldMessages[field]; ok {
		return api.Validation(msg)
	}
	return api.Validation(fieldErrs[0].Error())
}

func (d Draft) request(now time.Time) createRequest {
	status := d.Status
	if status == "" {
		status = StatusScheduled
	}
	when := d.ScheduledAt
	if when.IsZero() {
		when = now
	}
	return createRequest{
		Client:       d.ClientID,
		Professional: d.ProfessionalID,
		Services:     d.ServiceIDs,
		PaymentType:  d.PaymentType,
		DateTime:     when.Format(time.RFC3339),
		PricePaid:    decimal.NewFromFloat(d.Price).StringFixed(2),
		Status:       status,
	}
}
