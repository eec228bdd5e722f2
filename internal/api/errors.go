package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures surfaced to callers.
type Kind int

const (
	// KindUnauthenticated means no session was present; the caller must log in.
	KindUnauthenticated Kind = iota + 1
	// KindRequest means the server rejected the call.
	KindRequest
	// KindValidation means a client-side precondition failed before any network call.
	KindValidation
	// KindNetwork means no response was received at all.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRequest:
		return "request"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRequest         = errors.New("request rejected")
	ErrValidation      = errors.New("invalid input")
	ErrNetwork         = errors.New("network failure")

	errResponseTooLarge = errors.New("response body too large")
)

const (
	expiredTokenCode       = "token_not_valid"
	genericRequestMessage  = "request failed"
	maxBodyBytes           = 8 << 20 // any response body, success or error
	malformedBodyMessage   = "Resposta inválida do servidor."
	unauthenticatedMessage = "no active session"
)

// Error is the typed failure returned by the access layer.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status for KindRequest, zero otherwise
	Message string // user-presentable detail
	// Expired is set when the response carried the expired-credential
	// signature. Seeing it on a returned error means the refresh did not help
	// and the session owner should log the user out.
	Expired bool
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrRequest:
		return e.Kind == KindRequest
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// Unauthenticated reports the missing-session condition.
func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: unauthenticatedMessage}
}

// Validation reports a client-side precondition failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Network wraps a transport failure.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// RequestFailed builds a KindRequest error.
func RequestFailed(status int, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = genericRequestMessage
	}
	return &Error{Kind: KindRequest, Status: status, Message: message}
}

// malformedResponse is a 2xx answer the client could not use: too large or
// not decodable.
func malformedResponse(status int, err error) *Error {
	return &Error{Kind: KindRequest, Status: status, Message: malformedBodyMessage, Err: err}
}

// SessionExpired reports whether err means the credentials could not be renewed.
func SessionExpired(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == KindUnauthenticated || apiErr.Expired
}

type errorBody struct {
	Code    string          `json:"code"`
	Detail  json.RawMessage `json:"detail"`
	Message json.RawMessage `json:"message"`
}

// classify turns a non-2xx response into an *Error. authorized tells whether
// the outgoing request carried a bearer credential; only then can the response
// be an expiry.
func classify(status int, body []byte, authorized bool) *Error {
	var parsed errorBody
	decoded := json.Unmarshal(body, &parsed) == nil

	apiErr := RequestFailed(status, firstString(parsed.Detail, parsed.Message))
	apiErr.Expired = authorized && decoded && parsed.Code == expiredTokenCode
	return apiErr
}

// firstString returns the first raw value that decodes to a non-empty string.
// DRF sometimes sends detail as a list or object; those fall through.
func firstString(values ...json.RawMessage) string {
	for _, raw := range values {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// UserMessage maps any error to a short, localized message for inline display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return "O servidor demorou para responder."
		}
		return "Algo deu errado. Tente novamente."
	}
	switch apiErr.Kind {
	case KindUnauthenticated:
		return "Sessão encerrada. Faça login novamente."
	case KindValidation:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Verifique os dados informados."
	case KindNetwork:
		return "Não foi possível conectar ao servidor."
	case KindRequest:
		if apiErr.Expired {
			return "Sessão expirada. Faça login novamente."
		}
		if apiErr.Message != "" && apiErr.Message != genericRequestMessage {
			return apiErr.Message
		}
		if apiErr.Status >= http.StatusInternalServerError {
			return "O servidor encontrou um erro. Tente novamente."
		}
		return "Não foi possível concluir a operação."
	}
	return "Algo deu errado. Tente novamente."
}
