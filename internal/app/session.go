package app

import (
	"log/slog"

	"github.com/five82/backoffice/internal/api"
)

// SessionOwner decides when the session ends. The access layer only reports
// that credentials could not be renewed; logging out is done here.
type SessionOwner struct {
	client *api.Client
	logger *slog.Logger
}

// NewSessionOwner builds a SessionOwner for client.
func NewSessionOwner(client *api.Client, logger *slog.Logger) *SessionOwner {
	return &SessionOwner{client: client, logger: logger}
}

// Observe logs the user out when err means the session can no longer be
// used, and reports whether it did.
func (o *SessionOwner) Observe(err error) bool {
	if !api.SessionExpired(err) {
		return false
	}
	if o.client.Store().Get().Valid() {
		o.logger.Warn("session expired, logging out", slog.Any("error", err))
		o.client.Logout()
	}
	return true
}
