package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/five82/backoffice/internal/session"
)

const (
	loginPath     = "/dashboard/auth/login/"
	loginInterval = 2 * time.Second
	loginBurst    = 3
)

// User is the operator profile returned by the login exchange.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ID accepts numeric and string identifiers alike.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

// Login exchanges email and password for a credential pair and installs it as
// the active session. The identity flow itself is owned by the API.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.Session{}, Validation("Informe e-mail e senha.")
	}
	if !c.logins.Allow() {
		return session.Session{}, Validation("Muitas tentativas de login. Aguarde alguns segundos.")
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return session.Session{}, fmt.Errorf("encode login: %w", err)
	}
	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: loginPath}, payload, "")
	if err != nil {
		return session.Session{}, err
	}
	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return session.Session{}, err
	}
	if strings.TrimSpace(body.Access) == "" {
		return session.Session{}, RequestFailed(resp.Status, "login response without access credential")
	}

	userID := ""
	if body.User != nil {
		userID = string(body.User.ID)
	}
	next := session.New(body.Access, body.Refresh, userID)
	c.store.Replace(next)
	c.logger.Info("logged in", slog.String("user_id", next.UserID))
	return next, nil
}

// Logout drops the active session.
func (c *Client) Logout() {
	prev := c.store.Get()
	c.store.Clear()
	if prev.Valid() {
		c.logger.Info("logged out", slog.String("user_id", prev.UserID))
	}
}
