package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/five82/backoffice/internal/session"
)

const refreshPath = "/dashboard/auth/refresh/"

// Tokens is the outcome of a successful refresh. Refresh is empty when the
// server did not rotate the refresh credential.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Refresher exchanges the refresh credential for a new access credential.
// At most one exchange is in flight per expired access credential; callers
// that detect the same expiry wait for that single outcome.
type Refresher struct {
	client *Client
	store  *session.Store
	logger *slog.Logger
	flight singleflight.Group

	mu       sync.Mutex
	rejected string // refresh credential the server already turned down
}

func newRefresher(c *Client, store *session.Store, logger *slog.Logger) *Refresher {
	return &Refresher{client: c, store: store, logger: logger}
}

// Renew returns an access credential newer than stale, refreshing when the
// store still holds stale. It reports false when no usable credential could
// be obtained; the store is left untouched in that case.
func (r *Refresher) Renew(ctx context.Context, stale string) (string, bool) {
	if current := r.store.Get(); current.Valid() && current.Access != stale {
		return current.Access, true
	}

	v, _, _ := r.flight.Do(stale, func() (any, error) {
		// A previous flight may have finished between the check above and
		// this call.
		current := r.store.Get()
		if !current.Valid() {
			return "", nil
		}
		if current.Access != stale {
			return current.Access, nil
		}
		if r.wasRejected(current.Refresh) {
			return "", nil
		}

		tokens, ok := r.Exchange(context.WithoutCancel(ctx), current.Refresh)
		if !ok {
			r.markRejected(current.Refresh)
			return "", nil
		}
		next := current.Rotate(tokens.Access, tokens.Refresh)
		if !r.store.CompareAndReplace(stale, next) {
			// Logged out or replaced by a login while refreshing.
			latest := r.store.Get()
			if !latest.Valid() {
				return "", nil
			}
			return latest.Access, nil
		}
		r.logger.Info("access credential refreshed",
			slog.String("user_id", next.UserID),
			slog.Bool("rotated", tokens.Refresh != ""),
		)
		return next.Access, nil
	})

	access, _ := v.(string)
	return access, access != ""
}

// Exchange performs the refresh protocol once. Every failure (missing
// credential, transport error, non-2xx, unparseable body, empty access)
// collapses to false.
func (r *Refresher) Exchange(ctx context.Context, refresh string) (Tokens, bool) {
	if strings.TrimSpace(refresh) == "" {
		return Tokens{}, false
	}
	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return Tokens{}, false
	}
	resp, err := r.client.send(ctx, Request{Method: http.MethodPost, Path: refreshPath}, payload, "")
	if err != nil {
		r.logger.Warn("credential refresh failed", slog.String("reason", err.Error()))
		return Tokens{}, false
	}
	var tokens Tokens
	if err := resp.Decode(&tokens); err != nil {
		r.logger.Warn("credential refresh failed", slog.String("reason", err.Error()))
		return Tokens{}, false
	}
	tokens.Access = strings.TrimSpace(tokens.Access)
	tokens.Refresh = strings.TrimSpace(tokens.Refresh)
	if tokens.Access == "" {
		r.logger.Warn("credential refresh failed", slog.String("reason", "response without access credential"))
		return Tokens{}, false
	}
	return tokens, true
}

func (r *Refresher) wasRejected(refresh string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return refresh != "" && refresh == r.rejected
}

func (r *Refresher) markRejected(refresh string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = refresh
}
