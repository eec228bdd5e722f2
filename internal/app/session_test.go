package app

import (
	"errors"
	"testing"
	"time"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/logging"
	"github.com/five82/backoffice/internal/session"
)

func TestSessionOwner_LogsOutOnlyOnExpiry(t *testing.T) {
	store := &session.Store{}
	client, err := api.NewClient(api.Options{BaseURL: "http://localhost:1", Store: store, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	owner := NewSessionOwner(client, logging.Discard())
	store.Replace(session.New("a", "r", "1"))

	if owner.Observe(api.RequestFailed(500, "boom")) {
		t.Fatal("Observe(request error) = true, want false")
	}
	if owner.Observe(errors.New("other")) {
		t.Fatal("Observe(plain error) = true, want false")
	}
	if !store.Get().Valid() {
		t.Fatal("session cleared on a non-expiry error")
	}

	if !owner.Observe(&api.Error{Kind: api.KindRequest, Status: 401, Expired: true}) {
		t.Fatal("Observe(expired) = false, want true")
	}
	if store.Get().Valid() {
		t.Fatal("session still valid after expiry")
	}
	if !owner.Observe(api.Unauthenticated()) {
		t.Fatal("Observe(unauthenticated) = false, want true")
	}
}
