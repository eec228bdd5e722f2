package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/logging"
	"github.com/five82/backoffice/internal/state"
)

const listPath = "/dashboard/appointments/"

var (
	// ErrSuperseded is returned by List when its result was discarded because
	// a newer list started or the caller cancelled. It is never shown to the
	// user.
	ErrSuperseded = errors.New("appointments: list superseded")

	// ErrNotLoaded rejects a create before the list finished loading once.
	ErrNotLoaded = api.Validation("A agenda ainda não foi carregada. Aguarde e tente novamente.")
)

// Service lists and creates appointments and keeps the list view consistent.
type Service struct {
	client api.Doer
	view   *state.Store[View]
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	filter Filter
}

// NewService builds a Service. A nil logger discards.
func NewService(client api.Doer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		client: client,
		view:   state.NewStore(cloneView),
		logger: logger,
		now:    time.Now,
	}
}

// Filter returns the filter of the most recent List call.
func (s *Service) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Snapshot returns the current list view.
func (s *Service) Snapshot() state.Snapshot[View] {
	return s.view.Snapshot()
}

// List loads the appointments matching f and replaces the view with them.
// Only the most recent call may change the view; older calls return
// ErrSuperseded. On failure the previous items stay visible and the error is
// recorded in the snapshot.
func (s *Service) List(ctx context.Context, f Filter) (state.Snapshot[View], error) {
	return s.Start(ctx, f)()
}

// Start claims the newest generation for f and returns the load to run. The
// ordering between loads is fixed when Start returns, not when the returned
// function runs, so callers that run loads on other goroutines must call Start
// in the order the filters were chosen.
func (s *Service) Start(ctx context.Context, f Filter) func() (state.Snapshot[View], error) {
	s.mu.Lock()
	s.filter = f
	loadCtx, ticket := s.view.Begin(ctx)
	s.mu.Unlock()

	return func() (state.Snapshot[View], error) {
		return s.load(loadCtx, ticket, f)
	}
}

func (s *Service) load(loadCtx context.Context, ticket state.Ticket, f Filter) (state.Snapshot[View], error) {
	var page Page
	err := s.client.DoJSON(loadCtx, api.Request{
		Method: http.MethodGet,
		Path:   listPath,
		Query:  f.Query(),
	}, &page)

	if err != nil && errors.Is(loadCtx.Err(), context.Canceled) {
		s.view.Abandon(ticket)
		return s.view.Snapshot(), ErrSuperseded
	}

	var next View
	if err == nil {
		next = View{Filter: f, Items: ReplaceAll(page), Summary: Summarize(page)}
	}
	if !s.view.Resolve(ticket, next, err) {
		s.logger.Debug("discarded stale appointment list",
			slog.String("date", f.DateString()),
			slog.String("status", string(f.Status)),
		)
		return s.view.Snapshot(), ErrSuperseded
	}

	snap := s.view.Snapshot()
	if err != nil {
		s.logger.Warn("appointment list failed",
			slog.String("date", f.DateString()),
			slog.String("status", string(f.Status)),
			slog.Any("error", err),
		)
		return snap, fmt.Errorf("list appointments: %w", err)
	}
	if page.Next != nil {
		s.logger.Debug("appointment list has more pages",
			slog.Int("count", snap.Data.Summary.TotalCount),
			slog.Int("returned", len(snap.Data.Items)),
		)
	}
	return snap, nil
}

// Refresh re-lists the current filter.
func (s *Service) Refresh(ctx context.Context) (state.Snapshot[View], error) {
	return s.StartRefresh(ctx)()
}

// StartRefresh is Start for the filter of the most recent list.
func (s *Service) StartRefresh(ctx context.Context) func() (state.Snapshot[View], error) {
	s.mu.Lock()
	f := s.filter
	loadCtx, ticket := s.view.Begin(ctx)
	s.mu.Unlock()

	return func() (state.Snapshot[View], error) {
		return s.load(loadCtx, ticket, f)
	}
}

// Create validates and submits d, then prepends the created appointment to
// the loaded view and bumps its total. The merge is skipped when the view
// switched to another filter while the request was in flight, or when no list
// has succeeded yet. Completed figures wait for the next List.
func (s *Service) Create(ctx context.Context, d Draft) (Appointment, error) {
	before := s.view.Snapshot()
	if !before.HasData && before.LastError == nil {
		return Appointment{}, ErrNotLoaded
	}
	if err := d.Validate(); err != nil {
		return Appointment{}, err
	}

	var created Appointment
	err := s.client.DoJSON(ctx, api.Request{
		Method: http.MethodPost,
		Path:   listPath,
		Body:   d.request(s.now()),
	}, &created)
	if err != nil {
		return Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	merged := false
	s.view.Mutate(func(v View) View {
		if !v.Filter.Equal(before.Data.Filter) {
			return v
		}
		v.Items = ApplyCreated(v.Items, created)
		v.Summary.TotalCount++
		merged = true
		return v
	})
	s.logger.Info("appointment created",
		slog.Int64("id", created.ID),
		slog.String("status", string(created.Status)),
		slog.Bool("merged", merged),
	)
	return created, nil
}
