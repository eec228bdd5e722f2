// Command backoffice-mock serves the in-memory API on a local port so the
// dashboard can be tried without the real service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/five82/backoffice/internal/fakeapi"
	"github.com/five82/backoffice/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:8000", "listen address")
	ttl := flag.Duration("access-ttl", time.Minute, "access token lifetime")
	latency := flag.Duration("latency", 0, "artificial delay added to every response")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.NewWithWriter(os.Getenv("BACKOFFICE_LOG_LEVEL"), os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fake := fakeapi.New(fakeapi.Options{
		Secret:        os.Getenv("BACKOFFICE_MOCK_SECRET"),
		AccessTTL:     *ttl,
		RotateRefresh: true,
		Location:      time.Local,
		Latency:       *latency,
		Accounts: []fakeapi.Account{
			{ID: 1, Name: "Demo", Email: "demo@backoffice.local", Password: "demo"},
		},
		Clients:       map[int64]string{1: "Ana Souza", 2: "Bruno Lima", 3: "Carla Dias"},
		Professionals: map[int64]string{1: "Marcos", 2: "Juliana"},
		Services:      map[int64]string{1: "Corte", 2: "Barba", 3: "Escova", 4: "Manicure"},
	})
	fake.Seed(demoAppointments(time.Now())...)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fake.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock api listening",
		slog.String("addr", *addr),
		slog.String("login", "demo@backoffice.local / demo"),
		slog.Duration("access_ttl", *ttl),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "backoffice-mock: %v\n", err)
		return 1
	}
	return 0
}

func demoAppointments(now time.Time) []fakeapi.Appointment {
	y, m, d := now.Date()
	at := func(dayOffset, hour, minute int) time.Time {
		return time.Date(y, m, d+dayOffset, hour, minute, 0, 0, time.Local)
	}
	return []fakeapi.Appointment{
		{ClientName: "Ana Souza", ProfessionalName: "Marcos", DateTime: at(0, 9, 0), Status: "concluido", ServiceNames: []string{"Corte"}, PricePaid: "50.00"},
		{ClientName: "Bruno Lima", ProfessionalName: "Marcos", DateTime: at(0, 10, 30), Status: "concluido", ServiceNames: []string{"Corte", "Barba"}, PricePaid: "80.00"},
		{ClientName: "Carla Dias", ProfessionalName: "Juliana", DateTime: at(0, 14, 0), Status: "em_andamento", ServiceNames: []string{"Escova"}, PricePaid: "120.00"},
		{ClientName: "Ana Souza", ProfessionalName: "Juliana", DateTime: at(0, 16, 0), Status: "agendado", ServiceNames: []string{"Manicure"}, PricePaid: "45.00"},
		{ClientName: "Bruno Lima", ProfessionalName: "Marcos", DateTime: at(1, 9, 30), Status: "agendado", ServiceNames: []string{"Barba"}, PricePaid: "35.00"},
		{ClientName: "Carla Dias", ProfessionalName: "Marcos", DateTime: at(-1, 11, 0), Status: "concluido", ServiceNames: []string{"Corte"}, PricePaid: "50.00"},
	}
}
