/*
main.go - Interactive flight reservation console

PURPOSE:
  Opens the reservation store, optionally resets it and loads a flight
  dataset, then runs the console on stdin/stdout until quit or EOF.

STARTUP SEQUENCE:
  1. Load config (.env, environment)
  2. Parse command-line flags (override config)
  3. Open store and migrate schema
  4. Optional: clear customers and reservations (-reset)
  5. Optional: import flights from CSV (-flights)
  6. Run console with graceful shutdown

COMMAND-LINE FLAGS:
  -driver   Database driver: sqlite3 or pgx (default: FLIGHTS_DB_DRIVER or sqlite3)
  -db       Database DSN or SQLite path (default: FLIGHTS_DB_DSN or flights.db)
            Use ":memory:" for an in-memory database
  -flights  CSV file of flights to import before starting
  -reset    Delete all customers and reservations before starting
  -env      Logging environment (default: APP_ENV or development)

ENVIRONMENT:
  APP_ENV, FLIGHTS_DB_DRIVER, FLIGHTS_DB_DSN, FLIGHTS_RETRY_ATTEMPTS.
  A .env file in the working directory is read if present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the console stops and the database is closed once
  the command in flight, if any, returns. Its context is canceled, so an
  open transaction is rolled back.

EXAMPLES:
  # Fresh in-memory session with a dataset
  ./flights -db=":memory:" -flights=./flights.csv

  # PostgreSQL
  ./flights -driver=pgx -db="postgres://app@localhost/flights"

SEE ALSO:
  - console/console.go: Command syntax
  - store/sqlstore/sqlstore.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/flight-engine/config"
	"github.com/warp/flight-engine/console"
	"github.com/warp/flight-engine/flight"
	"github.com/warp/flight-engine/logger"
	"github.com/warp/flight-engine/store/sqlstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flights: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags
	driver := flag.String("driver", cfg.Database.Driver, "Database driver (sqlite3, pgx)")
	dsn := flag.String("db", cfg.Database.DSN, "Database DSN or SQLite path")
	flightsCSV := flag.String("flights", "", "CSV file of flights to import")
	reset := flag.Bool("reset", false, "Delete all customers and reservations first")
	env := flag.String("env", cfg.AppEnv, "Logging environment")
	flag.Parse()

	log := logger.NewZeroLog(*env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, err := sqlstore.Open(*driver, *dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()
	log.Info("database ready", logger.F("driver", *driver))

	if *reset {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		log.Info("database reset")
	}

	if *flightsCSV != "" {
		n, err := importFlights(ctx, store, *flightsCSV)
		if err != nil {
			return fmt.Errorf("failed to import flights: %w", err)
		}
		log.Info("flights imported", logger.F("count", n), logger.F("file", *flightsCSV))
	}

	engine := flight.New(store, flight.WithLogger(log))
	con := console.New(engine, os.Stdout,
		console.WithLogger(log),
		console.WithRetryAttempts(cfg.RetryAttempts),
	)

	done := make(chan error, 1)
	go func() { done <- con.Run(ctx, os.Stdin) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		con.Shutdown()
		return nil
	}
}

func importFlights(ctx context.Context, store *sqlstore.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	flights, err := flight.ReadFlightsCSV(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := store.InsertFlights(ctx, flights...); err != nil {
		return 0, err
	}
	return len(flights), nil
}
