package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"pschat/client"
	"pschat/internal"
	"pschat/settings"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pschat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store := settings.NewStore(db, logger)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Session wiring
	session, err := client.New(ctx, logger, config, store, nil, nil, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("session setup failed: %w", err)
	}
	defer func() {
		logger.Info("Closing session...")
		_ = session.Close()
	}()

	session.Subscribe(newConsolePrinter(logger))

	// 5. Connect & background reporters
	if err := session.Connect(ctx); err != nil {
		return exitRuntime, fmt.Errorf("connect failed: %w", err)
	}
	go func() {
		_ = session.Stats().Run(ctx)
	}()

	logger.Info("Session running", "server", config.ServerURL)
	<-ctx.Done()

	printRoomTable(session)
	return exitOK, nil
}
