package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/server"
)

func main() {
	// Parse flags
	envFile := flag.String("env", ".env", "Environment file to load before reading config")
	port := flag.String("port", "", "Server port (overrides PORT)")
	dev := flag.Bool("dev", false, "Development mode (console logs, debug level)")
	shutdownTimeout := flag.Duration("shutdown-timeout", 2*time.Minute, "Time allowed for in-flight scans on shutdown")
	flag.Parse()

	if err := config.LoadEnvFiles(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	log.Println("🛡️  PhishGuard Sandbox - Go Service")

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("🛑 Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
