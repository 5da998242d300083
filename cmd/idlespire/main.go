package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/config"
	"github.com/spirekeep/idlespire/internal/database"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/server"
)

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	catalogFile := flag.String("catalog", "data/catalog.yaml", "Path to item catalog YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	makeAdmin := flag.String("make-admin", "", "Promote an existing account to admin and exit (requires username)")
	flag.Parse()

	serverConfig, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}

	if *makeAdmin != "" {
		handleMakeAdmin(*makeAdmin, serverConfig)
		return
	}

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Always("Starting Idle Spire server")

	cat, err := catalog.Load(*catalogFile)
	if err != nil {
		logger.Error("Failed to load item catalog", "path", *catalogFile, "error", err)
		os.Exit(1)
	}

	db, err := database.Open(database.DialectType(serverConfig.Database.Dialect), serverConfig.Database.Path)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv, err := server.NewServer(serverConfig, db, cat)
	if err != nil {
		logger.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Always("Shutting down server")
	srv.Shutdown()
	logger.Always("Server stopped")
}

// handleMakeAdmin promotes an account to admin and exits.
func handleMakeAdmin(username string, cfg *config.ServerConfig) {
	db, err := database.Open(database.DialectType(cfg.Database.Dialect), cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	account, err := db.GetAccount(username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: account '%s' not found\n", username)
		os.Exit(1)
	}
	if account.IsAdmin {
		fmt.Printf("Account '%s' is already an admin.\n", username)
		return
	}

	if err := db.SetAdmin(username, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to promote account: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Account '%s' has been promoted to admin.\n", username)
}
