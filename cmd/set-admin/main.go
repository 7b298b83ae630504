// Command set-admin grants or revokes the admin flag of a registered user.
// Admins are never created through the public registration endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/soaringjerry/Pulse/internal/config"
	"github.com/soaringjerry/Pulse/internal/db"
	"github.com/soaringjerry/Pulse/internal/logger"
)

func main() {
	email := flag.String("email", "", "email of the user to change")
	revoke := flag.Bool("revoke", false, "remove the admin flag instead of granting it")
	flag.Parse()
	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Bootstrap(ctx, cfg.Database.MigrationsDir, cfg.Database.Seed); err != nil {
		log.Fatal("failed to prepare schema", "error", err)
	}
	if err := store.SetAdmin(ctx, *email, !*revoke); err != nil {
		log.Fatal("failed to update user", "email", *email, "error", err)
	}
	log.Info("admin flag updated", "email", *email, "admin", !*revoke)
}
