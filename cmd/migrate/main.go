// Command migrate applies the GORM schema for the thread tables.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.Setup(os.Stdout, cfg.LogLevel)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	if err := bootstrap.EnsureSystemActor(ctx, db); err != nil {
		return fmt.Errorf("ensure system actor: %w", err)
	}
	log.Println("automigrations applied")
	return nil
}
