// Command migrate applies the embedded SQL migrations to the configured
// Postgres database. Run with no arguments to migrate up; run
// "migrate force <version>" to clear a dirty state after a failed run.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	appmigrations "github.com/cuido-app/care-assistant/migrations"
)

func main() {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("migrate: DATABASE_URL must be set")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatalf("migrate: open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("migrate: database unreachable: %v", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("migrate: postgres driver: %v", err)
	}

	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		log.Fatalf("migrate: embedded source: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		log.Fatalf("migrate: init: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	if len(os.Args) >= 3 && os.Args[1] == "force" {
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("migrate: force wants a numeric version, got %q", os.Args[2])
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("migrate: force %d: %v", version, err)
		}
		fmt.Printf("schema version forced to %d\n", version)
		return
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("schema already up to date")
			return
		}
		log.Fatalf("migrate: up: %v", err)
	}

	fmt.Println("schema migrated")
}
