package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/vidpersona/payments/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		env.GetEnv("DB_USER", "payments"),
		env.GetEnv("DB_PASSWORD", "payments"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "5432"),
		env.GetEnv("DB_NAME", "payments_db"),
		env.GetEnv("DB_SSLMODE", "disable"),
	)

	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		log.Fatalf("failed to initialize migrations: %v", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("failed to run migrations: %v", err)
		} else if err == migrate.ErrNoChange {
			log.Println("no changes: database is already up to date")
		} else {
			log.Println("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("failed to roll back last migration: %v", err)
		} else {
			log.Println("last migration rolled back")
		}

	case "goto":
		if len(os.Args) < 3 {
			log.Fatalf("please provide a version number")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("invalid version number: %v", err)
		}

		if err := m.Migrate(uint(version)); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("failed to migrate to version %d: %v", version, err)
		} else if err == migrate.ErrNoChange {
			log.Printf("no changes: database is already at version %d", version)
		} else {
			log.Printf("migrated to version %d", version)
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("failed to read migration version: %v", err)
		}
		log.Printf("version=%d dirty=%v", version, dirty)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: migrate <up|down|goto VERSION|version>")
}
