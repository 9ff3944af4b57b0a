package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	pgtc "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// tablesToTruncate lists every table the schema creates.
var tablesToTruncate = []string{
	"messages",
	"medias",
	"payments",
	"treatment_plans",
	"medical_histories",
	"cases",
	"patients",
	"qr_codes",
	"doctors",
	"refresh_tokens",
	"users",
	"franchises",
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := pgtc.Run(ctx,
		"postgres:17-bookworm",
		pgtc.WithDatabase("clinic_case_service"),
		pgtc.WithUsername("postgres"),
		pgtc.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer, "", fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	return pgContainer, dsn, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return db, nil
}

func truncateTables(ctx context.Context, dsn string) error {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tablesToTruncate, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

func countRows(ctx context.Context, dsn, query string, args ...interface{}) (int, error) {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query failed: %w. Query: %s, Args: %v", err, query, args)
	}
	return count, nil
}
