package common

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testPostgresImage = "docker.io/postgres:16-alpine"
	testRabbitMQImage = "rabbitmq:3.12.11-management-alpine"
)

// TestRabbitMQ starts a broker for the lifetime of t and returns its AMQP URL.
func TestRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, testRabbitMQImage, rabbitmq.WithAdminUsername("guest"), rabbitmq.WithAdminPassword("guest"))
	if err != nil {
		t.Fatalf("could not start rabbitmq container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	connURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("could not get rabbitmq connection URL: %v", err)
	}

	return connURL
}

// TestDSN starts a postgres container for the lifetime of t, applies the migrations found at
// source (relative to the calling package, e.g. "file://../../migrations") and returns its DSN.
func TestDSN(source string, t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := postgres.Run(ctx,
		testPostgresImage,
		postgres.WithDatabase("blog"),
		postgres.WithUsername("blog"),
		postgres.WithPassword("blog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)))
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() { c.Terminate(ctx) })

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("could not get postgres connection string: %v", err)
	}

	if err := Migrate(source, dsn); err != nil {
		t.Fatalf("could not run migrations: %v", err)
	}

	return dsn
}

// TestDB is TestDSN plus an open pool that is closed when t ends.
func TestDB(source string, t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDB(TestDSN(source, t), 5, 5, time.Minute)
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := PingDB(db); err != nil {
		t.Fatalf("could not reach database: %v", err)
	}

	return db
}
