// Package testutil provides shared test utilities for srschema
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// getStarRocksImage returns the StarRocks image to use for testing.
// It reads from the SRSCHEMA_STARROCKS_IMAGE environment variable,
// defaulting to the all-in-one image if not set.
func getStarRocksImage() string {
	if image := os.Getenv("SRSCHEMA_STARROCKS_IMAGE"); image != "" {
		return image
	}
	return "starrocks/allin1-ubuntu:3.3-latest"
}

// ContainerInfo holds StarRocks container connection details
type ContainerInfo struct {
	Container testcontainers.Container
	Host      string
	Port      int
	Conn      *sql.DB
}

// SetupStarRocksContainer starts a StarRocks test container and waits until
// the frontend accepts queries on the MySQL protocol port.
func SetupStarRocksContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	req := testcontainers.ContainerRequest{
		Image:        getStarRocksImage(),
		ExposedPorts: []string{"9030/tcp"},
		WaitingFor: wait.ForSQL("9030/tcp", "mysql", func(host string, port nat.Port) string {
			return fmt.Sprintf("root@tcp(%s:%s)/", host, port.Port())
		}).WithStartupTimeout(5 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Logger:           suppressedLogger,
	})
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	containerHost, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	containerPort, err := container.MappedPort(ctx, "9030")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("root@tcp(%s:%d)/", containerHost, containerPort.Int())
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	return &ContainerInfo{
		Container: container,
		Host:      containerHost,
		Port:      containerPort.Int(),
		Conn:      conn,
	}
}

// Terminate cleans up the container and connection
func (ci *ContainerInfo) Terminate(ctx context.Context, t *testing.T) {
	ci.Conn.Close()
	if err := ci.Container.Terminate(ctx); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}
