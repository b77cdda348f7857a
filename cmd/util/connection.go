package util

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/srschema/srschema/internal/logger"
)

// ConnectionConfig holds database connection parameters. StarRocks frontends
// speak the MySQL protocol, so the config maps onto a MySQL DSN.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Connect establishes a database connection using the provided configuration
func Connect(config *ConnectionConfig) (*sql.DB, error) {
	log := logger.Get()

	log.Debug("Attempting database connection",
		"host", config.Host,
		"port", config.Port,
		"database", config.Database,
		"user", config.User,
	)

	conn, err := sql.Open("mysql", buildDSN(config))
	if err != nil {
		log.Debug("Database connection failed", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(); err != nil {
		log.Debug("Database ping failed", "error", err)
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("Database connection established successfully")
	return conn, nil
}

// buildDSN constructs a MySQL-protocol connection string
func buildDSN(config *ConnectionConfig) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	cfg.DBName = config.Database
	cfg.User = config.User
	cfg.Passwd = config.Password
	cfg.Timeout = 10 * time.Second
	cfg.InterpolateParams = true
	return cfg.FormatDSN()
}
