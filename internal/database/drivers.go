package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"table-sync/internal/model"
)

// Driver interface defines store-specific connection operations
type Driver interface {
	// Open opens a database connection
	Open(dsn string) (*sql.DB, error)

	// Dialector wraps an open connection for gorm
	Dialector(db *sql.DB) gorm.Dialector

	// ValidateDSN validates the connection string
	ValidateDSN(dsn string) error

	// GetDefaultPort returns the default port for the database
	GetDefaultPort() int

	// BuildDSN builds a connection string from configuration
	BuildDSN(config *model.StoreConfig) string

	// GetDatabaseTypeName returns the database type name
	GetDatabaseTypeName() string

	// GetDriverName returns the underlying SQL driver name
	GetDriverName() string

	// DefaultMaxOpenConns is used when the configuration leaves the pool size unset
	DefaultMaxOpenConns() int
}

// PostgreSQLDriver implements Driver for PostgreSQL through lib/pq
type PostgreSQLDriver struct{}

func (d *PostgreSQLDriver) Open(dsn string) (*sql.DB, error) {
	return sql.Open(d.GetDriverName(), dsn)
}

func (d *PostgreSQLDriver) Dialector(db *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{Conn: db})
}

func (d *PostgreSQLDriver) ValidateDSN(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	return nil
}

func (d *PostgreSQLDriver) GetDefaultPort() int {
	return 5432
}

func (d *PostgreSQLDriver) BuildDSN(config *model.StoreConfig) string {
	port := config.Port
	if port == 0 {
		port = d.GetDefaultPort()
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   fmt.Sprintf("%s:%d", config.Host, port),
		Path:   "/" + config.Database,
	}

	params := url.Values{}
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	params.Set("sslmode", sslMode)
	if config.Timezone != "" {
		params.Set("TimeZone", config.Timezone)
	}
	u.RawQuery = params.Encode()

	return u.String()
}

func (d *PostgreSQLDriver) GetDatabaseTypeName() string {
	return string(model.StoreTypePostgreSQL)
}

func (d *PostgreSQLDriver) GetDriverName() string {
	return "postgres"
}

func (d *PostgreSQLDriver) DefaultMaxOpenConns() int {
	return 10
}

// MySQLDriver implements Driver for MySQL and MariaDB
type MySQLDriver struct{}

func (d *MySQLDriver) Open(dsn string) (*sql.DB, error) {
	return sql.Open(d.GetDriverName(), dsn)
}

func (d *MySQLDriver) Dialector(db *sql.DB) gorm.Dialector {
	return mysql.New(mysql.Config{Conn: db})
}

func (d *MySQLDriver) ValidateDSN(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if !strings.Contains(dsn, "@") && !strings.Contains(dsn, "/") {
		return fmt.Errorf("DSN must be in the form user:password@tcp(host:port)/database")
	}
	return nil
}

func (d *MySQLDriver) GetDefaultPort() int {
	return 3306
}

func (d *MySQLDriver) BuildDSN(config *model.StoreConfig) string {
	port := config.Port
	if port == 0 {
		port = d.GetDefaultPort()
	}

	loc := "UTC"
	if config.Timezone != "" {
		loc = url.QueryEscape(config.Timezone)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=%s",
		config.Username,
		config.Password,
		config.Host,
		port,
		config.Database,
		loc,
	)
	if config.SSLMode != "" && config.SSLMode != "disable" {
		dsn += "&tls=true"
	}
	return dsn
}

func (d *MySQLDriver) GetDatabaseTypeName() string {
	return string(model.StoreTypeMySQL)
}

func (d *MySQLDriver) GetDriverName() string {
	return "mysql"
}

func (d *MySQLDriver) DefaultMaxOpenConns() int {
	return 10
}

// SQLiteDriver implements Driver for SQLite files and in-memory databases
type SQLiteDriver struct{}

func (d *SQLiteDriver) Open(dsn string) (*sql.DB, error) {
	return sql.Open(d.GetDriverName(), dsn)
}

func (d *SQLiteDriver) Dialector(db *sql.DB) gorm.Dialector {
	return &sqlite.Dialector{DriverName: d.GetDriverName(), Conn: db}
}

func (d *SQLiteDriver) ValidateDSN(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	return nil
}

func (d *SQLiteDriver) GetDefaultPort() int {
	return 0
}

// BuildDSN uses the database field as the file path
func (d *SQLiteDriver) BuildDSN(config *model.StoreConfig) string {
	if config.Database == "" {
		return ":memory:?_foreign_keys=on"
	}
	return "file:" + config.Database + "?_foreign_keys=on"
}

func (d *SQLiteDriver) GetDatabaseTypeName() string {
	return string(model.StoreTypeSQLite)
}

func (d *SQLiteDriver) GetDriverName() string {
	return "sqlite3"
}

// DefaultMaxOpenConns is 1: every connection to ":memory:" is a separate database
func (d *SQLiteDriver) DefaultMaxOpenConns() int {
	return 1
}
