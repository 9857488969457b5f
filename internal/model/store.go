package model

import (
	"time"
)

type StoreType string

const (
	StoreTypePostgreSQL StoreType = "postgresql"
	StoreTypeMySQL      StoreType = "mysql"
	StoreTypeMariaDB    StoreType = "mariadb"
	StoreTypeSQLite     StoreType = "sqlite"
)

// StoreConfig holds the connection configuration of a source or destination store.
// When DSN is set it is used verbatim, otherwise one is built from the discrete fields.
type StoreConfig struct {
	Driver          StoreType     `mapstructure:"driver" json:"driver" validate:"required"`
	DSN             string        `mapstructure:"dsn" json:"-"`
	Host            string        `mapstructure:"host" json:"host"`
	Port            int           `mapstructure:"port" json:"port"`
	Database        string        `mapstructure:"database" json:"database"`
	Username        string        `mapstructure:"username" json:"username"`
	Password        string        `mapstructure:"password" json:"-"`
	SSLMode         string        `mapstructure:"ssl_mode" json:"sslMode"`
	Timezone        string        `mapstructure:"timezone" json:"timezone"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" json:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" json:"connMaxIdleTime"`
}
