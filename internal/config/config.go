package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wrenchworks/docdesk/internal/types"
)

type Configuration struct {
	Deployment  DeploymentConfig  `mapstructure:"deployment" validate:"required"`
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Logging     LoggingConfig     `mapstructure:"logging" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Numbering   NumberingConfig   `mapstructure:"numbering" validate:"required"`
	Reservation ReservationConfig `mapstructure:"reservation" validate:"required"`
	Archive     ArchiveConfig     `mapstructure:"archive" validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type DatabaseConfig struct {
	Driver      types.DatabaseDriver `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	AutoMigrate bool                 `mapstructure:"auto_migrate"`
	// MaxOpenConns of 0 picks a per-driver default: 1 for sqlite, 10 for postgres.
	MaxOpenConns           int            `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int            `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int            `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
	SQLite                 SQLiteConfig   `mapstructure:"sqlite"`
	Postgres               PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path          string `mapstructure:"path"`
	JournalMode   string `mapstructure:"journal_mode"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms" validate:"gte=0"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// NumberingConfig holds the values the numbering row is seeded with on first
// migration. Later edits belong to the settings screen, not to this file.
type NumberingConfig struct {
	InvoicePrefix     string `mapstructure:"invoice_prefix"`
	InvoicePadLength  int    `mapstructure:"invoice_pad_length" validate:"gte=1,lte=20"`
	ProtocolPadLength int    `mapstructure:"protocol_pad_length" validate:"gte=1,lte=20"`
}

type ReservationConfig struct {
	MaxRetries      int           `mapstructure:"max_retries" validate:"gte=0"`
	InitialInterval time.Duration `mapstructure:"initial_interval" validate:"gt=0"`
	MaxInterval     time.Duration `mapstructure:"max_interval" validate:"gt=0"`
	// SerializeFirstReservations funnels every first reservation through a
	// single in-process writer so numbers stay gapless even on stores that
	// cannot roll back a lost race.
	SerializeFirstReservations bool `mapstructure:"serialize_first_reservations"`
}

type ArchiveConfig struct {
	AfterMonths int `mapstructure:"after_months" validate:"gte=1"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only feeds the environment viper reads below
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/docdesk")

	// Set up environment variables support
	v.SetEnvPrefix("DOCDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from config.yaml.
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime_minutes", d.Database.ConnMaxLifetimeMinutes)
	v.SetDefault("database.sqlite.path", d.Database.SQLite.Path)
	v.SetDefault("database.sqlite.journal_mode", d.Database.SQLite.JournalMode)
	v.SetDefault("database.sqlite.busy_timeout_ms", d.Database.SQLite.BusyTimeoutMS)
	v.SetDefault("database.postgres.host", d.Database.Postgres.Host)
	v.SetDefault("database.postgres.port", d.Database.Postgres.Port)
	v.SetDefault("database.postgres.user", d.Database.Postgres.User)
	v.SetDefault("database.postgres.password", d.Database.Postgres.Password)
	v.SetDefault("database.postgres.dbname", d.Database.Postgres.DBName)
	v.SetDefault("database.postgres.sslmode", d.Database.Postgres.SSLMode)
	v.SetDefault("numbering.invoice_prefix", d.Numbering.InvoicePrefix)
	v.SetDefault("numbering.invoice_pad_length", d.Numbering.InvoicePadLength)
	v.SetDefault("numbering.protocol_pad_length", d.Numbering.ProtocolPadLength)
	v.SetDefault("reservation.max_retries", d.Reservation.MaxRetries)
	v.SetDefault("reservation.initial_interval", d.Reservation.InitialInterval)
	v.SetDefault("reservation.max_interval", d.Reservation.MaxInterval)
	v.SetDefault("reservation.serialize_first_reservations", d.Reservation.SerializeFirstReservations)
	v.SetDefault("archive.after_months", d.Archive.AfterMonths)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Database: DatabaseConfig{
			Driver:      types.DatabaseDriverSQLite,
			AutoMigrate: true,
			SQLite: SQLiteConfig{
				Path:        "data/docdesk.db",
				JournalMode: "WAL",
			},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Numbering: NumberingConfig{
			InvoicePrefix:     "09",
			InvoicePadLength:  8,
			ProtocolPadLength: 6,
		},
		Reservation: ReservationConfig{
			MaxRetries:      5,
			InitialInterval: 20 * time.Millisecond,
			MaxInterval:     500 * time.Millisecond,
		},
		Archive: ArchiveConfig{AfterMonths: 3},
		Cache:   CacheConfig{Enabled: true, TTL: 30 * time.Second},
	}
}

// GetDSN returns the data source name for the configured driver
func (c DatabaseConfig) GetDSN() string {
	if c.Driver == types.DatabaseDriverPostgres {
		return c.Postgres.GetDSN()
	}
	return c.SQLite.GetDSN()
}

// GetDSN builds a modernc.org/sqlite DSN. Write transactions take the
// database lock at BEGIN (_txlock=immediate) so read-modify-write on the
// counter row never interleaves.
func (c SQLiteConfig) GetDSN() string {
	q := url.Values{}
	q.Add("_txlock", "immediate")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeoutMS))
	q.Add("_pragma", "foreign_keys(1)")
	if c.JournalMode != "" {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	return "file:" + c.Path + "?" + q.Encode()
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
