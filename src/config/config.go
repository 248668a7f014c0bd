package config

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

const (
	StorageFile     = "1"
	StorageDatabase = "2"
)

// Config is the application configuration read from omega.yaml.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Database string         `yaml:"database"`
	Account  string         `yaml:"account"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Log      LogConfig      `yaml:"log"`
	Calendar CalendarConfig `yaml:"calendar"`
}

type StorageConfig struct {
	Version string `yaml:"version"` // "1" csv files, anything else postgres
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", p.Host, p.User, p.Password, p.DBName, p.Port)
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// CalendarConfig points at a sessions file exported from an exchange
// calendar. Without a path, weekdays are used as sessions.
type CalendarConfig struct {
	Exchange string `yaml:"exchange"`
	Path     string `yaml:"path"`
}

func (c *Config) UsesDatabase() bool {
	return c.Storage.Version != StorageFile
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database is required")
	}

	if c.UsesDatabase() && (c.Postgres.Host == "" || c.Postgres.DBName == "") {
		return fmt.Errorf("postgres host and dbname are required for storage version %q", c.Storage.Version)
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.Storage.Version == "" {
		c.Storage.Version = StorageFile
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Calendar.Exchange == "" {
		c.Calendar.Exchange = "CME"
	}

	if c.Account == "" {
		c.Account = DefaultAccount
	}

	if c.Postgres.Port == "" {
		c.Postgres.Port = "5432"
	}
}

// Load reads the YAML file at path, expanding environment variables first.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("Load: parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: invalid config: %w", err)
	}

	return &cfg, nil
}
