package database

import (
	"fmt"
	"net/url"
)

// Config holds database connection settings shared across bots.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST" validate:"required"`
	Port           string `yaml:"port" envconfig:"DB_PORT" validate:"required,numeric"`
	User           string `yaml:"user" envconfig:"DB_USER" validate:"required"`
	Password       string `yaml:"password" envconfig:"DB_PASS"`
	Name           string `yaml:"name" envconfig:"DB_NAME" validate:"required"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS" validate:"gte=1"`
}

// ApplyDefaults fills the optional fields left empty by YAML and env.
func (c *Config) ApplyDefaults() {
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = 10
	}
}

// DSN returns the lib/pq keyword connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		quoteValue(c.User), quoteValue(c.Password), c.Host, c.Port, quoteValue(c.Name), c.SSLMode,
	)
}

// URL returns the postgres:// form expected by the migration driver.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func quoteValue(v string) string {
	if v == "" {
		return "''"
	}
	needs := false
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
