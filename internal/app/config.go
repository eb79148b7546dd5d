package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	coreconfig "github.com/m3rciful/tagbot/core/config"
	coredatabase "github.com/m3rciful/tagbot/core/database"
)

// Dialog session backends.
const (
	DialogStoreMemory   = "memory"
	DialogStorePostgres = "postgres"
)

// DialogConfig selects where conversation state lives.
type DialogConfig struct {
	Store string `yaml:"store" envconfig:"DIALOG_STORE" validate:"oneof=memory postgres"`
}

// SenderConfig tunes the outbound message dispatcher.
type SenderConfig struct {
	Workers    int `yaml:"workers" envconfig:"SENDER_WORKERS" validate:"gte=0"`
	QueueSize  int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE" validate:"gte=0"`
	MaxRetries int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES" validate:"gte=0"`
}

// Config is the full bot configuration: the shared core plus tagbot settings.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Dialog   DialogConfig        `yaml:"dialog"`
	Sender   SenderConfig        `yaml:"sender"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads path (optional) and the environment, applies defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.ReadInto(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, describeValidation(err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Database.ApplyDefaults()
	c.Dialog.Store = strings.ToLower(strings.TrimSpace(c.Dialog.Store))
	if c.Dialog.Store == "" {
		c.Dialog.Store = DialogStoreMemory
	}
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
