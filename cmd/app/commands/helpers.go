// Package commands implements the CLI subcommands: server, worker, migrate and create-user.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/users/internal/app"
	"github.com/allisson/users/internal/config"
)

// Output formats accepted by commands that print results.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// IOTuple is the input and output a command talks to. Tests swap in buffers.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO wires a command to the process stdin and stdout.
func DefaultIO() IOTuple {
	return IOTuple{Reader: os.Stdin, Writer: os.Stdout}
}

// LoadConfig reads the configuration and refuses to continue when it is invalid.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// WithContainer loads the configuration, runs fn against a fresh container and
// releases the container's resources once fn returns.
func WithContainer(fn func(cfg *config.Config, container *app.Container) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	defer closeContainer(container, container.Logger())

	return fn(cfg, container)
}

func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Error("failed to close migrate",
			slog.Any("source_error", srcErr),
			slog.Any("database_error", dbErr),
		)
	}
}

func validateFormat(format string) error {
	if format == FormatText || format == FormatJSON {
		return nil
	}
	return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
}

// writeJSON prints v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
