// Package main stellt das Admin-CLI coictl bereit.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coi-explorer/config"
	"coi-explorer/services"
	"coi-explorer/storage"
)

// Exit-Codes
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitDataError   = 3
)

var verbose bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "coictl",
	Short: "Admin CLI for the conflicts-of-interest graph",
	Long: `coictl verwaltet den Autor-Einrichtung-Geldgeber-Graphen.

Befehle:
  import   Paper-Datensätze aus JSON- oder YAML-Dateien schreiben
  fetch    ein Paper per DOI bei den Providern holen und schreiben
  verify   Kanten und Namen auf Konsistenz prüfen
  migrate  das Datenbankschema anlegen bzw. aktualisieren

Die Konfiguration kommt wie beim Server aus der Umgebung bzw. .env.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// exitError trägt einen Exit-Code durch cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitError
}

// env bündelt, was jeder Befehl braucht.
type env struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.Logger
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

// openEnv lädt Konfiguration, Logger und Datenbank.
func openEnv() (*env, error) {
	log, err := newLogger()
	if err != nil {
		return nil, withCode(ExitError, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(ExitConfigError, fmt.Errorf("config: %w", err))
	}
	db, err := storage.OpenDatabase(cfg, log)
	if err != nil {
		return nil, withCode(ExitError, err)
	}
	return &env{cfg: cfg, db: db, log: log}, nil
}

func (e *env) upserter() *services.Upserter {
	return services.NewUpserter(e.db, services.NewResolver(e.cfg.ResolverThreshold, e.log), e.log)
}

// outputJSON schreibt v formatiert nach w.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
