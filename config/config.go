package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// DBDriver ist "postgres" oder "sqlite". Ohne Postgres-Host wird lokal SQLite verwendet.
	DBDriver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"conflicts"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"conflicts.db"`
	DBDebug    bool   `envconfig:"DB_DEBUG" default:"false"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Provider-Konfiguration, Reihenfolge = Abfragereihenfolge
	EnabledProviders  string  `envconfig:"ENABLED_PROVIDERS" default:"openalex,europepmc"`
	OpenAlexBaseURL   string  `envconfig:"OPENALEX_BASE_URL" default:"https://api.openalex.org"`
	OpenAlexEmail     string  `envconfig:"OPENALEX_EMAIL"`
	EuropePMCBaseURL  string  `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest"`
	PubMedBaseURL     string  `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey      string  `envconfig:"PUBMED_API_KEY"`
	ProviderRateLimit float64 `envconfig:"PROVIDER_RATE_LIMIT" default:"5"`
	UserAgent         string  `envconfig:"USER_AGENT" default:"coi-explorer/1.0"`

	// ResolverThreshold wird nur aus Kompatibilitätsgründen gelesen, die Auflösung ist exakt.
	ResolverThreshold float64 `envconfig:"RESOLVER_THRESHOLD" default:"0.7"`

	// Leerer Schedule deaktiviert den Refresh-Job.
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`

	// S3 ist optional: ohne Bucket keine Snapshots.
	S3Key          string `envconfig:"S3_KEY"`
	S3Secret       string `envconfig:"S3_SECRET"`
	S3URL          string `envconfig:"S3_URL"`
	S3Region       string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	SnapshotPrefix string `envconfig:"SNAPSHOT_PREFIX" default:"snapshots/"`
	KeepSnapshots  int    `envconfig:"KEEP_SNAPSHOTS" default:"14"`
	BackupPrefix   string `envconfig:"BACKUP_PREFIX" default:"backups/"`
	KeepBackups    int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// DSN gibt den Data Source Name für den konfigurierten Treiber zurück.
func (c *Config) DSN() string {
	if c.UsePostgres() {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
	}
	return c.SQLitePath
}

// UsePostgres meldet, ob gegen PostgreSQL statt SQLite gearbeitet wird.
func (c *Config) UsePostgres() bool {
	return strings.EqualFold(c.DBDriver, "postgres")
}

// Providers gibt die aktivierten Provider-Namen getrimmt und kleingeschrieben zurück.
func (c *Config) Providers() []string {
	var names []string
	for _, name := range strings.Split(c.EnabledProviders, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// S3Enabled meldet, ob Snapshots nach S3 geschrieben werden sollen.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3URL != ""
}

// Validate prüft Kombinationen, die envconfig allein nicht abbilden kann.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "postgres":
		if c.DBHost == "" || c.DBUser == "" {
			return fmt.Errorf("DB_HOST und DB_USER sind für DB_DRIVER=postgres erforderlich")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH darf nicht leer sein")
		}
	default:
		return fmt.Errorf("unbekannter DB_DRIVER %q", c.DBDriver)
	}
	if len(c.Providers()) == 0 {
		return fmt.Errorf("ENABLED_PROVIDERS enthält keinen Provider")
	}
	if c.S3Bucket != "" && (c.S3Key == "" || c.S3Secret == "" || c.S3URL == "") {
		return fmt.Errorf("S3_BUCKET gesetzt, aber S3_KEY, S3_SECRET oder S3_URL fehlen")
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return &c, err
	}
	return &c, c.Validate()
}
