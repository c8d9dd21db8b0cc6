package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv entfernt Variablen für die Dauer des Tests; t.Setenv stellt sie danach wieder her.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "DB_DRIVER", "SQLITE_PATH", "ENABLED_PROVIDERS", "HTTP_PORT", "S3_BUCKET", "S3_URL", "BACKUP_PREFIX", "KEEP_BACKUPS")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "conflicts.db", cfg.DSN())
	assert.False(t, cfg.UsePostgres())
	assert.Equal(t, []string{"openalex", "europepmc"}, cfg.Providers())
	assert.Equal(t, "4242", cfg.HTTPPort)
	assert.False(t, cfg.S3Enabled())
	assert.Equal(t, "backups/", cfg.BackupPrefix)
	assert.Equal(t, 4, cfg.KeepBackups)
}

func TestLoadPostgres(t *testing.T) {
	unsetEnv(t, "DB_PORT", "ENABLED_PROVIDERS", "S3_BUCKET")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "coi")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "coi")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, "host=db user=coi password=secret dbname=coi port=5432 sslmode=disable", cfg.DSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "sqlite ok", cfg: Config{DBDriver: "sqlite", SQLitePath: "x.db", EnabledProviders: "openalex"}},
		{name: "postgres without host", cfg: Config{DBDriver: "postgres", EnabledProviders: "openalex"}, wantErr: true},
		{name: "unknown driver", cfg: Config{DBDriver: "mysql", EnabledProviders: "openalex"}, wantErr: true},
		{name: "no providers", cfg: Config{DBDriver: "sqlite", SQLitePath: "x.db", EnabledProviders: " , "}, wantErr: true},
		{name: "bucket without credentials", cfg: Config{DBDriver: "sqlite", SQLitePath: "x.db", EnabledProviders: "openalex", S3Bucket: "b"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProvidersNormalizesNames(t *testing.T) {
	cfg := Config{EnabledProviders: " OpenAlex, ,EuropePMC "}
	assert.Equal(t, []string{"openalex", "europepmc"}, cfg.Providers())
}
