package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/storage"
)

// dumpFunc liefert den komprimierten Datenbank-Dump.
type dumpFunc func(ctx context.Context) ([]byte, error)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	logging.Info("Starte Backup-Prozess...")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Fehler beim Laden der Konfiguration", zap.Error(err))
	}
	if !cfg.UsePostgres() {
		logging.Fatal("Backups werden nur für DB_DRIVER=postgres unterstützt")
	}
	if !cfg.S3Enabled() {
		logging.Fatal("S3_BUCKET und S3_URL sind für Backups erforderlich")
	}

	ctx := context.Background()
	store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}

	dump := func(ctx context.Context) ([]byte, error) { return createDump(ctx, cfg) }
	link, err := runBackup(ctx, cfg, store, dump, time.Now(), logging)
	if err != nil {
		logging.Fatal("Backup fehlgeschlagen", zap.Error(err))
	}
	logging.Info("Backup-Prozess erfolgreich abgeschlossen.", zap.String("link", link))
}

// runBackup erstellt den Dump, lädt ihn hoch und rotiert alte Backups.
func runBackup(ctx context.Context, cfg *config.Config, store storage.ObjectStore, dump dumpFunc, now time.Time, logging *zap.Logger) (string, error) {
	// 1. Datenbank-Dump erstellen
	data, err := dump(ctx)
	if err != nil {
		return "", fmt.Errorf("db-dump: %w", err)
	}

	// 2. Backup hochladen
	key := backupKey(cfg.BackupPrefix, now)
	link, err := store.Put(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	logging.Info("Backup hochgeladen", zap.String("key", key), zap.Int("bytes", len(data)))

	// 3. Alte Backups rotieren
	if cfg.KeepBackups <= 0 {
		return link, nil
	}
	deleted, err := storage.Rotate(ctx, store, cfg.BackupPrefix, cfg.KeepBackups)
	for _, k := range deleted {
		logging.Info("Altes Backup gelöscht", zap.String("key", k))
	}
	if err != nil {
		return link, fmt.Errorf("rotation: %w", err)
	}
	return link, nil
}

func backupKey(prefix string, now time.Time) string {
	return fmt.Sprintf("%sbackup-%s.sql.gz", prefix, now.UTC().Format("2006-01-02T15-04-05Z"))
}

func createDump(ctx context.Context, cfg *config.Config) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", cfg.DBHost,
		"-p", strconv.Itoa(cfg.DBPort),
		"-U", cfg.DBUser,
		"-d", cfg.DBName,
		"-w", // Passwort wird über PGPASSWORD bereitgestellt
	)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", cfg.DBPassword))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := compress(&buf, stdout); err != nil {
		_ = cmd.Wait()
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, errors.New("leerer Dump")
	}
	return buf.Bytes(), nil
}

// compress schreibt r gzip-komprimiert nach w.
func compress(w io.Writer, r io.Reader) error {
	gzipWriter := gzip.NewWriter(w)
	if _, err := io.Copy(gzipWriter, r); err != nil {
		return err
	}
	return gzipWriter.Close()
}
