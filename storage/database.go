package storage

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coi-explorer/config"
	"coi-explorer/models"
)

// OpenDatabase öffnet die Datenbank für den konfigurierten Treiber und migriert das Schema.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.UsePostgres() {
		dialector = postgres.Open(cfg.DSN())
	} else {
		dialector = sqlite.Open(cfg.DSN())
	}

	logMode := logger.Silent
	if cfg.DBDebug {
		logMode = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("datenbankverbindung fehlgeschlagen: %w", err)
	}

	if !cfg.UsePostgres() {
		// SQLite verträgt nur einen Schreiber gleichzeitig.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Datenbank verbunden", zap.String("driver", dialector.Name()))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Datenbank-Migration abgeschlossen")
	return db, nil
}

// joinTables bindet die Verknüpfungs-Structs an die many2many-Felder der Modelle.
var joinTables = []struct {
	model any
	field string
	join  any
}{
	{&models.Author{}, "Institutions", &models.AuthorInstitution{}},
	{&models.Institution{}, "Authors", &models.AuthorInstitution{}},
	{&models.Institution{}, "Funders", &models.InstitutionFunder{}},
	{&models.Author{}, "Papers", &models.PaperAuthor{}},
	{&models.Paper{}, "Authors", &models.PaperAuthor{}},
	{&models.Paper{}, "Funders", &models.PaperFunder{}},
}

// Migrate legt Tabellen, Verknüpfungstabellen und die dreiseitige Zuordnung an.
func Migrate(db *gorm.DB) error {
	for _, jt := range joinTables {
		if err := db.SetupJoinTable(jt.model, jt.field, jt.join); err != nil {
			return fmt.Errorf("join table %T.%s: %w", jt.model, jt.field, err)
		}
	}
	err := db.AutoMigrate(
		&models.Institution{},
		&models.Funder{},
		&models.Author{},
		&models.Paper{},
		&models.AuthorInstitution{},
		&models.InstitutionFunder{},
		&models.PaperAuthor{},
		&models.PaperFunder{},
		&models.AuthorFunding{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration fehlgeschlagen: %w", err)
	}
	return nil
}

// Tables listet alle Tabellen des Schemas, z.B. für Statistik und Verifikation.
var Tables = []string{
	"institutions",
	"funders",
	"authors",
	"papers",
	"author_institutions",
	"institution_funders",
	"paper_authors",
	"paper_funders",
	"author_funders",
}

// TableCounts zählt die Zeilen jeder Tabelle.
func TableCounts(db *gorm.DB) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		if err := db.Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("zählen von %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
