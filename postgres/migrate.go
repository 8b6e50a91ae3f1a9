package postgres

import (
	"fmt"
	"time"

	"github.com/xy-planning-network/retention"
	"gorm.io/gorm"
)

// Migration is used to hold the database key and function for creating the migration.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

func (m Migration) execute(db *gorm.DB) error {
	// Start transaction
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	// Run migration logic
	if err := m.Executor(tx); err != nil {
		tx.Rollback()
		return err
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	return nil
}

// migrateUp runs, in order, every Migration not yet recorded in the migrations table.
func migrateUp(db *gorm.DB, migrations []Migration) error {
	if err := ensureSchema(db, "public"); err != nil {
		return err
	}

	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	migrationsToRun, err := determineMigrationsToRun(db, migrations)
	if err != nil {
		return err
	}

	for _, m := range migrationsToRun {
		if err := m.execute(db); err != nil {
			return fmt.Errorf("%w: migration %s: %s", retention.ErrUnexpected, m.Key, err)
		}

		// There was no error, so create a record for the migration
		if err := createMigrationRecord(db, m.Key); err != nil {
			return err
		}
	}

	return nil
}

func ensureSchema(db *gorm.DB, schema string) error {
	err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error
	if err != nil {
		return fmt.Errorf("%w: creating %s schema: %s", retention.ErrUnexpected, schema, err)
	}

	return nil
}

func ensureMigrationsTable(db *gorm.DB) error {
	err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			ran_at bigint,
			key text,
			CONSTRAINT migrations_key UNIQUE (key)
		)
	`).Error
	if err != nil {
		return fmt.Errorf("%w: creating migrations table: %s", retention.ErrUnexpected, err)
	}

	return nil
}

type migrationKeyCol struct {
	Key string
}

func determineMigrationsToRun(db *gorm.DB, allMigrations []Migration) ([]Migration, error) {
	ranMigrations := []migrationKeyCol{}
	if err := db.Raw("SELECT key FROM migrations;").Scan(&ranMigrations).Error; err != nil {
		return nil, fmt.Errorf("%w: fetching ran migrations: %s", retention.ErrUnexpected, err)
	}

	// If key is empty, we haven't ran *any* migrations
	if len(ranMigrations) == 0 {
		return allMigrations, nil
	}

	// Compare ran migration keys to all migration keys to determine which need to run
	migrationsToRun := []Migration{}
	for _, migrationToCheck := range allMigrations {
		itsBeenRun := false
		// If this migration has already ran, continue to next iteration (don't add to list to run)
		for _, ranMigration := range ranMigrations {
			if migrationToCheck.Key == ranMigration.Key {
				itsBeenRun = true
				continue
			}
		}

		if !itsBeenRun {
			migrationsToRun = append(migrationsToRun, migrationToCheck)
		}
	}

	return migrationsToRun, nil
}

func createMigrationRecord(db *gorm.DB, key string) error {
	err := db.Exec(`INSERT INTO migrations (key, ran_at) VALUES (?, ?)`, key, time.Now().Unix()).Error
	if err != nil {
		return fmt.Errorf("%w: recording migration %s: %s", retention.ErrUnexpected, key, err)
	}

	return nil
}
