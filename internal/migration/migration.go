package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	benefitrepo "github.com/messismo/bar/internal/benefit/repository"
	orderdomain "github.com/messismo/bar/internal/order/domain"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	productdomain "github.com/messismo/bar/internal/product/domain"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
	userdomain "github.com/messismo/bar/internal/user/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// Models lists every table the service owns, in dependency order. Dialects
// without versioned SQL are migrated from these.
func Models() []any {
	return []any{
		&userdomain.User{},
		&settingsdomain.Setting{},
		&settingsdomain.History{},
		&pointsdomain.Account{},
		&pointsdomain.Transaction{},
		&benefitrepo.Record{},
		&productdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.LineItem{},
		&auditdomain.AuditLog{},
	}
}

// RunMigrations applies the embedded SQL migrations to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
