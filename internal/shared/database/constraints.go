package database

import (
	"fmt"

	"gorm.io/gorm"
)

// constraintStatements back the capacity and ledger invariants at the database level.
// They only run on PostgreSQL; the SQLite test database relies on the application checks.
var constraintStatements = []struct {
	name string
	sql  string
}{
	{
		name: "chk_venues_booked_count",
		sql: `DO $$ BEGIN
			ALTER TABLE venues ADD CONSTRAINT chk_venues_booked_count
			CHECK (booked_count >= 0 AND booked_count <= capacity);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	},
	{
		name: "chk_venues_capacity_positive",
		sql: `DO $$ BEGIN
			ALTER TABLE venues ADD CONSTRAINT chk_venues_capacity_positive CHECK (capacity > 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	},
	{
		name: "chk_reservations_guests_positive",
		sql: `DO $$ BEGIN
			ALTER TABLE reservations ADD CONSTRAINT chk_reservations_guests_positive CHECK (guests > 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	},
	{
		name: "chk_reservations_status",
		sql: `DO $$ BEGIN
			ALTER TABLE reservations ADD CONSTRAINT chk_reservations_status
			CHECK (status IN ('CONFIRMED', 'CANCELLED', 'COMPLETED'));
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	},
	{
		name: "idx_reservations_venue_confirmed",
		sql: `CREATE INDEX IF NOT EXISTS idx_reservations_venue_confirmed
			ON reservations (venue_id) WHERE status = 'CONFIRMED';`,
	},
}

// MigrateConstraints adds database constraints for the capacity invariant
func MigrateConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt.sql).Error; err != nil {
			return fmt.Errorf("constraint %s: %w", stmt.name, err)
		}
	}
	return nil
}
