package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/greentradehq/greentrade-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory_records.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_records",
		"REFERENCES listings (id) ON DELETE CASCADE",
		"CHECK (reserved_qty >= 0)",
		"CHECK (sold_qty >= 0)",
		"CHECK (allow_backorder OR available_qty >= 0)",
		"DROP TABLE IF EXISTS inventory_records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsIndexes(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number",
		"version integer NOT NULL DEFAULT 1",
		"CHECK (total_cents >= 0)",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrderItemHistoryMigrationCascades(t *testing.T) {
	content := readMigration(t, "*_create_order_item_status_events.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS order_item_status_events",
		"REFERENCES order_items (id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS order_item_status_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPaymentMigrationEnforcesOnePerOrder(t *testing.T) {
	content := readMigration(t, "*_create_payment_records.sql")

	if !strings.Contains(content, "CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_records_order_id") {
		t.Error("payment migration must keep one payment record per order")
	}
}

func TestOutboxMigrationDeduplicatesEvents(t *testing.T) {
	content := readMigration(t, "*_create_outbox_events.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate",
		"WHERE published_at IS NULL",
		"DROP TABLE IF EXISTS outbox_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
