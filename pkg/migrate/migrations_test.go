package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/sitestock-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestDeliveriesMigrationEnforcesSignedCounts(t *testing.T) {
	content := readMigration(t, "create_deliveries")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS deliveries",
		"CREATE TABLE IF NOT EXISTS delivery_units",
		"(delivery_type = 'delivery' AND count > 0) OR (delivery_type = 'return' AND count < 0)",
		"FOREIGN KEY (delivery_id) REFERENCES deliveries(id) ON DELETE CASCADE",
		"FOREIGN KEY (rentable_id) REFERENCES rentables(id) ON DELETE RESTRICT",
		"DROP TABLE IF EXISTS delivery_units",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoriesMigrationUsesCompositeKey(t *testing.T) {
	content := readMigration(t, "create_inventories")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS inventories",
		"PRIMARY KEY (building_site_id, rentable_id)",
		"DROP TABLE IF EXISTS inventories",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestClientsAndSitesRestrictDeletes(t *testing.T) {
	sites := readMigration(t, "create_building_sites")
	if !strings.Contains(sites, "FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT") {
		t.Errorf("building sites must restrict client deletes")
	}
	rentables := readMigration(t, "create_rentables")
	if !strings.Contains(rentables, "CHECK (unit_price >= 0)") {
		t.Errorf("rentables must reject negative prices")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Notes To Deliveries!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_notes_to_deliveries.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x();\n")
	if err := os.WriteFile(filepath.Join(dir, "20240101000000_swap.sql"), body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "Down before Up") {
		t.Fatalf("expected ordering error, got %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20240305120000"); err != nil || v != 20240305120000 {
		t.Fatalf("ParseVersion = %d, %v", v, err)
	}
	for _, bad := range []string{"", "2024", "2024030512000x"} {
		if _, err := migrate.ParseVersion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
