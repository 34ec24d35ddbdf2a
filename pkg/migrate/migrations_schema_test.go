package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestStockMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_stock_and_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stock",
		"name TEXT NOT NULL UNIQUE",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"FOREIGN KEY (stock_item_id) REFERENCES stock(id)",
		"DROP TABLE IF EXISTS stock",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	// Non-negativity is enforced by the delta write path, not a column CHECK,
	// so the administrative overwrite keeps its trusted-caller contract.
	if strings.Contains(content, "CHECK (quantity >= 0)") {
		t.Error("stock.quantity must not carry a CHECK constraint")
	}
}

func TestWriteoffMigrationEnforcesXOR(t *testing.T) {
	content := readMigration(t, "*_create_journals.sql")

	if !strings.Contains(content, "CHECK ((product_id IS NULL) <> (stock_item_id IS NULL))") {
		t.Error("writeoffs must enforce exactly one target")
	}
}

func TestExpenseMigrationCascadesItems(t *testing.T) {
	content := readMigration(t, "*_create_expense_documents.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS expense_types",
		"stock BOOLEAN NOT NULL DEFAULT FALSE",
		"FOREIGN KEY (document_id) REFERENCES expense_documents(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
