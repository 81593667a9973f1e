package tablestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

func TestStore_WritesPlainCSVFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	err = s.Write(context.Background(), tablestore.Table{
		Name:    tablestore.Drivers,
		Columns: []string{"driver_id", "given_name", "last_name"},
		Rows:    [][]string{{"1", "Juan", "Cruz"}},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "drivers.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "driver_id,given_name,last_name\n1,Juan,Cruz\n" {
		t.Fatalf("drivers.csv=%q", string(b))
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover staging file %s", e.Name())
		}
	}
}

func TestStore_ReadsExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "location_id,loc_name\n1,Mall\n2,Airport\n"
	if err := os.WriteFile(filepath.Join(dir, "locations.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, _ := NewStore(dir)
	got, err := s.Read(context.Background(), tablestore.Locations)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Rows) != 2 || got.Rows[1][1] != "Airport" {
		t.Fatalf("rows=%v", got.Rows)
	}
}

func TestNewStore_RejectsEmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(""); err == nil {
		t.Fatalf("expected error")
	}
}
