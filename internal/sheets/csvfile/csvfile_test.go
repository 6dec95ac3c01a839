package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	content := "สถานที่ส่ง,จังหวัด,Driver,ผู้แทน\nRayong Hospital,Rayong,Anucha,Pongsakorn\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	src := New(path)
	table, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if table.Columns() != 4 || len(table.Rows) != 1 {
		t.Errorf("table = %+v", table)
	}
	if src.Name() != "csv:"+path {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestSource_FetchMissingFile(t *testing.T) {
	src := New(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
