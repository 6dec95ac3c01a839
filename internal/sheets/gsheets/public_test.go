package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
)

const tripCSV = "สถานที่ส่ง,จังหวัด,Driver,ผู้แทน\nRayong Hospital,Rayong,Anucha,Pongsakorn\n"

func newTestPublicSource(t *testing.T, ref Ref, handler http.HandlerFunc) *PublicSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src := NewPublicSource(ref, 5*time.Second)
	src.baseURL = srv.URL
	src.client = srv.Client()
	return src
}

func TestPublicSource_Fetch(t *testing.T) {
	var gotPath, gotQuery string
	src := newTestPublicSource(t, Ref{ID: "sheet1", GID: "42"}, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, tripCSV)
	})

	table, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotPath != "/sheet1/export" || gotQuery != "format=csv&gid=42" {
		t.Errorf("request = %s?%s", gotPath, gotQuery)
	}
	if len(table.Rows) != 1 || table.Rows[0][2] != "Anucha" {
		t.Errorf("table = %+v", table)
	}
}

func TestPublicSource_FallsBackToFirstTab(t *testing.T) {
	var tried []string
	src := newTestPublicSource(t, Ref{ID: "sheet1", GID: "99"}, func(w http.ResponseWriter, r *http.Request) {
		gid := r.URL.Query().Get("gid")
		tried = append(tried, gid)
		if gid != "0" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, tripCSV)
	})

	table, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(tried) != 2 || tried[0] != "99" || tried[1] != "0" {
		t.Errorf("tried gids = %v, want [99 0]", tried)
	}
	if len(table.Rows) != 1 {
		t.Errorf("len(Rows) = %d, want 1", len(table.Rows))
	}
}

func TestPublicSource_AllAttemptsFail(t *testing.T) {
	calls := 0
	src := newTestPublicSource(t, Ref{ID: "sheet1", GID: "5"}, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "denied", http.StatusForbidden)
	})

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestPublicSource_NoFallbackForFirstTab(t *testing.T) {
	calls := 0
	src := newTestPublicSource(t, Ref{ID: "sheet1", GID: "0"}, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "denied", http.StatusForbidden)
	})

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestNewSource(t *testing.T) {
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.json")

	cfg := config.Default().Sheets
	cfg.URL = "https://docs.google.com/spreadsheets/d/abc/edit#gid=3"
	cfg.CredentialsPath = credPath

	src, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if _, ok := src.(*PublicSource); !ok {
		t.Errorf("without credentials got %T, want *PublicSource", src)
	}

	if err := os.WriteFile(credPath, []byte(`{"type":"service_account"}`), 0600); err != nil {
		t.Fatal(err)
	}
	src, err = NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if _, ok := src.(*APISource); !ok {
		t.Errorf("with credentials got %T, want *APISource", src)
	}

	cfg.URL = ""
	if _, err := NewSource(cfg); err == nil {
		t.Error("expected error for empty url")
	}
}
