package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

type tableSource struct{ table *sheets.Table }

func (s tableSource) Name() string { return "test" }

func (s tableSource) Fetch(ctx context.Context) (*sheets.Table, error) { return s.table, nil }

func setupServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := refresh.New(db, config.Default(), nil)
	src := tableSource{table: &sheets.Table{
		Header: []string{"สถานที่ส่ง", "จังหวัด", "Driver", "ผู้แทน"},
		Rows: [][]string{
			{"Hospital X", "P", "A", ""},
			{"Hospital X", "P", "A+B", ""},
			{"Market Y", "Q", "B", ""},
		},
	}}
	if _, err := svc.Refresh(context.Background(), src, refresh.Options{}); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	return New(svc, db, "test", nil)
}

// call sends requests through Serve and returns the decoded responses
func call(t *testing.T, s *Server, requests ...string) []jsonRPCResponse {
	t.Helper()

	var out strings.Builder
	if err := s.Serve(context.Background(), strings.NewReader(strings.Join(requests, "\n")+"\n"), &out); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var responses []jsonRPCResponse
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var r jsonRPCResponse
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("invalid response %q: %v", scanner.Text(), err)
		}
		responses = append(responses, r)
	}
	return responses
}

func toolText(t *testing.T, r jsonRPCResponse) (string, bool) {
	t.Helper()
	raw, _ := json.Marshal(r.Result)
	var res callToolResult
	if err := json.Unmarshal(raw, &res); err != nil || len(res.Content) == 0 {
		t.Fatalf("unexpected tool result: %s", raw)
	}
	return res.Content[0].Text, res.IsError
}

func TestServe_Initialize(t *testing.T) {
	s := setupServer(t)
	responses := call(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses (notification has none), got %d", len(responses))
	}

	raw, _ := json.Marshal(responses[1].Result)
	for _, name := range []string{"rank_drivers", "list_drivers", "get_driver", "search_locations"} {
		if !strings.Contains(string(raw), name) {
			t.Errorf("tools/list missing %s", name)
		}
	}
}

func TestServe_RankDrivers(t *testing.T) {
	s := setupServer(t)
	responses := call(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"rank_drivers","arguments":{"destinations":[{"name":"Hospital X"}],"mode":"actual"}}}`,
	)

	text, isErr := toolText(t, responses[0])
	if isErr {
		t.Fatalf("tool error: %s", text)
	}

	var ranking struct {
		Destinations []struct {
			Province string `json:"province"`
		} `json:"destinations"`
		Results []struct {
			Driver     string `json:"driver"`
			TotalTrips int    `json:"total_trips"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &ranking); err != nil {
		t.Fatalf("invalid ranking json: %v", err)
	}
	if ranking.Results[0].Driver != "A" || ranking.Results[0].TotalTrips != 2 {
		t.Errorf("top result = %+v", ranking.Results[0])
	}
	if ranking.Destinations[0].Province != "P" {
		t.Errorf("province not filled: %+v", ranking.Destinations)
	}
}

func TestServe_ToolErrors(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name string
		req  string
	}{
		{"empty route", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"rank_drivers","arguments":{"destinations":[]}}}`},
		{"bad mode", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"rank_drivers","arguments":{"destinations":[{"name":"x"}],"mode":"fast"}}}`},
		{"unknown driver", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_driver","arguments":{"name":"Nobody"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := call(t, s, tt.req)
			if _, isErr := toolText(t, responses[0]); !isErr {
				t.Error("expected isError")
			}
		})
	}
}

func TestServe_DriversAndLocations(t *testing.T) {
	s := setupServer(t)
	responses := call(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_drivers","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_driver","arguments":{"name":"B"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search_locations","arguments":{"query":"market"}}}`,
	)

	drivers, _ := toolText(t, responses[0])
	if !strings.Contains(drivers, `"driver": "A"`) || !strings.Contains(drivers, `"driver": "B"`) {
		t.Errorf("list_drivers = %s", drivers)
	}

	profile, isErr := toolText(t, responses[1])
	if isErr || !strings.Contains(profile, "Market Y") {
		t.Errorf("get_driver = %s", profile)
	}

	locations, _ := toolText(t, responses[2])
	if !strings.Contains(locations, "Market Y") || strings.Contains(locations, "Hospital X") {
		t.Errorf("search_locations = %s", locations)
	}
}

func TestServe_Resources(t *testing.T) {
	s := setupServer(t)
	responses := call(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"driverrec://summary"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"driverrec://locations"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"driverrec://nope"}}`,
	)

	raw, _ := json.Marshal(responses[0].Result)
	if !strings.Contains(string(raw), "Trip records: 4") {
		t.Errorf("summary = %s", raw)
	}

	raw, _ = json.Marshal(responses[1].Result)
	if !strings.Contains(string(raw), "Hospital X (P)") {
		t.Errorf("locations = %s", raw)
	}

	if responses[2].Error == nil {
		t.Error("expected error for unknown resource")
	}
}

func TestServe_ParseError(t *testing.T) {
	s := setupServer(t)
	responses := call(t, s, `not json`, `{"jsonrpc":"2.0","id":1,"method":"nope"}`)

	if responses[0].Error == nil || responses[0].Error.Code != -32700 {
		t.Errorf("parse error response = %+v", responses[0])
	}
	if responses[1].Error == nil || responses[1].Error.Code != -32601 {
		t.Errorf("unknown method response = %+v", responses[1])
	}
}

func TestServe_ProtocolErrors(t *testing.T) {
	s := setupServer(t)
	responses := call(t, s,
		``,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":"oops"}`,
		`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":9,"method":"resources/read","params":[1]}`,
		`{"jsonrpc":"2.0","id":"abc","method":"initialize"}`,
	)

	if len(responses) != 4 {
		t.Fatalf("expected 4 responses (blank line skipped), got %d", len(responses))
	}
	for i, want := range []float64{7, 8, 9} {
		r := responses[i]
		if r.Error == nil || r.Error.Code != codeInvalidParams || r.ID != want {
			t.Errorf("response %d = %+v, want invalid params for id %v", i, r, want)
		}
	}
	if !strings.Contains(responses[1].Error.Message, "nope") {
		t.Errorf("unknown tool message = %q", responses[1].Error.Message)
	}

	raw, _ := json.Marshal(responses[3].Result)
	if responses[3].ID != "abc" || !strings.Contains(string(raw), protocolVersion) {
		t.Errorf("initialize = %s (id %v)", raw, responses[3].ID)
	}
}
