package gsheets

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	gidPattern           = regexp.MustCompile(`[#&?]gid=([0-9]+)`)
	bareIDPattern        = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
)

// Ref identifies one tab of a spreadsheet
type Ref struct {
	ID  string
	GID string
}

// ParseURL extracts the spreadsheet id and tab gid from a sharing URL.
// A bare spreadsheet id is also accepted. The gid defaults to "0".
func ParseURL(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, fmt.Errorf("spreadsheet url is empty")
	}

	ref := Ref{GID: "0"}
	if m := spreadsheetIDPattern.FindStringSubmatch(raw); m != nil {
		ref.ID = m[1]
	} else if bareIDPattern.MatchString(raw) {
		ref.ID = raw
	} else {
		return Ref{}, fmt.Errorf("could not find a spreadsheet id in %q", raw)
	}

	if m := gidPattern.FindStringSubmatch(raw); m != nil {
		ref.GID = m[1]
	}
	return ref, nil
}
