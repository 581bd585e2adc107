package ticket

import (
	"errors"
	"path/filepath"
	"testing"
)

func Test_ParseJSON_BareArray(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"id": "T-1", "query": "reset my password", "resolution": "Click forgot-password link", "category": "account"},
		{"id": "T-2", "question": "vpn not connecting", "answer": "Reinstall the VPN client"}
	]`)

	tickets, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("want 2 tickets, got %d", len(tickets))
	}
	if tickets[0].ID != "T-1" || tickets[0].Category != "account" {
		t.Errorf("ticket[0]: got %+v", tickets[0])
	}
	if tickets[1].Query != "vpn not connecting" || tickets[1].Resolution != "Reinstall the VPN client" {
		t.Errorf("question/answer aliases not normalised: got %+v", tickets[1])
	}
}

func Test_ParseJSON_TicketsEnvelope(t *testing.T) {
	t.Parallel()

	data := []byte(`{"tickets": [{"id": 42, "query": "q", "resolution": "r"}]}`)

	tickets, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("want 1 ticket, got %d", len(tickets))
	}
	if tickets[0].ID != "42" {
		t.Errorf("numeric id not coerced to string: got %q", tickets[0].ID)
	}
}

func Test_ParseJSON_DropsInvalidRecords(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"id": "ok", "query": "q", "resolution": "r"},
		{"id": "no-resolution", "query": "q"},
		{"id": "no-query", "resolution": "r"},
		{"id": "empty", "query": "", "resolution": ""}
	]`)

	tickets, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("want only the valid ticket, got %d", len(tickets))
	}
	if tickets[0].ID != "ok" {
		t.Errorf("wrong survivor: %q", tickets[0].ID)
	}
}

func Test_ParseJSON_PositionalIDs(t *testing.T) {
	t.Parallel()

	data := []byte(`[{"query": "q1", "resolution": "r1"}, {"query": "q2", "resolution": "r2"}]`)

	tickets, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tickets[0].ID != "1" || tickets[1].ID != "2" {
		t.Errorf("want positional ids 1,2, got %q,%q", tickets[0].ID, tickets[1].ID)
	}
}

func Test_ParseJSON_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := ParseJSON([]byte(`not-json`)); err == nil {
		t.Error("want error for malformed JSON, got nil")
	}
}

func Test_ParseCSV_HeaderAliases(t *testing.T) {
	t.Parallel()

	data := []byte("ticket_id,question,answer,category\nT-9,printer jam,Open tray B,hardware\n")

	tickets, err := ParseCSV(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("want 1 ticket, got %d", len(tickets))
	}
	got := tickets[0]
	if got.ID != "T-9" || got.Query != "printer jam" || got.Resolution != "Open tray B" || got.Category != "hardware" {
		t.Errorf("unexpected ticket: %+v", got)
	}
}

func Test_ParseCSV_PositionalIDAndFiltering(t *testing.T) {
	t.Parallel()

	data := []byte("query,resolution\nfirst q,first r\nmissing resolution,\n")

	tickets, err := ParseCSV(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("want 1 valid ticket, got %d", len(tickets))
	}
	if tickets[0].ID != "1" {
		t.Errorf("want positional id 1, got %q", tickets[0].ID)
	}
}

func Test_LoadFile_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("want ErrSourceUnavailable, got %v", err)
	}
}

func Test_LoadFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.xml")
	writeTestFile(t, path, "<tickets/>")

	if _, err := LoadFile(path); err == nil {
		t.Error("want error for unsupported extension, got nil")
	}
}

func Test_LoadFile_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.json")
	writeTestFile(t, path, `[{"id":"T-1","query":"q","resolution":"r"}]`)

	tickets, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != "T-1" {
		t.Errorf("unexpected tickets: %+v", tickets)
	}
}
