package testutil

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
)

func TestStubConnUpsertAndFilteredSelect(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	insert := "INSERT INTO state (bucket, payload) VALUES ($1, $2) ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload"
	for _, args := range [][]driver.NamedValue{
		{{Value: "a"}, {Value: []byte("1")}},
		{{Value: "b"}, {Value: []byte("2")}},
		{{Value: "a"}, {Value: []byte("3")}},
	} {
		if _, err := conn.ExecContext(ctx, insert, args); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["state"]) != 2 {
		t.Fatalf("expected upsert to replace row, got %v", conn.Tables["state"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT payload FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "a"}})
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(dest[0].([]byte)) != "3" {
		t.Fatalf("unexpected payload %v", dest[0])
	}
	if err := rows.Next(dest); err != io.EOF {
		t.Fatalf("expected single row, got %v", err)
	}
}

func TestStubConnFailures(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailTables = map[string]bool{"state": true}
	if _, err := conn.QueryContext(ctx, "SELECT payload FROM state", nil); err == nil {
		t.Fatalf("expected query failure")
	}
	conn.FailExec = true
	if _, err := conn.ExecContext(ctx, "CREATE TABLE x (a TEXT)", nil); err == nil {
		t.Fatalf("expected exec failure")
	}
	if len(conn.Execs) != 1 {
		t.Fatalf("expected statement to be recorded, got %v", conn.Execs)
	}
}
