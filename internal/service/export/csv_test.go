package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
	"github.com/seohyun-lab/maum-counsel/backend/internal/service/export"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	records := []chat.LogRecord{
		{SessionID: "session_20260301103000", Model: "gemini-2.5-flash", Timestamp: ts, Role: chat.RoleUser, Message: "요즘 잠이 안 와요, 그리고 \"불안\"해요"},
		{SessionID: "session_20260301103000", Model: "gemini-2.5-flash", Timestamp: ts, Role: chat.RoleModel, Message: "말씀해 주셔서 감사합니다.\n천천히 이야기해 볼까요?"},
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV err: %v", err)
	}

	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("output missing UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}

	wantHeader := []string{"session_id", "model", "timestamp", "role", "message"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header[%d]: got %s want %s", i, rows[0][i], col)
		}
	}

	for i, record := range records {
		row := rows[i+1]
		if row[0] != record.SessionID || row[1] != record.Model {
			t.Fatalf("row %d identity mismatch: %v", i, row)
		}
		if row[2] != "2026-03-01 10:30:00" {
			t.Fatalf("row %d timestamp: %s", i, row[2])
		}
		if row[3] != string(record.Role) {
			t.Fatalf("row %d role: %s", i, row[3])
		}
		if row[4] != record.Message {
			t.Fatalf("row %d message mangled: %q", i, row[4])
		}
	}
}

func TestWriteCSVEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV err: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestFilename(t *testing.T) {
	got := export.Filename("session_20260301103000")
	if got != "counseling_log_session_20260301103000.csv" {
		t.Fatalf("unexpected filename: %s", got)
	}
}
