package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
)

// utf8BOM makes spreadsheet tools decode the file as UTF-8; without it
// Korean text renders as mojibake in Excel.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const timestampLayout = "2006-01-02 15:04:05"

var header = []string{"session_id", "model", "timestamp", "role", "message"}

// WriteCSV serializes the export log as a comma-separated table with a
// header row, preserving record order.
func WriteCSV(w io.Writer, records []chat.LogRecord) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.SessionID,
			record.Model,
			record.Timestamp.Format(timestampLayout),
			string(record.Role),
			record.Message,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename names the downloadable artifact after the session.
func Filename(sessionID string) string {
	return fmt.Sprintf("counseling_log_%s.csv", sessionID)
}
