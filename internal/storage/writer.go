// Package storage persists generation batches to durable files under a
// per-owner namespace directory.
//
// LAYOUT:
//
//	{baseDir}/{owner}/{logicalName}_{timestamp}_{suffix}.{encoding}
//
// The timestamp has second resolution (matching the filenames users see in
// their download lists); the short random suffix exists because second
// resolution alone cannot distinguish two identical requests landing in the
// same second. The owner directory is created on first use and creation is
// idempotent.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/model"
)

// Writer serializes record batches to files. One Writer is constructed at
// startup and shared; it holds no mutable state beyond the clock hook.
type Writer struct {
	baseDir string
	now     func() time.Time
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, now: time.Now}
}

// WriteTabular persists a tabular batch. JSON keeps the full envelope of
// batch metadata (including the domain-source tag) plus records, so the
// fallback decision stays visible in the artifact itself. CSV flattens to
// records only, in the batch's column order.
func (w *Writer) WriteTabular(batch *model.TabularBatch, logicalName, encoding, owner string) (string, int64, error) {
	if encoding == model.EncodingCSV {
		return w.WriteRecords(batch.Records, batch.Columns, logicalName, encoding, owner)
	}

	if err := validEncoding(encoding); err != nil {
		return "", 0, err
	}
	path, err := w.targetPath(owner, logicalName, encoding)
	if err != nil {
		return "", 0, err
	}
	if err := writeJSONFile(path, batch); err != nil {
		return "", 0, err
	}
	return finish(path)
}

// WriteRecords persists flat records (tabular batches, flattened emails).
// columns fixes the CSV column order; it is ignored for JSON.
// Returns the storage path and the byte size of the written file.
func (w *Writer) WriteRecords(records []model.Record, columns []string, logicalName, encoding, owner string) (string, int64, error) {
	if err := validEncoding(encoding); err != nil {
		return "", 0, err
	}
	path, err := w.targetPath(owner, logicalName, encoding)
	if err != nil {
		return "", 0, err
	}

	switch encoding {
	case model.EncodingJSON:
		err = writeJSONFile(path, records)
	case model.EncodingCSV:
		if len(columns) == 0 {
			columns = unionColumns(records)
		}
		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			rows = append(rows, recordRow(rec, columns))
		}
		err = writeCSVFile(path, columns, rows)
	}
	if err != nil {
		return "", 0, err
	}
	return finish(path)
}

// WriteConversations persists chat transcripts. JSON keeps the nested
// conversation structure; CSV flattens to ONE ROW PER MESSAGE (not per
// conversation), each row carrying the parent conversation's identifying
// fields.
func (w *Writer) WriteConversations(convs []model.Conversation, logicalName, encoding, owner string) (string, int64, error) {
	if err := validEncoding(encoding); err != nil {
		return "", 0, err
	}
	path, err := w.targetPath(owner, logicalName, encoding)
	if err != nil {
		return "", 0, err
	}

	switch encoding {
	case model.EncodingJSON:
		err = writeJSONFile(path, convs)
	case model.EncodingCSV:
		columns := []string{"conversation_id", "domain", "role", "message", "timestamp", "turn"}
		var rows [][]string
		for _, c := range convs {
			for _, m := range c.Messages {
				rows = append(rows, []string{
					c.ConversationID, c.Domain, m.Role, m.Message,
					m.Timestamp, strconv.Itoa(m.Turn),
				})
			}
		}
		err = writeCSVFile(path, columns, rows)
	}
	if err != nil {
		return "", 0, err
	}
	return finish(path)
}

// WriteEmails persists email records. JSON keeps the full record structure;
// CSV flattens each email to one row.
func (w *Writer) WriteEmails(emails []model.EmailRecord, logicalName, encoding, owner string) (string, int64, error) {
	if encoding == model.EncodingCSV {
		records := make([]model.Record, 0, len(emails))
		for _, e := range emails {
			records = append(records, e.ToRecord())
		}
		return w.WriteRecords(records, model.EmailColumns, logicalName, encoding, owner)
	}

	if err := validEncoding(encoding); err != nil {
		return "", 0, err
	}
	path, err := w.targetPath(owner, logicalName, encoding)
	if err != nil {
		return "", 0, err
	}
	if err := writeJSONFile(path, emails); err != nil {
		return "", 0, err
	}
	return finish(path)
}

func validEncoding(encoding string) error {
	if encoding != model.EncodingJSON && encoding != model.EncodingCSV {
		return apperror.ValidationFailed("format", "format must be 'json' or 'csv'")
	}
	return nil
}

// targetPath creates the owner namespace (idempotent) and returns the full
// physical path for a new artifact.
func (w *Writer) targetPath(owner, logicalName, encoding string) (string, error) {
	dir := filepath.Join(w.baseDir, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: creating namespace %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_%s_%s.%s",
		logicalName, w.now().Format("20060102_150405"), xid.New().String(), encoding)
	return filepath.Join(dir, name), nil
}

// writeJSONFile writes v pretty-printed. Escaping is disabled so non-ASCII
// text in templates (degree signs, names) is preserved as-is.
func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("storage: encoding json to %s: %w", path, err)
	}
	return nil
}

func writeCSVFile(path string, columns []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("storage: writing csv header to %s: %w", path, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("storage: writing csv row to %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("storage: flushing csv to %s: %w", path, err)
	}
	return nil
}

// finish stats the written file and returns (path, size).
func finish(path string) (string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return path, info.Size(), nil
}

// recordRow renders one record in the given column order. Missing keys
// become empty cells.
func recordRow(rec model.Record, columns []string) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = cellString(rec[col])
	}
	return row
}

// cellString renders a record value for CSV without the scientific notation
// or trailing zeros fmt.Sprintf("%v") would sometimes produce for floats.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// unionColumns is the fallback column set when the caller didn't provide
// one: the sorted union of keys across all records.
func unionColumns(records []model.Record) []string {
	seen := map[string]bool{}
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}
