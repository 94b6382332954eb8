package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/segmentio/parquet-go"
)

// archiveRow is the flattened Parquet shape of an audit entry. Details are
// carried as a JSON string since archives are for compliance review, not
// structured re-querying.
type archiveRow struct {
	ID           string `parquet:"id"`
	UserID       string `parquet:"user_id"`
	Action       string `parquet:"action"`
	ResourceType string `parquet:"resource_type"`
	ResourceID   string `parquet:"resource_id"`
	Timestamp    int64  `parquet:"timestamp"` // unix milliseconds
	IPAddress    string `parquet:"ip_address"`
	UserAgent    string `parquet:"user_agent"`
	Details      string `parquet:"details"`
	Result       string `parquet:"result"`
	Error        string `parquet:"error"`
}

// ExportParquet writes the entries matching opts to a Parquet archive file
// and returns the number of rows written.
func (l *Logger) ExportParquet(ctx context.Context, path string, opts QueryOptions) (int, error) {
	entries, err := l.store.Query(ctx, opts)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewWriter(file)
	written := 0
	for _, entry := range entries {
		row, err := toArchiveRow(entry)
		if err != nil {
			return written, err
		}
		if err := writer.Write(row); err != nil {
			return written, fmt.Errorf("failed to write archive row: %w", err)
		}
		written++
	}
	if err := writer.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return written, nil
}

// ReadParquet loads audit entries back from a Parquet archive file.
func ReadParquet(path string) ([]*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	entries := make([]*Entry, 0)
	for {
		var row archiveRow
		err := reader.Read(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive row: %w", err)
		}

		entry, err := fromArchiveRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func toArchiveRow(entry *Entry) (archiveRow, error) {
	row := archiveRow{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Action:       string(entry.Action),
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Timestamp:    entry.Timestamp.UnixMilli(),
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		Result:       string(entry.Result),
		Error:        entry.Error,
	}
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return archiveRow{}, fmt.Errorf("failed to marshal audit details: %w", err)
		}
		row.Details = string(data)
	}
	return row, nil
}

func fromArchiveRow(row archiveRow) (*Entry, error) {
	entry := &Entry{
		ID:           row.ID,
		UserID:       row.UserID,
		Action:       Action(row.Action),
		ResourceType: row.ResourceType,
		ResourceID:   row.ResourceID,
		Timestamp:    time.UnixMilli(row.Timestamp).UTC(),
		IPAddress:    row.IPAddress,
		UserAgent:    row.UserAgent,
		Result:       Result(row.Result),
		Error:        row.Error,
	}
	if row.Details != "" {
		if err := json.Unmarshal([]byte(row.Details), &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
		}
	}
	return entry, nil
}
