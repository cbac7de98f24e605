// Package export streams the lead collection as CSV using keyset pagination.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/observability"
)

// DefaultBatchSize is the number of leads fetched per round trip.
const DefaultBatchSize = 1000

const (
	byteOrderMark = "\uFEFF"
	timeLayout    = "2006-01-02T15:04:05.000Z"
)

// Columns is the fixed CSV header.
var Columns = []string{
	"id", "name", "email", "telephone", "position", "message", "utm_source",
	"utm_medium", "utm_campaign", "utm_term", "utm_content", "gclid",
	"fbclid", "createdAt", "updatedAt",
}

// ErrCursorStalled is returned when a batch does not move past the cursor.
var ErrCursorStalled = errors.New("export cursor did not advance")

// LeadSource is the keyset page query the exporter depends on.
type LeadSource interface {
	ListAfter(ctx context.Context, cursor string, limit int) ([]domain.Lead, error)
}

// Exporter renders leads to CSV one batch at a time.
type Exporter struct {
	source    LeadSource
	batchSize int
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewExporter builds an exporter. Non-positive batch sizes use DefaultBatchSize.
func NewExporter(source LeadSource, batchSize int, logger *zap.Logger, metrics *observability.Metrics) *Exporter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{source: source, batchSize: batchSize, logger: logger, metrics: metrics}
}

// Export writes the BOM, the header and every lead in ascending id order to w.
// Each row is flushed to w before the next is encoded, and the next batch is
// fetched only after the current one is fully written. It returns the number
// of data rows written; on error, w holds a truncated document.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	if _, err := io.WriteString(w, byteOrderMark); err != nil {
		return 0, fmt.Errorf("write bom: %w", err)
	}

	enc := csv.NewWriter(w)
	if err := writeRecord(enc, Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	cursor := ""
	record := make([]string, len(Columns))
	for {
		batch, err := e.source.ListAfter(ctx, cursor, e.batchSize)
		if err != nil {
			return rows, fmt.Errorf("fetch batch after %q: %w", cursor, err)
		}
		if len(batch) == 0 {
			return rows, nil
		}

		for i := range batch {
			fillRecord(record, &batch[i])
			if err := writeRecord(enc, record); err != nil {
				return rows, fmt.Errorf("write row %s: %w", batch[i].ID, err)
			}
			rows++
		}

		last := batch[len(batch)-1].ID
		if last <= cursor {
			return rows, fmt.Errorf("%w: %q after %q", ErrCursorStalled, last, cursor)
		}
		cursor = last

		// a short page means the collection is exhausted
		if len(batch) < e.batchSize {
			return rows, nil
		}
	}
}

// Pipe runs Export in its own goroutine and returns the reading end of the
// stream. A failed export closes the pipe with the error so the consumer
// aborts instead of seeing a clean EOF; closing the reader stops the export
// at its next row write.
func (e *Exporter) Pipe(ctx context.Context) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		started := time.Now()
		rows, err := e.Export(ctx, pw)
		e.metrics.RecordExport(rows, err)
		if err != nil {
			e.logger.Error("lead export aborted",
				zap.Int("rows", rows),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(err))
			_ = pw.CloseWithError(err)
			return
		}
		e.logger.Info("lead export finished",
			zap.Int("rows", rows),
			zap.Duration("elapsed", time.Since(started)))
		_ = pw.Close()
	}()
	return pr
}

func writeRecord(enc *csv.Writer, record []string) error {
	if err := enc.Write(record); err != nil {
		return err
	}
	enc.Flush()
	return enc.Error()
}

func fillRecord(record []string, lead *domain.Lead) {
	record[0] = lead.ID
	record[1] = lead.Name
	record[2] = lead.Email
	record[3] = lead.Telephone
	record[4] = lead.Position
	record[5] = lead.Message
	record[6] = deref(lead.UTMSource)
	record[7] = deref(lead.UTMMedium)
	record[8] = deref(lead.UTMCampaign)
	record[9] = deref(lead.UTMTerm)
	record[10] = deref(lead.UTMContent)
	record[11] = deref(lead.GCLID)
	record[12] = deref(lead.FBCLID)
	record[13] = formatTime(lead.CreatedAt)
	record[14] = formatTime(lead.UpdatedAt)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
