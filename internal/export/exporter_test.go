package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/observability"
)

const header = "id,name,email,telephone,position,message,utm_source,utm_medium,utm_campaign,utm_term,utm_content,gclid,fbclid,createdAt,updatedAt\n"

type fetch struct {
	cursor string
	limit  int
	got    int
}

type fakeSource struct {
	leads  []domain.Lead
	calls  []fetch
	failOn int // 1-based call number that fails; 0 never fails
}

func (f *fakeSource) ListAfter(_ context.Context, cursor string, limit int) ([]domain.Lead, error) {
	call := fetch{cursor: cursor, limit: limit}
	if f.failOn == len(f.calls)+1 {
		f.calls = append(f.calls, call)
		return nil, errors.New("connection reset by peer")
	}
	start := sort.Search(len(f.leads), func(i int) bool { return f.leads[i].ID > cursor })
	end := min(start+limit, len(f.leads))
	page := append([]domain.Lead(nil), f.leads[start:end]...)
	call.got = len(page)
	f.calls = append(f.calls, call)
	return page, nil
}

func makeLeads(n int) []domain.Lead {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	leads := make([]domain.Lead, n)
	for i := range leads {
		leads[i] = domain.Lead{
			ID:        fmt.Sprintf("lead-%05d", i+1),
			Name:      fmt.Sprintf("Lead %d", i+1),
			Email:     fmt.Sprintf("lead%d@example.com", i+1),
			Telephone: "11987654321",
			Position:  "CTO",
			Message:   "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return leads
}

func TestExportEmptyCollection(t *testing.T) {
	src := &fakeSource{}
	var buf bytes.Buffer

	rows, err := NewExporter(src, 1000, nil, nil).Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Equal(t, "\uFEFF"+header, buf.String())
	assert.Len(t, src.calls, 1)
}

func TestExportBatchesInAscendingOrder(t *testing.T) {
	src := &fakeSource{leads: makeLeads(2500)}
	var buf bytes.Buffer

	rows, err := NewExporter(src, 1000, nil, nil).Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2500, rows)

	require.Len(t, src.calls, 3)
	assert.Equal(t, []int{1000, 1000, 500}, []int{src.calls[0].got, src.calls[1].got, src.calls[2].got})
	assert.Equal(t, "", src.calls[0].cursor)
	assert.Equal(t, "lead-01000", src.calls[1].cursor)
	assert.Equal(t, "lead-02000", src.calls[2].cursor)

	body := strings.TrimPrefix(buf.String(), "\uFEFF")
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2501)
	assert.Equal(t, Columns, records[0])

	seen := make(map[string]bool, 2500)
	for i, rec := range records[1:] {
		assert.Equal(t, fmt.Sprintf("lead-%05d", i+1), rec[0])
		assert.False(t, seen[rec[0]], "duplicate %s", rec[0])
		seen[rec[0]] = true
	}
}

func TestExportExactMultipleEndsOnEmptyBatch(t *testing.T) {
	src := &fakeSource{leads: makeLeads(2000)}

	rows, err := NewExporter(src, 1000, nil, nil).Export(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2000, rows)
	require.Len(t, src.calls, 3)
	assert.Zero(t, src.calls[2].got)
}

func TestExportIsIdempotent(t *testing.T) {
	leads := makeLeads(1234)
	var first, second bytes.Buffer

	_, err := NewExporter(&fakeSource{leads: leads}, 100, nil, nil).Export(context.Background(), &first)
	require.NoError(t, err)
	_, err = NewExporter(&fakeSource{leads: leads}, 100, nil, nil).Export(context.Background(), &second)
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestExportRowFormatting(t *testing.T) {
	source := "google"
	lead := domain.Lead{
		ID:        "lead-1",
		Name:      `Ana "Ninja" Souza`,
		Email:     "ana@example.com",
		Telephone: "+55 11 98765-4321",
		Position:  "Dev, Sr",
		Message:   "line one\nline two",
		UTMSource: &source,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("BRT", -3*3600)),
	}
	var buf bytes.Buffer

	_, err := NewExporter(&fakeSource{leads: []domain.Lead{lead}}, 10, nil, nil).Export(context.Background(), &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\uFEFF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	row := records[1]
	assert.Equal(t, `Ana "Ninja" Souza`, row[1])
	assert.Equal(t, "Dev, Sr", row[4])
	assert.Equal(t, "line one\nline two", row[5])
	assert.Equal(t, "google", row[6])
	assert.Equal(t, "", row[7])
	assert.Equal(t, "2024-01-02T06:04:05.006Z", row[13])
	assert.Equal(t, "", row[14])
}

func TestExportFailsOnSecondFetch(t *testing.T) {
	src := &fakeSource{leads: makeLeads(2500), failOn: 2}
	var buf bytes.Buffer

	rows, err := NewExporter(src, 1000, nil, nil).Export(context.Background(), &buf)
	require.Error(t, err)
	assert.Equal(t, 1000, rows)
	assert.Len(t, src.calls, 2)

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\uFEFF"))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1001)
	assert.NotContains(t, buf.String(), "error")
}

type failingWriter struct {
	limit   int
	written int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, io.ErrClosedPipe
	}
	w.written += len(p)
	return len(p), nil
}

func TestExportStopsWhenSinkFails(t *testing.T) {
	src := &fakeSource{leads: makeLeads(2500)}
	sink := &failingWriter{limit: 4096}

	rows, err := NewExporter(src, 1000, nil, nil).Export(context.Background(), sink)
	require.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Less(t, rows, 1000)
	assert.Len(t, src.calls, 1)
}

type stuckSource struct{}

func (stuckSource) ListAfter(context.Context, string, int) ([]domain.Lead, error) {
	return makeLeads(2), nil
}

func TestExportDetectsStalledCursor(t *testing.T) {
	_, err := NewExporter(stuckSource{}, 2, nil, nil).Export(context.Background(), io.Discard)
	assert.ErrorIs(t, err, ErrCursorStalled)
}

func TestPipeDeliversWholeDocument(t *testing.T) {
	metrics := observability.NewMetrics()
	pr := NewExporter(&fakeSource{leads: makeLeads(30)}, 7, nil, metrics).Pipe(context.Background())

	data, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\uFEFF"+header))
	assert.Equal(t, 31, strings.Count(string(data), "\n"))
}

func TestPipeSurfacesFailureToReader(t *testing.T) {
	pr := NewExporter(&fakeSource{leads: makeLeads(30), failOn: 2}, 10, nil, nil).Pipe(context.Background())

	data, err := io.ReadAll(pr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 11, strings.Count(string(data), "\n"))
}

func TestPipeStopsWhenReaderCloses(t *testing.T) {
	src := &fakeSource{leads: makeLeads(5000)}
	done := make(chan struct{})
	exporter := NewExporter(src, 1000, nil, nil)

	pr, pw := io.Pipe()
	go func() {
		defer close(done)
		_, err := exporter.Export(context.Background(), pw)
		_ = pw.CloseWithError(err)
	}()

	buf := make([]byte, 512)
	_, err := io.ReadFull(pr, buf)
	require.NoError(t, err)
	require.NoError(t, pr.Close())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("export kept running after the reader closed")
	}
	assert.Len(t, src.calls, 1)
}
