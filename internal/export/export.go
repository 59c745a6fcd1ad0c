// Package export writes a project's responses as CSV to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/pkg/logger"
	"github.com/unified-feedback/unified/backend/pkg/metrics"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// Uploader is the object store the CSV lands in.
type Uploader interface {
	UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// ResponseSource lists a project's responses for its owner.
type ResponseSource interface {
	ListByProject(ctx context.Context, ownerID, projectID string) (*form.Project, []*form.Feedback, error)
}

// Result describes an uploaded export.
type Result struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WriteCSV writes one header row (id, timestamp, field labels in order, then
// stale answer keys sorted) and one row per response.
func WriteCSV(w io.Writer, p *form.Project, list []*form.Feedback) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "timestamp"}
	keys := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		header = append(header, f.Label)
		keys = append(keys, f.ID)
	}
	staleSet := map[string]struct{}{}
	for _, fb := range list {
		for k := range fb.Answers {
			if _, ok := form.LabelFor(p, k); !ok {
				staleSet[k] = struct{}{}
			}
		}
	}
	stale := make([]string, 0, len(staleSet))
	for k := range staleSet {
		stale = append(stale, k)
	}
	sort.Strings(stale)
	header = append(header, stale...)
	keys = append(keys, stale...)

	if err := cw.Write(header); err != nil {
		return err
	}
	for _, fb := range list {
		row := []string{fb.ID, fb.SubmittedAt.UTC().Format(time.RFC3339)}
		for _, k := range keys {
			row = append(row, form.Text(fb.Answers[k]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func prefix(projectID string) string { return "exports/" + projectID + "/" }

type Exporter struct {
	responses ResponseSource
	up        Uploader
	expiry    time.Duration
	now       func() time.Time
}

// NewExporter wires exports. up may be nil, in which case Export reports
// ErrNotConfigured.
func NewExporter(responses ResponseSource, up Uploader, expiry time.Duration) *Exporter {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Exporter{responses: responses, up: up, expiry: expiry, now: time.Now}
}

func (e *Exporter) Configured() bool { return e.up != nil }

// Export uploads the project's responses and returns a presigned link.
func (e *Exporter) Export(ctx context.Context, ownerID, projectID string) (res *Result, err error) {
	if e.up == nil {
		return nil, ErrNotConfigured
	}
	defer func() { metrics.Exports.WithLabelValues(metrics.Outcome(err)).Inc() }()
	p, list, err := e.responses.ListByProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, p, list); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	now := e.now().UTC()
	key := prefix(p.ID) + now.Format("20060102T150405Z") + ".csv"
	if err := e.up.UploadFile(ctx, key, &buf, int64(buf.Len()), "text/csv"); err != nil {
		return nil, apperr.Upstream("upload export", err)
	}
	url, err := e.up.GetPresignedURL(ctx, key, e.expiry)
	if err != nil {
		return nil, apperr.Upstream("sign export url", err)
	}
	logger.Infof("export: %s: %d rows to %s", p.ID, len(list), key)
	return &Result{Key: key, URL: url, Rows: len(list), ExpiresAt: now.Add(e.expiry)}, nil
}

// DeleteByProject removes stored exports of projectID.
func (e *Exporter) DeleteByProject(ctx context.Context, projectID string) (int, error) {
	if e.up == nil {
		return 0, nil
	}
	return e.up.DeletePrefix(ctx, prefix(projectID))
}
