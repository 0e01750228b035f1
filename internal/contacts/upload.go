// Package contacts prepares CSV files of contacts and uploads them through
// the marketing import endpoint.
package contacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Helveg/sendgrid-template-manager/internal/sendgrid"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client is the part of the SendGrid API an Uploader needs.
type Client interface {
	ListFields(ctx context.Context) ([]types.Field, error)
	RequestImport(ctx context.Context, req types.ImportRequest) (*types.ImportJob, error)
	UploadCSV(ctx context.Context, job types.ImportJob, body io.Reader) (*sendgrid.UploadResult, error)
}

// Options controls how a CSV is split and where its contacts go.
type Options struct {
	Crop       int
	Split      int
	Skip       int
	Lists      []string
	RoundRobin bool
	// TempDir is where split files are written; empty means os.TempDir().
	TempDir string
}

func (o Options) reshapes() bool {
	return o.Crop > 0 || o.Split > 0 || o.Skip > 0
}

// listsFor returns the lists job i adds its contacts to.
func (o Options) listsFor(i int) []string {
	if len(o.Lists) == 0 {
		return nil
	}
	if o.RoundRobin {
		return []string{o.Lists[i%len(o.Lists)]}
	}
	return o.Lists
}

// Job is one file to upload.
type Job struct {
	Index int
	Path  string
	Rows  int
	Lists []string
}

// Plan is a prepared upload.
type Plan struct {
	Source   string
	Table    *Table
	Mappings []Mapping
	Jobs     []Job
	// Dir holds the split files; empty when the source is uploaded as is.
	Dir string
}

// Cleanup removes the split files.
func (p *Plan) Cleanup() error {
	if p.Dir == "" {
		return nil
	}
	return os.RemoveAll(p.Dir)
}

// JobOutcome is the result of uploading one file.
type JobOutcome struct {
	Job        Job
	ImportID   string
	StatusCode int
	Body       string
	Err        error
}

// OK reports whether the upload server accepted the file.
func (o JobOutcome) OK() bool {
	return o.Err == nil && o.StatusCode == 200
}

// Uploader runs contact uploads.
type Uploader struct {
	client Client
	logger *zap.Logger
}

// NewUploader creates an Uploader.
func NewUploader(client Client, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{client: client, logger: logger}
}

// Prepare parses the CSV, maps its columns to contact fields and, when the
// options reshape the data, writes the split files.
func (u *Uploader) Prepare(ctx context.Context, source string, opts Options) (*Plan, error) {
	table, err := ReadCSV(source)
	if err != nil {
		return nil, err
	}
	u.logger.Debug("CSV parsed", zap.String("file", source), zap.Int("records", len(table.Rows)))

	fields, err := u.client.ListFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fields: %w", err)
	}
	plan := &Plan{
		Source:   source,
		Table:    table,
		Mappings: MapFields(table.Header, fields),
	}

	if !opts.reshapes() {
		plan.Jobs = []Job{{Path: source, Rows: len(table.Rows), Lists: opts.listsFor(0)}}
		return plan, nil
	}

	chunks, err := Chunk(table.Rows, opts.Crop, opts.Split, opts.Skip)
	if err != nil {
		return nil, err
	}
	base := opts.TempDir
	if base == "" {
		base = os.TempDir()
	}
	plan.Dir = filepath.Join(base, uuid.NewString())
	if err := os.MkdirAll(plan.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", plan.Dir, err)
	}
	for i, rows := range chunks {
		path, err := WriteCSV(plan.Dir, fmt.Sprintf("file%d.csv", i), table.Header, rows)
		if err != nil {
			_ = plan.Cleanup()
			return nil, err
		}
		plan.Jobs = append(plan.Jobs, Job{Index: i, Path: path, Rows: len(rows), Lists: opts.listsFor(i)})
	}
	u.logger.Debug("CSV split", zap.String("dir", plan.Dir), zap.Int("files", len(plan.Jobs)))
	return plan, nil
}

// Upload runs every job of plan concurrently. Each job requests its own import
// and uploads its file; failures are recorded per job.
func (u *Uploader) Upload(ctx context.Context, plan *Plan) []JobOutcome {
	mappings := FieldMappings(plan.Mappings)
	outcomes := make([]JobOutcome, len(plan.Jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, job := range plan.Jobs {
		eg.Go(func() error {
			outcomes[i] = u.upload(egCtx, job, mappings)
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

func (u *Uploader) upload(ctx context.Context, job Job, mappings []*string) JobOutcome {
	outcome := JobOutcome{Job: job}
	logger := u.logger.With(zap.Int("job", job.Index), zap.String("file", job.Path))

	imp, err := u.client.RequestImport(ctx, types.ImportRequest{
		ListIDs:       job.Lists,
		FileType:      "csv",
		FieldMappings: mappings,
	})
	if err != nil {
		outcome.Err = fmt.Errorf("failed to request import: %w", err)
		logger.Warn("Import request failed", zap.Error(err))
		return outcome
	}
	outcome.ImportID = imp.JobID

	f, err := os.Open(job.Path)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to open %s: %w", job.Path, err)
		return outcome
	}
	defer f.Close()

	res, err := u.client.UploadCSV(ctx, *imp, f)
	if err != nil {
		outcome.Err = err
		logger.Warn("Upload failed", zap.String("import", imp.JobID), zap.Error(err))
		return outcome
	}
	outcome.StatusCode = res.StatusCode
	if !res.OK() {
		outcome.Body = res.Body
	}
	logger.Info("CSV uploaded", zap.String("import", imp.JobID), zap.Int("status", res.StatusCode))
	return outcome
}
