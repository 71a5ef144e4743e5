package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drawbom/internal"
	"drawbom/internal/storage"
)

const DefaultConcurrency = 5

type DocStatus string

const (
	StatusOK     DocStatus = "ok"
	StatusWarned DocStatus = "warned"
	StatusFailed DocStatus = "failed"
)

// FileProcessor is the per-document pipeline run by the batch driver.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (internal.AnalyzedFile, error)
}

// ProgressFunc observes per-document completion. Optional; nil disables it.
type ProgressFunc func(done, total int, fileName string)

// BatchReport accumulates the outcome of one batch invocation. It is the
// only state shared across concurrent document tasks; appends are atomic,
// line order is completion order.
type BatchReport struct {
	mu        sync.Mutex
	Lines     []string
	Total     int
	Succeeded int
	Failed    int
	Warned    int
}

func (r *BatchReport) record(status DocStatus, line string) (done int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, line)
	switch status {
	case StatusOK:
		r.Succeeded++
	case StatusWarned:
		r.Warned++
	case StatusFailed:
		r.Failed++
	}
	return r.Succeeded + r.Warned + r.Failed
}

func (r *BatchReport) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("total=%d ok=%d failed=%d warned=%d\n", r.Total, r.Succeeded, r.Failed, r.Warned))
	for _, line := range r.Lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Driver runs the per-document pipeline over a set of files: consecutive
// groups of at most width documents, groups strictly sequential, documents
// within a group concurrent. A failing document never aborts the batch.
type Driver struct {
	proc     FileProcessor
	db       *storage.DB
	log      *zap.Logger
	width    int
	progress ProgressFunc
}

func NewDriver(proc FileProcessor, db *storage.DB, log *zap.Logger, width int) *Driver {
	if width <= 0 {
		width = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{proc: proc, db: db, log: log, width: width}
}

func (d *Driver) SetProgress(fn ProgressFunc) {
	d.progress = fn
}

// Run processes every path and returns the successful results plus the run
// report. Results keep input order; report lines are completion order; every
// path is accounted for exactly once.
func (d *Driver) Run(ctx context.Context, paths []string) ([]internal.AnalyzedFile, *BatchReport) {
	report := &BatchReport{Total: len(paths)}
	runID := uuid.New().String()
	start := time.Now()

	d.log.Info("batch.start",
		zap.String("run_id", runID),
		zap.Int("total_files", len(paths)),
		zap.Int("concurrency", d.width),
	)

	// Results land in the slot of their input position so the export sees
	// document order, no matter in which order tasks complete. Per-slot
	// writes from sibling goroutines need no mutex.
	results := make([]internal.AnalyzedFile, len(paths))
	kept := make([]bool, len(paths))

	for offset := 0; offset < len(paths); offset += d.width {
		end := offset + d.width
		if end > len(paths) {
			end = len(paths)
		}

		var wg sync.WaitGroup
		for i := offset; i < end; i++ {
			wg.Add(1)
			go func(idx int, path string) {
				defer wg.Done()
				result, err := d.proc.ProcessFile(ctx, path)
				if err == nil && len(result.BomItems) > 0 {
					results[idx] = result
					kept[idx] = true
				}
				d.settle(runID, path, result, err, report)
			}(i, paths[i])
		}
		wg.Wait()
	}

	files := make([]internal.AnalyzedFile, 0, len(paths))
	for i, keep := range kept {
		if keep {
			files = append(files, results[i])
		}
	}

	elapsed := time.Since(start)
	if d.db != nil {
		if err := d.db.InsertRun(runID, report.Total, report.Succeeded, report.Failed, report.Warned, float64(elapsed.Milliseconds())); err != nil {
			d.log.Error("batch.run.persist_error", zap.String("run_id", runID), zap.Error(err))
		}
	}

	d.log.Info("batch.complete",
		zap.String("run_id", runID),
		zap.Int("total_files", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("warned", report.Warned),
		zap.Int64("elapsed_ms", elapsed.Milliseconds()),
	)
	return files, report
}

func (d *Driver) settle(runID, path string, result internal.AnalyzedFile, err error, report *BatchReport) {
	name := filepath.Base(path)

	var status DocStatus
	var line string
	switch {
	case err != nil:
		status = StatusFailed
		line = fmt.Sprintf("FAIL %s: %v", name, err)
	case len(result.BomItems) == 0:
		status = StatusWarned
		line = fmt.Sprintf("WARN %s: no BOM items extracted", name)
	default:
		status = StatusOK
		line = fmt.Sprintf("OK %s: %d items", name, len(result.BomItems))
	}
	done := report.record(status, line)

	switch status {
	case StatusFailed:
		d.log.Error("batch.document.failed", zap.String("run_id", runID), zap.String("file", name), zap.Error(err))
	case StatusWarned:
		d.log.Warn("batch.document.empty", zap.String("run_id", runID), zap.String("file", name))
	default:
		d.log.Info("batch.document.ok", zap.String("run_id", runID), zap.String("file", name), zap.Int("items", len(result.BomItems)))
	}

	if d.db != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		if dbErr := d.db.InsertDocument(runID, name, string(status), len(result.BomItems), errMsg, result.BomItems); dbErr != nil {
			d.log.Error("batch.document.persist_error", zap.String("run_id", runID), zap.String("file", name), zap.Error(dbErr))
		}
	}

	if d.progress != nil {
		d.progress(done, report.Total, name)
	}
}
