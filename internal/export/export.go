// Package export builds report previews and tracks simulated report
// generation through the upload tracker.
package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/design-review/backend/internal/models"
	"github.com/design-review/backend/internal/upload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest = errors.New("invalid export request")
	ErrNotFound       = errors.New("export not found")
)

// Format is an output format.
type Format struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	MimeType    string `json:"mimeType"`
}

// Section is a report section.
type Section struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Formats lists every known output format.
var Formats = []Format{
	{"pdf", "PDF Report", "Professional compliance report", "pdf", "application/pdf"},
	{"excel", "Excel Spreadsheet", "Data analysis and calculations", "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{"csv", "CSV Data", "Raw data for external tools", "csv", "text/csv"},
	{"json", "JSON Export", "Structured data format", "json", "application/json"},
}

// Sections lists every known report section in report order.
var Sections = []Section{
	{"summary", "Executive Summary", "Project overview and key findings"},
	{"compliance", "Compliance Analysis", "Code compliance status and issues"},
	{"technical", "Technical Specifications", "Equipment and system details"},
	{"calculations", "Engineering Calculations", "Load calculations and sizing"},
	{"recommendations", "Recommendations", "Improvement suggestions"},
	{"appendix", "Appendices", "Supporting documents and references"},
}

// Request selects what to export.
type Request struct {
	Project  string   `json:"project"`
	Formats  []string `json:"formats"`
	Sections []string `json:"sections"`
}

// Preview estimates the report a request would produce.
type Preview struct {
	Project         string    `json:"project"`
	Formats         []Format  `json:"formats"`
	Sections        []Section `json:"sections"`
	EstimatedPages  int       `json:"estimatedPages"`
	EstimatedSizeMB float64   `json:"estimatedSizeMb"`
	EstimatedSize   string    `json:"estimatedSize"`
	FileNames       []string  `json:"fileNames"`
}

// BuildPreview validates r and estimates its output. Sections come back in
// report order regardless of request order.
func BuildPreview(r Request) (Preview, error) {
	project := strings.TrimSpace(r.Project)
	if project == "" {
		return Preview{}, fmt.Errorf("%w: project is required", ErrInvalidRequest)
	}
	if len(r.Formats) == 0 {
		return Preview{}, fmt.Errorf("%w: at least one format is required", ErrInvalidRequest)
	}

	formats, err := pick(Formats, r.Formats, func(f Format) string { return f.ID }, "format")
	if err != nil {
		return Preview{}, err
	}
	sections, err := pick(Sections, r.Sections, func(s Section) string { return s.ID }, "section")
	if err != nil {
		return Preview{}, err
	}

	sizeMB := math.Round((float64(len(sections))*0.8+1.2)*10) / 10
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = FileName(project, f)
	}

	return Preview{
		Project:         project,
		Formats:         formats,
		Sections:        sections,
		EstimatedPages:  len(sections)*3 + 2,
		EstimatedSizeMB: sizeMB,
		EstimatedSize:   fmt.Sprintf("%.1f MB", sizeMB),
		FileNames:       names,
	}, nil
}

// FileName is the download name for a project report in format f.
func FileName(project string, f Format) string {
	return project + "-report." + f.Extension
}

// pick returns the known items whose id was requested, in known order.
func pick[T any](known []T, ids []string, id func(T) string, kind string) ([]T, error) {
	index := make(map[string]bool, len(known))
	for _, item := range known {
		index[id(item)] = true
	}
	want := make(map[string]bool, len(ids))
	for _, raw := range ids {
		if !index[raw] {
			return nil, fmt.Errorf("%w: unknown %s %q", ErrInvalidRequest, kind, raw)
		}
		want[raw] = true
	}

	out := make([]T, 0, len(want))
	for _, item := range known {
		if want[id(item)] {
			out = append(out, item)
		}
	}
	return out, nil
}

// Job is a started export.
type Job struct {
	ID        string    `json:"id"`
	Preview   Preview   `json:"preview"`
	FileIDs   []string  `json:"fileIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobView is a job with its files' current state.
type JobView struct {
	Job
	Files    []models.TrackedFile `json:"files"`
	Progress float64              `json:"progress"`
	Done     bool                 `json:"done"`
}

// Service runs export jobs.
type Service struct {
	tracker *upload.Tracker
	preset  upload.Preset
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*jobState
}

// jobState keeps a job and, once every file has finished, the files' final
// state so the job outlives tracker cleanup.
type jobState struct {
	job   Job
	final []models.TrackedFile
}

// NewService creates an export service. Jobs run until they finish or the
// service is closed.
func NewService(tracker *upload.Tracker, preset upload.Preset, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		tracker: tracker,
		preset:  preset,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*jobState),
	}
}

// Start validates r and begins generating one file per format.
func (s *Service) Start(r Request) (JobView, error) {
	preview, err := BuildPreview(r)
	if err != nil {
		return JobView{}, err
	}

	bytes := int64(preview.EstimatedSizeMB * 1024 * 1024)
	files := make([]models.TrackedFile, len(preview.Formats))
	for i, f := range preview.Formats {
		files[i] = models.TrackedFile{
			Name: preview.FileNames[i],
			Size: bytes,
			Type: f.MimeType,
		}
	}

	started, err := s.tracker.Start(s.ctx, s.preset, files...)
	if err != nil {
		return JobView{}, fmt.Errorf("starting export: %w", err)
	}

	job := Job{ID: uuid.New().String(), Preview: preview, CreatedAt: time.Now()}
	for _, f := range started {
		job.FileIDs = append(job.FileIDs, f.ID)
	}

	st := &jobState{job: job}
	s.mu.Lock()
	s.jobs[job.ID] = st
	s.mu.Unlock()

	s.wg.Add(1)
	go s.settle(st)

	s.logger.Info("export started",
		zap.String("job", shortID(job.ID)),
		zap.String("project", preview.Project),
		zap.Int("formats", len(preview.Formats)),
		zap.Int("sections", len(preview.Sections)))

	return s.view(st), nil
}

// Get returns a job with live progress.
func (s *Service) Get(id string) (JobView, error) {
	s.mu.RLock()
	st, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return JobView{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.view(st), nil
}

// Close cancels running exports and waits for their bookkeeping to stop.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// settle waits for every file of a job and records their final state.
func (s *Service) settle(st *jobState) {
	defer s.wg.Done()

	final := make([]models.TrackedFile, 0, len(st.job.FileIDs))
	for _, id := range st.job.FileIDs {
		f, err := s.tracker.Wait(s.ctx, id)
		if errors.Is(err, upload.ErrNotFound) {
			continue
		}
		if err != nil {
			return
		}
		final = append(final, f)
	}

	s.mu.Lock()
	st.final = final
	s.mu.Unlock()
	s.logger.Info("export finished", zap.String("job", shortID(st.job.ID)))
}

// view averages file progress. A job is done once every file is terminal.
func (s *Service) view(st *jobState) JobView {
	s.mu.RLock()
	job, files := st.job, st.final
	s.mu.RUnlock()
	if files == nil {
		files = s.tracker.Lookup(job.FileIDs)
	}

	v := JobView{Job: job, Files: files, Done: len(files) > 0}
	var total float64
	for _, f := range files {
		total += f.Progress
		if !f.Status.Terminal() {
			v.Done = false
		}
	}
	if len(files) > 0 {
		v.Progress = total / float64(len(files))
	}
	return v
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
