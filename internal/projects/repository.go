// Package projects persists the project list as a single JSON array under a
// fixed key of an injected key-value backend.
package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/design-review/backend/internal/kvstore"
	"github.com/design-review/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StorageKey is the key the project array lives under.
const StorageKey = "architectural-projects"

var (
	ErrNotFound        = errors.New("project not found")
	ErrVersionConflict = errors.New("project version conflict")
	ErrInvalid         = errors.New("invalid project")
)

var errCorrupt = errors.New("corrupt project list")

// Repository is the project persistence contract.
type Repository interface {
	List(ctx context.Context) []models.Project
	Get(ctx context.Context, id string) (models.Project, error)
	Save(ctx context.Context, p models.Project) (models.Project, error)
	Update(ctx context.Context, id string, patch Patch) (models.Project, error)
	Delete(ctx context.Context, id string) error
}

// Patch holds the fields to change in Update. Nil fields are left alone.
type Patch struct {
	Name            *string               `json:"name,omitempty"`
	Type            *string               `json:"type,omitempty"`
	Status          *models.ProjectStatus `json:"status,omitempty"`
	Progress        *int                  `json:"progress,omitempty"`
	Compliance      *int                  `json:"compliance,omitempty"`
	TotalChecks     *int                  `json:"totalChecks,omitempty"`
	Files           []string              `json:"files,omitempty"`
	Discipline      *string               `json:"discipline,omitempty"`
	Description     *string               `json:"description,omitempty"`
	ExpectedVersion *int                  `json:"expectedVersion,omitempty"`
}

// Store implements Repository on a kvstore.Backend. Writes from one process
// are serialized; separate processes sharing a backend are last-writer-wins.
type Store struct {
	backend kvstore.Backend
	mu      sync.Mutex
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore creates a project store.
func NewStore(backend kvstore.Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger, now: time.Now}
}

// List returns every stored project, newest save first. A missing, unreadable
// or corrupt list yields an empty result.
func (s *Store) List(ctx context.Context) []models.Project {
	projects, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("project list unreadable, treating as empty", zap.Error(err))
		return []models.Project{}
	}
	return projects
}

// Get returns one project.
func (s *Store) Get(ctx context.Context, id string) (models.Project, error) {
	for _, p := range s.List(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save stores p in front of every other project, replacing any record with
// the same id.
func (s *Store) Save(ctx context.Context, p models.Project) (models.Project, error) {
	if p.Name == "" {
		return models.Project{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if p.Status != "" && !models.ValidProjectStatus(p.Status) {
		return models.Project{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, p.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusInProgress
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	if p.Files == nil {
		p.Files = []string{}
	}

	existing, err := s.loadForWrite(ctx)
	if err != nil {
		return models.Project{}, err
	}
	updated := make([]models.Project, 0, len(existing)+1)
	updated = append(updated, p)
	prevVersion := 0
	for _, other := range existing {
		if other.ID == p.ID {
			prevVersion = other.Version
			continue
		}
		updated = append(updated, other)
	}
	updated[0].Version = prevVersion + 1

	if err := s.write(ctx, updated); err != nil {
		return models.Project{}, err
	}
	s.logger.Info("project saved", zap.String("id", p.ID), zap.String("name", p.Name))
	return updated[0], nil
}

// Update applies patch to the project with the given id and records the
// activity time. When patch.ExpectedVersion is set it must match.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (models.Project, error) {
	if patch.Status != nil && !models.ValidProjectStatus(*patch.Status) {
		return models.Project{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, *patch.Status)
	}
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		return models.Project{}, fmt.Errorf("%w: progress must be within 0-100", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadForWrite(ctx)
	if err != nil {
		return models.Project{}, err
	}
	idx := -1
	for i := range projects {
		if projects[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p := &projects[idx]
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != p.Version {
		return models.Project{}, fmt.Errorf("%w: expected version %d, stored version %d",
			ErrVersionConflict, *patch.ExpectedVersion, p.Version)
	}
	patch.apply(p)

	now := s.now().UTC()
	p.LastActivity = now.Format(time.RFC3339)
	p.UpdatedAt = &now
	p.Version++

	if err := s.write(ctx, projects); err != nil {
		return models.Project{}, err
	}
	return *p, nil
}

// Delete removes the project with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(projects) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.write(ctx, kept)
}

func (s *Store) load(ctx context.Context) ([]models.Project, error) {
	data, err := s.backend.Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []models.Project{}, nil
	}
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// loadForWrite is load for read-modify-write. A corrupt list is replaced by
// the next write; any backend failure aborts it so stored projects survive.
func (s *Store) loadForWrite(ctx context.Context) ([]models.Project, error) {
	projects, err := s.load(ctx)
	if errors.Is(err, errCorrupt) {
		s.logger.Warn("overwriting corrupt project list", zap.Error(err))
		return []models.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading project list: %w", err)
	}
	return projects, nil
}

func (s *Store) write(ctx context.Context, projects []models.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encoding project list: %w", err)
	}
	if err := s.backend.Put(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("writing project list: %w", err)
	}
	return nil
}

func (patch Patch) apply(p *models.Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Progress != nil {
		p.Progress = *patch.Progress
	}
	if patch.Compliance != nil {
		p.Compliance = *patch.Compliance
	}
	if patch.TotalChecks != nil {
		p.TotalChecks = *patch.TotalChecks
	}
	if patch.Files != nil {
		p.Files = patch.Files
	}
	if patch.Discipline != nil {
		p.Discipline = *patch.Discipline
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
}
