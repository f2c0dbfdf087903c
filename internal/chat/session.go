package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/design-review/backend/internal/models"
	"github.com/design-review/backend/internal/projects"
	"github.com/design-review/backend/internal/responder"
	"github.com/design-review/backend/internal/upload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrChatDisabled      = errors.New("surface does not accept chat messages")
	ErrUploadsDisabled   = errors.New("surface does not accept uploads")
	ErrProjectsDisabled  = errors.New("surface cannot create projects")
	ErrIncompleteProject = errors.New("project details incomplete")
	ErrSessionClosed     = errors.New("session closed")
)

// Selection is the project and file the user has picked in the sidebars.
type Selection struct {
	Project string `json:"project,omitempty"`
	File    string `json:"file,omitempty"`
}

// ProjectDetails is the project creation form.
type ProjectDetails struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Discipline  string `json:"discipline"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// SendResult holds the messages appended by Send.
type SendResult struct {
	User            models.ConversationMessage  `json:"user"`
	Reply           *models.ConversationMessage `json:"reply,omitempty"`
	OpenProjectForm bool                        `json:"openProjectForm,omitempty"`
}

// UploadResult describes what Upload did with a batch.
type UploadResult struct {
	Files    []models.TrackedFile       `json:"files"`
	Rejected int                        `json:"rejected"`
	Message  models.ConversationMessage `json:"message"`
}

// SessionInfo is a snapshot of session metadata.
type SessionInfo struct {
	ID           string      `json:"id"`
	Surface      SurfaceInfo `json:"surface"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastActive   time.Time   `json:"lastActive"`
	MessageCount int         `json:"messageCount"`
	FileCount    int         `json:"fileCount"`
}

// Session is one conversation on one surface.
type Session struct {
	ID      string
	surface Surface

	catalog  *responder.Catalog
	tracker  *upload.Tracker
	projects projects.Repository
	logger   *zap.Logger

	// ctx bounds the session's uploads and delayed posts.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	messages   []models.ConversationMessage
	fileIDs    []string
	createdAt  time.Time
	lastActive time.Time
	closed     bool
}

func newSession(parent context.Context, m *Manager, surface Surface) *Session {
	ctx, cancel := context.WithCancel(parent)
	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		surface:    surface,
		catalog:    m.catalog,
		tracker:    m.tracker,
		projects:   m.projects,
		logger:     m.logger,
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  now,
		lastActive: now,
	}
	if surface.Greeting != "" {
		s.append(models.RoleAssistant, surface.Greeting, Selection{}, nil)
	}
	return s
}

// Surface returns the session's surface configuration.
func (s *Session) Surface() Surface {
	return s.surface
}

// Info returns session metadata.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:           s.ID,
		Surface:      s.surface.Info(),
		CreatedAt:    s.createdAt,
		LastActive:   s.lastActive,
		MessageCount: len(s.messages),
		FileCount:    len(s.fileIDs),
	}
}

// Send posts a user message and, after the surface's reply delay, the
// assistant's answer. If ctx ends during the delay the user message stays
// and no reply is posted.
func (s *Session) Send(ctx context.Context, text string, sel Selection) (SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return SendResult{}, ErrEmptyMessage
	}
	if s.surface.Responder == nil {
		return SendResult{}, ErrChatDisabled
	}
	if s.isClosed() {
		return SendResult{}, ErrSessionClosed
	}

	result := SendResult{User: s.append(models.RoleUser, text, sel, nil)}

	if err := s.sleep(ctx, s.surface.ReplyDelay); err != nil {
		return result, err
	}

	reply, err := s.surface.Responder.Respond(ctx, responder.Prompt{Text: text, Project: sel.Project, File: sel.File})
	if err != nil {
		return result, fmt.Errorf("generating reply: %w", err)
	}
	msg := s.append(models.RoleAssistant, reply.Text, sel, nil)
	result.Reply = &msg
	result.OpenProjectForm = reply.OpenProjectForm
	return result, nil
}

// Upload validates a batch and starts tracking the accepted files. A batch
// with nothing acceptable posts the profile's rejection notice and is not an
// error.
func (s *Session) Upload(ctx context.Context, files []models.FileHandle) (UploadResult, error) {
	if !s.surface.AllowUploads {
		return UploadResult{}, ErrUploadsDisabled
	}
	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}
	if s.isClosed() {
		return UploadResult{}, ErrSessionClosed
	}

	profile := s.surface.Profile
	accepted, rejected := profile.Accept(files)
	if len(accepted) == 0 {
		notice := s.append(models.RoleSystem, profile.RejectionMessage(), Selection{}, nil)
		return UploadResult{Files: []models.TrackedFile{}, Rejected: rejected, Message: notice}, nil
	}

	started, err := s.tracker.Start(s.ctx, s.surface.Preset, accepted...)
	if err != nil {
		return UploadResult{}, fmt.Errorf("starting uploads: %w", err)
	}

	ids := make([]string, len(started))
	for i, f := range started {
		ids[i] = f.ID
	}
	s.mu.Lock()
	s.fileIDs = append(s.fileIDs, ids...)
	s.mu.Unlock()

	msg := s.append(models.RoleUser, fmt.Sprintf("Uploaded %d file(s)", len(started)), Selection{}, ids)
	s.logger.Info("files uploaded",
		zap.String("session", shortID(s.ID)),
		zap.Int("accepted", len(started)),
		zap.Int("rejected", rejected))

	if ack := s.catalog.Acknowledgement(profile.Name, len(started)); ack != "" {
		s.postLater(s.surface.AckDelay, models.RoleAssistant, ack)
	}

	return UploadResult{Files: started, Rejected: rejected, Message: msg}, nil
}

// CreateProject saves a project built from the form and the session's
// completed files, then announces it.
func (s *Session) CreateProject(ctx context.Context, d ProjectDetails) (models.Project, error) {
	if !s.surface.AllowProjects || s.projects == nil {
		return models.Project{}, ErrProjectsDisabled
	}
	if s.isClosed() {
		return models.Project{}, ErrSessionClosed
	}
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(d.Discipline) == "" {
		missing = append(missing, "discipline")
	}
	if len(missing) > 0 {
		return models.Project{}, fmt.Errorf("%w: missing %s", ErrIncompleteProject, strings.Join(missing, ", "))
	}

	names := s.completedFileNames()
	progress := 10
	if len(names) > 0 {
		progress = 25
	}

	p, err := s.projects.Save(ctx, models.Project{
		Name:         d.Name,
		Type:         d.Discipline + " Review",
		Status:       models.ProjectStatusInProgress,
		Progress:     progress,
		LastActivity: "Just now",
		Compliance:   0,
		TotalChecks:  15,
		Files:        names,
		Discipline:   d.Discipline,
		Description:  d.Description,
	})
	if err != nil {
		return models.Project{}, err
	}

	role := s.surface.ProjectNoticeRole
	if role == "" {
		role = models.RoleSystem
	}
	s.append(role, s.catalog.ProjectCreatedMessage(s.surface.Name, p.Name), Selection{Project: p.Name}, nil)
	return p, nil
}

// AttachProject announces that an existing project joined the conversation.
func (s *Session) AttachProject(name string) (models.ConversationMessage, error) {
	if strings.TrimSpace(name) == "" {
		return models.ConversationMessage{}, ErrIncompleteProject
	}
	if s.isClosed() {
		return models.ConversationMessage{}, ErrSessionClosed
	}
	return s.append(models.RoleSystem, s.catalog.ProjectAttachedMessage(name), Selection{Project: name}, nil), nil
}

// Messages returns the conversation in order with file references resolved
// to their current tracked state.
func (s *Session) Messages() []models.MessageView {
	s.mu.Lock()
	msgs := make([]models.ConversationMessage, len(s.messages))
	copy(msgs, s.messages)
	s.mu.Unlock()

	views := make([]models.MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = models.MessageView{ConversationMessage: m}
		if len(m.FileIDs) > 0 {
			views[i].Files = s.tracker.Lookup(m.FileIDs)
		}
	}
	return views
}

// Files returns the current state of every file uploaded in this session.
func (s *Session) Files() []models.TrackedFile {
	s.mu.Lock()
	ids := append([]string(nil), s.fileIDs...)
	s.mu.Unlock()
	return s.tracker.Lookup(ids)
}

// Close cancels the session's uploads and pending posts and waits for them.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session) append(role models.Role, text string, sel Selection, fileIDs []string) models.ConversationMessage {
	msg := models.ConversationMessage{
		ID:             uuid.New().String(),
		Role:           role,
		Text:           text,
		CreatedAt:      time.Now(),
		FileIDs:        fileIDs,
		ProjectContext: sel.Project,
		FileContext:    sel.File,
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.lastActive = msg.CreatedAt
	s.mu.Unlock()
	return msg
}

// postLater appends a message after delay unless the session closes first.
func (s *Session) postLater(delay time.Duration, role models.Role, text string) {
	if delay <= 0 {
		s.append(role, text, Selection{}, nil)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-timer.C:
			s.append(role, text, Selection{}, nil)
		}
	}()
}

// sleep waits d unless ctx or the session ends first.
func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-timer.C:
		return nil
	}
}

func (s *Session) completedFileNames() []string {
	names := []string{}
	for _, f := range s.Files() {
		if f.Status == models.FileStatusCompleted {
			names = append(names, f.Name)
		}
	}
	return names
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
