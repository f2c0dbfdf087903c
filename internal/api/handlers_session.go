// handlers_session.go - Chat session handlers
package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/design-review/backend/internal/chat"
	"github.com/design-review/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions *chat.Manager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *chat.Manager) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

// HandleListSurfaces lists the chat surfaces a session can be opened on
func (h *SessionHandlerImpl) HandleListSurfaces(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Surfaces())
}

// HandleCreateSession opens a session on a surface
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	sess, err := h.sessions.Create(req.Surface)
	if err != nil {
		return fromDomainError(err, "surface", req.Surface)
	}
	return c.JSON(http.StatusCreated, newSessionResponse(sess))
}

// HandleGetSession returns session metadata and its conversation
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

// HandleDeleteSession closes a session and cancels its uploads
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if !h.sessions.CloseSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSendMessage posts a user message and waits for the reply
func (h *SessionHandlerImpl) HandleSendMessage(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	result, err := sess.Send(c.Request().Context(), req.Text, chat.Selection{Project: req.Project, File: req.File})
	if err != nil {
		return fromDomainError(err, "session", sess.ID)
	}
	return c.JSON(http.StatusCreated, result)
}

// HandleGetMessages returns the conversation as JSON
func (h *SessionHandlerImpl) HandleGetMessages(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Messages())
}

// HandleGetMessagesMsgpack returns the conversation in MessagePack format
func (h *SessionHandlerImpl) HandleGetMessagesMsgpack(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"sessionId": sess.ID,
		"messages":  sess.Messages(),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleUploadFiles accepts file metadata, either as a multipart form with
// "files" parts or as JSON, and starts tracking the acceptable files.
func (h *SessionHandlerImpl) HandleUploadFiles(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	files, err := readUploadMetadata(c)
	if err != nil {
		return err
	}

	result, err := sess.Upload(c.Request().Context(), files)
	if err != nil {
		return fromDomainError(err, "session", sess.ID)
	}

	status := http.StatusAccepted
	if len(result.Files) == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}

// HandleCreateProject saves a project from the session's form and files
func (h *SessionHandlerImpl) HandleCreateProject(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	var req chat.ProjectDetails
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	project, err := sess.CreateProject(c.Request().Context(), req)
	if err != nil {
		return fromDomainError(err, "session", sess.ID)
	}
	return c.JSON(http.StatusCreated, project)
}

// HandleAttachProject announces an existing project in the conversation
func (h *SessionHandlerImpl) HandleAttachProject(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	var req attachProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	msg, err := sess.AttachProject(req.Name)
	if err != nil {
		return fromDomainError(err, "session", sess.ID)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *SessionHandlerImpl) session(c echo.Context) (*chat.Session, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	sess, ok := h.sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return sess, nil
}

// readUploadMetadata collects name, size and type of each uploaded file.
// Multipart file bytes are counted and discarded.
func readUploadMetadata(c echo.Context) ([]models.FileHandle, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		var req uploadMetadataRequest
		if err := c.Bind(&req); err != nil {
			return nil, NewBadRequestError("invalid JSON body", err)
		}
		if err := req.validate(); err != nil {
			return nil, err
		}
		return req.Files, nil
	}

	mr, err := c.Request().MultipartReader()
	if err != nil {
		return nil, NewBadRequestError("invalid multipart body", err)
	}

	files := []models.FileHandle{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, NewBadRequestError("invalid multipart body", err)
		}
		if part.FormName() != "files" || part.FileName() == "" {
			part.Close()
			continue
		}

		n, err := io.Copy(io.Discard, part)
		part.Close()
		if err != nil {
			return nil, NewBadRequestError("failed to read upload", err)
		}

		typ := part.Header.Get(echo.HeaderContentType)
		if typ == echo.MIMEOctetStream {
			typ = ""
		}
		files = append(files, models.FileHandle{Name: part.FileName(), Size: n, Type: typ})
	}
	return files, nil
}

// Request/Response types

type sessionResponse struct {
	Session  chat.SessionInfo     `json:"session"`
	Messages []models.MessageView `json:"messages"`
}

func newSessionResponse(s *chat.Session) sessionResponse {
	return sessionResponse{Session: s.Info(), Messages: s.Messages()}
}

type createSessionRequest struct {
	Surface string `json:"surface"`
}

func (r *createSessionRequest) validate() error {
	if r.Surface == "" {
		return NewValidationError("surface")
	}
	return nil
}

type sendMessageRequest struct {
	Text    string `json:"text"`
	Project string `json:"project,omitempty"`
	File    string `json:"file,omitempty"`
}

type uploadMetadataRequest struct {
	Files []models.FileHandle `json:"files"`
}

func (r *uploadMetadataRequest) validate() error {
	for _, f := range r.Files {
		if f.Name == "" {
			return NewValidationError("files.name")
		}
	}
	return nil
}

type attachProjectRequest struct {
	Name string `json:"name"`
}
