// handlers_files.go - Tracked file handlers
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/design-review/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

const (
	// progressStreamTimeout bounds a single SSE progress stream.
	progressStreamTimeout = 5 * time.Minute
	// sseWriteTimeout bounds each event write. It replaces the server's
	// WriteTimeout so long streams survive and stalled clients are cut off.
	sseWriteTimeout = 30 * time.Second
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	tracker *upload.Tracker
}

// NewFileHandler creates a new file handler
func NewFileHandler(tracker *upload.Tracker) FileHandler {
	return &FileHandlerImpl{tracker: tracker}
}

// HandleGetFile returns the current state of a tracked file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	f, ok := h.tracker.Get(id)
	if !ok {
		return NewNotFoundError("file", id)
	}
	return c.JSON(http.StatusOK, f)
}

// HandleDeleteFile cancels a file's progress and forgets it
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if !h.tracker.Remove(id) {
		return NewNotFoundError("file", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleFileProgressStream streams a file's state via SSE until it reaches a
// terminal status
func (h *FileHandlerImpl) HandleFileProgressStream(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	// Subscribe before the first read so no transition is missed
	sub := h.tracker.Subscribe(64)
	defer sub.Close()

	f, ok := h.tracker.Get(id)
	if !ok {
		return NewNotFoundError("file", id)
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	if err := sendSSEData(c, f); err != nil || f.Status.Terminal() {
		return nil
	}

	timeout := time.NewTimer(progressStreamTimeout)
	defer timeout.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout.C:
			sendSSEError(c, "stream timeout")
			return nil
		case <-sub.Done():
			sendSSEError(c, "tracker closed")
			return nil
		case ev := <-sub.C:
			if ev.File.ID != id {
				continue
			}
			if err := sendSSEData(c, ev.File); err != nil || ev.File.Status.Terminal() {
				return nil
			}
		}
	}
}

// sendSSEData writes one event. Writers without deadline support (test
// recorders) are written without one.
func sendSSEData(c echo.Context, data interface{}) error {
	rc := http.NewResponseController(c.Response())
	if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}

	jsonData, _ := json.Marshal(data)
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData); err != nil {
		return err
	}
	return rc.Flush()
}

func sendSSEError(c echo.Context, message string) {
	_ = sendSSEData(c, map[string]string{"error": message})
}
