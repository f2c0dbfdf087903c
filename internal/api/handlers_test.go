package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/design-review/backend/internal/chat"
	"github.com/design-review/backend/internal/compliance"
	"github.com/design-review/backend/internal/export"
	"github.com/design-review/backend/internal/models"
	"github.com/design-review/backend/internal/projects"
	"github.com/design-review/backend/internal/testutil"
	"github.com/design-review/backend/internal/upload"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	tracker := upload.NewTracker(upload.WithRand(rand.New(rand.NewPCG(1, 2))))
	repo := projects.NewStore(testutil.NewMockBackend(), nil)
	sessions := chat.NewManager(tracker, repo, chat.WithReplyDelay(0), chat.WithPresetScale(0.005))
	exports := export.NewService(tracker, upload.PresetExport.Scaled(0.005), nil)
	t.Cleanup(func() {
		sessions.Close()
		exports.Close()
		tracker.Close()
	})
	return &Dependencies{
		Sessions: sessions,
		Tracker:  tracker,
		Projects: repo,
		Exports:  exports,
		Version:  "test",
	}
}

// call runs a handler against a recorder. params are name/value pairs.
func call(h echo.HandlerFunc, method, target string, body io.Reader, contentType string, params ...string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return rec, h(c)
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T (%v)", err, err)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, code, apiErr.Code)
}

func createSession(t *testing.T, h SessionHandler, surface string) string {
	t.Helper()
	rec, err := call(h.HandleCreateSession, http.MethodPost, "/api/sessions",
		jsonBody(t, map[string]string{"surface": surface}), echo.MIMEApplicationJSON)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Session.ID
}

func TestHealthHandler(t *testing.T) {
	deps := newTestDeps(t)
	h := NewHealthHandler("1.2.3", deps.Sessions)

	rec, err := call(h.HandleHealth, http.MethodGet, "/api/health", nil, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, rec.Body.String(), `"sessions":0`)
}

func TestSessionHandler_HandleCreateSession(t *testing.T) {
	tests := []struct {
		name       string
		surface    string
		wantStatus int
		errCode    string
	}{
		{"general chat", "general-chat", http.StatusCreated, ""},
		{"building codes", "building-codes", http.StatusCreated, ""},
		{"missing surface", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown surface", "whiteboard", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSessionHandler(newTestDeps(t).Sessions)
			rec, err := call(h.HandleCreateSession, http.MethodPost, "/api/sessions",
				jsonBody(t, map[string]string{"surface": tt.surface}), echo.MIMEApplicationJSON)

			if tt.errCode != "" {
				assertAPIError(t, err, tt.wantStatus, tt.errCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp sessionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Session.ID)
			assert.Equal(t, tt.surface, resp.Session.Surface.Name)
		})
	}
}

func TestSessionHandler_GetAndDelete(t *testing.T) {
	h := NewSessionHandler(newTestDeps(t).Sessions)
	id := createSession(t, h, "project-setup")

	rec, err := call(h.HandleGetSession, http.MethodGet, "/api/sessions/"+id, nil, "", "id", id)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "Let's create a new project together")

	rec, err = call(h.HandleDeleteSession, http.MethodDelete, "/api/sessions/"+id, nil, "", "id", id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = call(h.HandleGetSession, http.MethodGet, "/api/sessions/"+id, nil, "", "id", id)
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")

	_, err = call(h.HandleDeleteSession, http.MethodDelete, "/api/sessions/"+id, nil, "", "id", id)
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestSessionHandler_HandleSendMessage(t *testing.T) {
	deps := newTestDeps(t)
	h := NewSessionHandler(deps.Sessions)
	chatID := createSession(t, h, "general-chat")
	uploadID := createSession(t, h, "file-upload")

	tests := []struct {
		name       string
		session    string
		text       string
		wantStatus int
		errCode    string
	}{
		{"reply", chatID, "Check the panels", http.StatusCreated, ""},
		{"blank", chatID, "   ", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"chat disabled", uploadID, "hello", http.StatusConflict, "CONFLICT"},
		{"unknown session", "nope", "hello", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := jsonBody(t, map[string]string{"text": tt.text, "project": "Tower"})
			rec, err := call(h.HandleSendMessage, http.MethodPost, "/api/sessions/x/messages",
				body, echo.MIMEApplicationJSON, "id", tt.session)

			if tt.errCode != "" {
				assertAPIError(t, err, tt.wantStatus, tt.errCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var result chat.SendResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			require.NotNil(t, result.Reply)
			assert.True(t, strings.HasPrefix(result.Reply.Text, "For your Tower project, "))
		})
	}
}

func TestSessionHandler_UploadMultipart(t *testing.T) {
	deps := newTestDeps(t)
	h := NewSessionHandler(deps.Sessions)
	files := NewFileHandler(deps.Tracker)
	id := createSession(t, h, "file-upload")

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("files", "hvac_roof.dxf")
	part.Write(bytes.Repeat([]byte("0"), 1500))
	part, _ = writer.CreateFormFile("files", "notes.pdf")
	part.Write([]byte("pdf"))
	writer.WriteField("comment", "ignored")
	writer.Close()

	rec, err := call(h.HandleUploadFiles, http.MethodPost, "/api/sessions/x/files",
		body, writer.FormDataContentType(), "id", id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var result chat.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Files, 1)
	assert.Equal(t, 1, result.Rejected)
	f := result.Files[0]
	assert.Equal(t, "hvac_roof.dxf", f.Name)
	assert.Equal(t, int64(1500), f.Size)
	assert.Equal(t, "application/dxf", f.Type)
	assert.Equal(t, "HVAC", f.Discipline)

	// SSE stream runs until the file completes
	rec, err = call(files.HandleFileProgressStream, http.MethodGet, "/api/files/x/progress", nil, "", "id", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	events := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.NotEmpty(t, events)
	assert.Contains(t, events[len(events)-1], `"status":"completed"`)

	rec, err = call(files.HandleGetFile, http.MethodGet, "/api/files/x", nil, "", "id", f.ID)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"progress":100`)

	rec, err = call(files.HandleDeleteFile, http.MethodDelete, "/api/files/x", nil, "", "id", f.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = call(files.HandleGetFile, http.MethodGet, "/api/files/x", nil, "", "id", f.ID)
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
	_, err = call(files.HandleFileProgressStream, http.MethodGet, "/api/files/x/progress", nil, "", "id", f.ID)
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestSessionHandler_UploadJSONRejected(t *testing.T) {
	h := NewSessionHandler(newTestDeps(t).Sessions)
	id := createSession(t, h, "building-codes")

	body := jsonBody(t, map[string]interface{}{
		"files": []models.FileHandle{{Name: "drawing.dxf", Size: 10}},
	})
	rec, err := call(h.HandleUploadFiles, http.MethodPost, "/api/sessions/x/files", body, echo.MIMEApplicationJSON, "id", id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload only PDF or Word documents under 50MB.")

	body = jsonBody(t, map[string]interface{}{"files": []models.FileHandle{{Size: 10}}})
	_, err = call(h.HandleUploadFiles, http.MethodPost, "/api/sessions/x/files", body, echo.MIMEApplicationJSON, "id", id)
	assertAPIError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSessionHandler_MessagesFormats(t *testing.T) {
	h := NewSessionHandler(newTestDeps(t).Sessions)
	id := createSession(t, h, "general-chat")

	_, err := call(h.HandleSendMessage, http.MethodPost, "/api/sessions/x/messages",
		jsonBody(t, map[string]string{"text": "hi"}), echo.MIMEApplicationJSON, "id", id)
	require.NoError(t, err)

	rec, err := call(h.HandleGetMessages, http.MethodGet, "/api/sessions/x/messages", nil, "", "id", id)
	require.NoError(t, err)
	var views []models.MessageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, models.RoleUser, views[1].Role)

	rec, err = call(h.HandleGetMessagesMsgpack, http.MethodGet, "/api/sessions/x/messages/msgpack", nil, "", "id", id)
	require.NoError(t, err)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var decoded map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, id, decoded["sessionId"])
	msgs, ok := decoded["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, msgs, 3)
}

func TestSessionHandler_CreateProject(t *testing.T) {
	deps := newTestDeps(t)
	h := NewSessionHandler(deps.Sessions)
	id := createSession(t, h, "project-setup")

	_, err := call(h.HandleCreateProject, http.MethodPost, "/api/sessions/x/projects",
		jsonBody(t, chat.ProjectDetails{Name: "Tower"}), echo.MIMEApplicationJSON, "id", id)
	assertAPIError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	rec, err := call(h.HandleCreateProject, http.MethodPost, "/api/sessions/x/projects",
		jsonBody(t, chat.ProjectDetails{Name: "Tower", Type: "Office", Discipline: "Electrical"}),
		echo.MIMEApplicationJSON, "id", id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"Electrical Review"`)
	assert.Len(t, deps.Projects.List(t.Context()), 1)

	rec, err = call(h.HandleAttachProject, http.MethodPost, "/api/sessions/x/projects/attach",
		jsonBody(t, map[string]string{"name": "Tower"}), echo.MIMEApplicationJSON, "id", id)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "has been added to the conversation")
}

func TestProjectHandlers(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProjectHandler(deps.Projects)

	rec, err := call(h.HandleSaveProject, http.MethodPost, "/api/projects",
		jsonBody(t, models.Project{ID: "p1", Name: "Tower", Discipline: "HVAC"}), echo.MIMEApplicationJSON)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	_, err = call(h.HandleSaveProject, http.MethodPost, "/api/projects",
		jsonBody(t, models.Project{ID: "p2"}), echo.MIMEApplicationJSON)
	assertAPIError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	rec, err = call(h.HandleListProjects, http.MethodGet, "/api/projects", nil, "")
	require.NoError(t, err)
	var list []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec, err = call(h.HandleUpdateProject, http.MethodPatch, "/api/projects/p1",
		strings.NewReader(`{"progress":40,"expectedVersion":1}`), echo.MIMEApplicationJSON, "id", "p1")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"progress":40`)
	assert.Contains(t, rec.Body.String(), `"version":2`)

	_, err = call(h.HandleUpdateProject, http.MethodPatch, "/api/projects/p1",
		strings.NewReader(`{"progress":50,"expectedVersion":1}`), echo.MIMEApplicationJSON, "id", "p1")
	assertAPIError(t, err, http.StatusConflict, "CONFLICT")

	_, err = call(h.HandleUpdateProject, http.MethodPatch, "/api/projects/nope",
		strings.NewReader(`{"progress":50}`), echo.MIMEApplicationJSON, "id", "nope")
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")

	rec, err = call(h.HandleGetProject, http.MethodGet, "/api/projects/p1", nil, "", "id", "p1")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"name":"Tower"`)

	rec, err = call(h.HandleDeleteProject, http.MethodDelete, "/api/projects/p1", nil, "", "id", "p1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = call(h.HandleGetProject, http.MethodGet, "/api/projects/p1", nil, "", "id", "p1")
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestComplianceOverview(t *testing.T) {
	h := NewProjectHandler(newTestDeps(t).Projects)
	rec, err := call(h.HandleComplianceOverview, http.MethodGet, "/api/compliance/overview", nil, "")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"overall":72`)
	assert.Contains(t, rec.Body.String(), `"HVAC Systems"`)
}

func TestExportHandlers(t *testing.T) {
	deps := newTestDeps(t)
	h := NewExportHandler(deps.Exports)

	rec, err := call(h.HandlePreviewExport, http.MethodPost, "/api/exports/preview",
		jsonBody(t, export.Request{Project: "Tower", Formats: []string{"pdf"}, Sections: []string{"summary", "technical"}}),
		echo.MIMEApplicationJSON)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"estimatedPages":8`)
	assert.Contains(t, rec.Body.String(), `"estimatedSize":"2.8 MB"`)

	_, err = call(h.HandlePreviewExport, http.MethodPost, "/api/exports/preview",
		jsonBody(t, export.Request{Project: "Tower", Formats: []string{"docx"}}), echo.MIMEApplicationJSON)
	assertAPIError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	rec, err = call(h.HandleStartExport, http.MethodPost, "/api/exports",
		jsonBody(t, export.Request{Project: "Tower", Formats: []string{"csv"}}), echo.MIMEApplicationJSON)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var job export.JobView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Len(t, job.FileIDs, 1)

	rec, err = call(h.HandleGetExport, http.MethodGet, "/api/exports/x", nil, "", "id", job.ID)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "Tower-report.csv")

	_, err = call(h.HandleGetExport, http.MethodGet, "/api/exports/x", nil, "", "id", "missing")
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")

	rec, err = call(h.HandleListExportOptions, http.MethodGet, "/api/exports/options", nil, "")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"excel"`)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		showDetails bool
		wantStatus  int
		wantBody    string
	}{
		{"api error", NewNotFoundError("project", "p1"), false, http.StatusNotFound, `"code":"NOT_FOUND"`},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), false, http.StatusMethodNotAllowed, `"code":"HTTP_ERROR"`},
		{"unknown with details", errors.New("boom"), true, http.StatusInternalServerError, `"details":"boom"`},
		{"unknown without details", errors.New("boom"), false, http.StatusInternalServerError, `"code":"UNKNOWN_ERROR"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewErrorHandler(nil, tt.showDetails)(tt.err, c)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			if !tt.showDetails {
				assert.NotContains(t, rec.Body.String(), "boom")
			}
		})
	}
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{chat.ErrTooManySessions, http.StatusServiceUnavailable},
		{chat.ErrUploadsDisabled, http.StatusConflict},
		{projects.ErrVersionConflict, http.StatusConflict},
		{export.ErrInvalidRequest, http.StatusBadRequest},
		{upload.ErrNotFound, http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, fromDomainError(tt.err, "thing", "1").Status, tt.err.Error())
	}
}

func TestRoutesWithProgressSocket(t *testing.T) {
	deps := newTestDeps(t)
	handlers := NewHandlers(deps)

	e := echo.New()
	SetupMiddleware(e, MiddlewareOptions{RequestTimeout: 10 * time.Second, EnableCompression: true, BodyLimit: "10M"})
	RegisterRoutes(e, handlers)
	RegisterWebSocketRoutes(e, handlers)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/progress"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(10 * time.Second))

	var hello WSMessage
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, MsgTypeConnected, hello.Type)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing, ID: "p"}))
	var pong WSMessage
	require.NoError(t, ws.ReadJSON(&pong))
	assert.Equal(t, MsgTypePong, pong.Type)

	resp, err := http.Post(srv.URL+"/api/sessions", echo.MIMEApplicationJSON, strings.NewReader(`{"surface":"file-upload"}`))
	require.NoError(t, err)
	var created sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/sessions/"+created.Session.ID+"/files", echo.MIMEApplicationJSON,
		strings.NewReader(`{"files":[{"name":"plan.dxf","size":100}]}`))
	require.NoError(t, err)
	var uploaded chat.UploadResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	resp.Body.Close()
	require.Len(t, uploaded.Files, 1)
	fileID := uploaded.Files[0].ID

	statuses := []models.FileStatus{}
	for {
		var msg WSMessage
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Type != MsgTypeProgress || msg.ID != fileID {
			continue
		}
		var f models.TrackedFile
		require.NoError(t, json.Unmarshal(msg.Payload, &f))
		if len(statuses) == 0 || statuses[len(statuses)-1] != f.Status {
			statuses = append(statuses, f.Status)
		}
		if f.Status.Terminal() {
			break
		}
	}
	assert.Equal(t, []models.FileStatus{
		models.FileStatusUploading, models.FileStatusProcessing, models.FileStatusCompleted,
	}, statuses)

	resp, err = http.Get(srv.URL + "/api/sessions/missing")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"NOT_FOUND"`)
}

func TestFileProgressStreamOutlivesServerWriteTimeout(t *testing.T) {
	tracker := upload.NewTracker()
	t.Cleanup(tracker.Close)

	e := echo.New()
	e.GET("/api/files/:id/progress", NewFileHandler(tracker).HandleFileProgressStream)
	srv := httptest.NewUnstartedServer(e)
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	defer srv.Close()

	slow := upload.Preset{
		Name:            "slow-hold",
		Tick:            5 * time.Millisecond,
		FixedStep:       25,
		Processing:      upload.ProcessingHold,
		ProcessingDelay: 400 * time.Millisecond,
	}
	started, err := tracker.Start(context.Background(), slow, models.TrackedFile{Name: "plan.dxf"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/files/" + started[0].ID + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	events := strings.Split(strings.TrimSpace(string(body)), "\n\n")
	assert.Contains(t, events[len(events)-1], `"status":"completed"`)
}

func TestComplianceDetailsIssuesAndCodeSearch(t *testing.T) {
	h := NewProjectHandler(newTestDeps(t).Projects)
	h.now = func() time.Time { return time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC) }

	rec, err := call(h.HandleComplianceDetails, http.MethodGet, "/api/compliance/projects/x", nil, "", "id", "downtown-office")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"name":"Mechanical Systems"`)
	assert.Contains(t, rec.Body.String(), `"progress":50`)

	_, err = call(h.HandleComplianceDetails, http.MethodGet, "/api/compliance/projects/x", nil, "", "id", "nope")
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")

	rec, err = call(h.HandleListIssues, http.MethodGet, "/api/compliance/issues?status=open", nil, "")
	require.NoError(t, err)
	var issues []compliance.Issue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, "ISS-001", issues[0].ID)
	assert.True(t, issues[0].Overdue)

	_, err = call(h.HandleListIssues, http.MethodGet, "/api/compliance/issues?status=closed", nil, "")
	assertAPIError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	rec, err = call(h.HandleSearchBuildingCodes, http.MethodGet, "/api/building-codes/search?q=Electrical", nil, "")
	require.NoError(t, err)
	var sections []compliance.CodeSection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sections))
	require.Len(t, sections, 1)
	assert.Equal(t, "NEC 2020", sections[0].Code)

	_, err = call(h.HandleSearchBuildingCodes, http.MethodGet, "/api/building-codes/search?q=+", nil, "")
	assertAPIError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}
