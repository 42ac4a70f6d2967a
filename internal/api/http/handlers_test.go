package http

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Kinuseka/QuickFileManager/internal/api/ws"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/config"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/logging"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/monitoring"
	"github.com/Kinuseka/QuickFileManager/internal/providers/filesystem"
)

type recorder struct {
	mu      sync.Mutex
	changes []ws.Change
}

func (r *recorder) Publish(change ws.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Action
	}
	return out
}

type testServer struct {
	router *gin.Engine
	root   string
	events *recorder
	logs   *observer.ObservedLogs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default().Upload
	cfg.TempDir = filepath.Join(t.TempDir(), "uploads")
	cfg.MaxFileSizeGB = 1

	fs, err := filesystem.NewProvider(filesystem.Options{
		Root: filepath.Join(t.TempDir(), "managed"),
		Upload: filesystem.UploadConfig{
			TempDir:     cfg.TempDir,
			ChunkSize:   cfg.ChunkSize(),
			MaxFileSize: cfg.MaxFileSize(),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })

	events := &recorder{}
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	NewHandlers(fs, events, monitoring.NewMetrics(), logging.Wrap(zap.New(core)), cfg).Register(router)

	return &testServer{router: router, root: fs.Resolver.Root(), events: events, logs: logs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(url string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, url, nil))
}

func (s *testServer) post(url string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) write(t *testing.T, rel, content string) {
	t.Helper()
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func multipartBody(t *testing.T, field, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// TestStatusFor tests the error kind to status mapping
func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind filesystem.Kind
		want int
	}{
		{filesystem.KindForbidden, http.StatusForbidden},
		{filesystem.KindNotFound, http.StatusNotFound},
		{filesystem.KindAlreadyExists, http.StatusConflict},
		{filesystem.KindSizeExceeded, http.StatusRequestEntityTooLarge},
		{filesystem.KindUnsupportedFormat, http.StatusUnsupportedMediaType},
		{filesystem.KindDecodeFailure, http.StatusUnsupportedMediaType},
		{filesystem.KindCorruptArchive, http.StatusUnprocessableEntity},
		{filesystem.KindSupportUnavailable, http.StatusNotImplemented},
		{filesystem.KindIOFailure, http.StatusInternalServerError},
		{filesystem.KindInvalidName, http.StatusBadRequest},
		{filesystem.KindUnsafeEntry, http.StatusBadRequest},
		{filesystem.KindInvalidChunk, http.StatusBadRequest},
		{filesystem.KindNotADirectory, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
		})
	}
}

// TestMissingParameters tests request validation messages
func TestMissingParameters(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		url  string
		body interface{}
		want string
	}{
		{"/api/file/content", map[string]string{}, "File path is required."},
		{"/api/create/folder", map[string]string{}, "Folder path is required."},
		{"/api/delete", map[string]string{}, "Item path is required for deletion."},
		{"/api/batch-delete", map[string][]string{"paths": {}}, "A list of item paths is required."},
		{"/api/rename", map[string]string{"current_path": "a"}, "Required parameters: 'current_path' and 'new_name'"},
		{"/api/move", map[string]string{"source": "a"}, "Required parameters: 'source' and 'target'"},
		{"/api/zip", map[string]string{"archive_name": "x"}, "Required parameters: 'items' (list) and 'archive_name'."},
		{"/api/unzip", map[string]string{}, "Required parameter: 'zip_path'."},
		{"/api/upload/cancel", map[string]string{}, "Upload ID is required"},
		{"/api/preview/intent", map[string]string{}, "File path is required."},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := s.post(tt.url, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["error"])
		})
	}

	w := s.get("/api/file/content")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Required query parameter: 'path' for the archive file.", decode(t, s.get("/api/archive/contents"))["error"])
	assert.Equal(t, "Required query parameter: 'path' for the ZIP file.", decode(t, s.get("/api/zip/contents"))["error"])
	assert.Empty(t, s.events.actions())
}

// TestListFiles tests root and nested listings
func TestListFiles(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "docs/readme.txt", "hi")
	s.write(t, "a.txt", "")

	w := s.get("/api/files")
	require.Equal(t, http.StatusOK, w.Code)
	var listing filesystem.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, "", listing.Path)
	require.Len(t, listing.Items, 2)
	assert.Equal(t, "docs", listing.Items[0].Name)

	w = s.get("/api/files/docs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"path":"docs/readme.txt"`)

	w = s.get("/api/files/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])

	w = s.get("/api/files/a.txt")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestFileContent tests saving and reading text through the API
func TestFileContent(t *testing.T) {
	s := newTestServer(t)

	w := s.post("/api/file/content", ContentRequest{Path: "notes/todo.txt", Content: "buy milk"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.get("/api/file/content?path=notes/todo.txt")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buy milk", decode(t, w)["content"])

	w = s.get("/api/file/content?path=../secret")
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.Len(t, s.events.changes, 1)
	assert.Equal(t, ws.Change{Action: ws.ActionModified, Path: "notes/todo.txt", Type: ws.TypeFile}, s.events.changes[0])
}

// TestFolderAndDelete tests folder creation, conflicts and deletion
func TestFolderAndDelete(t *testing.T) {
	s := newTestServer(t)

	w := s.post("/api/create/folder", PathRequest{Path: "projects"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.DirExists(t, filepath.Join(s.root, "projects"))

	w = s.post("/api/create/folder", PathRequest{Path: "projects"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.post("/api/delete", PathRequest{Path: "projects"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoDirExists(t, filepath.Join(s.root, "projects"))

	w = s.post("/api/delete", PathRequest{Path: "projects"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{ws.ActionCreated, ws.ActionDeleted}, s.events.actions())
}

// TestBatchDelete tests partial failures and per-item events
func TestBatchDelete(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "a.txt", "")
	s.write(t, "b.txt", "")

	w := s.post("/api/batch-delete", BatchDeleteRequest{Paths: []string{"a.txt", "b.txt"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	s.write(t, "c.txt", "")
	w = s.post("/api/batch-delete", BatchDeleteRequest{Paths: []string{"c.txt", "missing.txt"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res filesystem.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"c.txt"}, res.Succeeded())
	assert.Equal(t, []string{"missing.txt"}, res.Failed())

	assert.Equal(t, []string{ws.ActionDeleted, ws.ActionDeleted, ws.ActionDeleted}, s.events.actions())
}

// TestRenameAndMove tests renames, moves and their change events
func TestRenameAndMove(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "docs/old.txt", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "archive"), 0o755))

	w := s.post("/api/rename", map[string]string{"current_path": "docs/old.txt", "new_name": "new.txt", "type": "file"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "docs/new.txt", decode(t, w)["new_path"])

	w = s.post("/api/move", map[string]string{"source": "docs/new.txt", "target": "archive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "archive/new.txt", decode(t, w)["new_path"])

	w = s.post("/api/move", map[string]string{"source": "archive/new.txt", "target": "/"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.FileExists(t, filepath.Join(s.root, "new.txt"))

	require.Len(t, s.events.changes, 3)
	assert.Equal(t, ws.Change{
		Action:     ws.ActionRenamed,
		Type:       "file",
		OldPath:    "docs/old.txt",
		NewPath:    "docs/new.txt",
		NewName:    "new.txt",
		ParentPath: "docs",
	}, s.events.changes[0])
	assert.Equal(t, ws.Change{
		Action:       ws.ActionMoved,
		OldPath:      "docs/new.txt",
		NewPath:      "archive/new.txt",
		SourceParent: "docs",
		TargetParent: "archive",
	}, s.events.changes[1])
	assert.Equal(t, "", s.events.changes[2].TargetParent)

	s.write(t, "taken.txt", "")
	w = s.post("/api/rename", map[string]string{"current_path": "new.txt", "new_name": "taken.txt"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestUpload tests single-request uploads
func TestUpload(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "file", "My Report.pdf", []byte("pdf"), map[string]string{"path": "inbox"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "My_Report.pdf", decode(t, w)["filename"])
	assert.FileExists(t, filepath.Join(s.root, "inbox", "My_Report.pdf"))

	require.Len(t, s.events.changes, 1)
	assert.Equal(t, ws.Change{Action: ws.ActionUploaded, Path: "inbox/My_Report.pdf", Filename: "My_Report.pdf"}, s.events.changes[0])

	body, ct = multipartBody(t, "", "", nil, map[string]string{"path": "inbox"})
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w = s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file part in the request.", decode(t, w)["error"])
}

// TestChunkedUpload tests a two chunk upload through the API
func TestChunkedUpload(t *testing.T) {
	s := newTestServer(t)

	send := func(index int, data string) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, "chunk", "blob", []byte(data), map[string]string{
			"uploadId":    "up-1",
			"chunkIndex":  string(rune('0' + index)),
			"totalChunks": "2",
			"filename":    "video.mp4",
			"path":        "media",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/upload/chunk", body)
		req.Header.Set("Content-Type", ct)
		return s.do(req)
	}

	w := send(1, "world")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["completed"])

	w = s.get("/api/upload/status/up-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["total_chunks"])

	w = send(0, "hello ")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["completed"])

	data, err := os.ReadFile(filepath.Join(s.root, "media", "video.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	require.Len(t, s.events.changes, 1)
	assert.Equal(t, ws.Change{Action: ws.ActionUploaded, Path: "media/video.mp4", Filename: "video.mp4"}, s.events.changes[0])

	w = s.get("/api/upload/status/up-1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, ct := multipartBody(t, "chunk", "blob", []byte("x"), map[string]string{
		"uploadId": "up-2", "chunkIndex": "zero", "totalChunks": "2", "filename": "f",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/chunk", body)
	req.Header.Set("Content-Type", ct)
	w = s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid chunk parameters", decode(t, w)["error"])
}

// TestCancelUpload tests that a cancelled upload is discarded and logged
func TestCancelUpload(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "chunk", "blob", []byte("partial"), map[string]string{
		"uploadId": "up-3", "chunkIndex": "0", "totalChunks": "2", "filename": "big.iso",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/chunk", body)
	req.Header.Set("Content-Type", ct)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.post("/api/upload/cancel", CancelUploadRequest{UploadID: "up-3"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])

	w = s.get("/api/upload/status/up-3")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoFileExists(t, filepath.Join(s.root, "big.iso"))

	entries := s.logs.FilterMessage("upload_cancelled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "activity", entries[0].LoggerName)
	assert.Equal(t, "Upload ID: up-3", entries[0].ContextMap()["detail"])
}

// TestUploadConfig tests the upload settings endpoint
func TestUploadConfig(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/api/upload/config")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, true, got["chunked_upload_enabled"])
	assert.Equal(t, float64(10), got["chunk_size_mb"])
	assert.Equal(t, float64(3), got["max_concurrent_chunks"])
	assert.Equal(t, float64(1), got["max_file_size_gb"])
}

// TestZipRoundTrip tests creation, listing and extraction of a zip
func TestZipRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "project/main.go", "package main")
	s.write(t, "project/README.md", "# readme")

	w := s.post("/api/zip", ZipRequest{Items: []string{"project"}, ArchiveName: "bundle"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bundle.zip", decode(t, w)["archive_path"])

	w = s.get("/api/archive/contents?path=bundle.zip")
	require.Equal(t, http.StatusOK, w.Code)
	var listing filesystem.ArchiveListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, filesystem.ArchiveZip, listing.ArchiveType)
	assert.Len(t, listing.Contents, 3)

	w = s.post("/api/unzip", UnzipRequest{ZipPath: "bundle.zip", ExtractPath: "restored"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, err := os.ReadFile(filepath.Join(s.root, "restored", "project", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))

	assert.Equal(t, []string{ws.ActionCreated, ws.ActionUnzippedInto}, s.events.actions())
}

// TestZipDeleteAfter tests removal of the archived items
func TestZipDeleteAfter(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "a.txt", "a")
	s.write(t, "b.txt", "b")

	w := s.post("/api/zip", ZipRequest{Items: []string{"a.txt", "b.txt"}, ArchiveName: "both.zip", DeleteAfterZip: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.FileExists(t, filepath.Join(s.root, "both.zip"))
	assert.NoFileExists(t, filepath.Join(s.root, "a.txt"))
	assert.NoFileExists(t, filepath.Join(s.root, "b.txt"))
	assert.Equal(t, []string{ws.ActionCreated, ws.ActionDeleted, ws.ActionDeleted}, s.events.actions())
}

// TestUnzipUnsafe tests rejection of traversal members
func TestUnzipUnsafe(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("../../evil.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	s.write(t, "evil.zip", buf.String())

	w := s.post("/api/unzip", UnzipRequest{ZipPath: "evil.zip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "unsafe path")
	assert.Empty(t, s.events.actions())
}

// TestDownload tests dispositions and missing files
func TestDownload(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "docs/readme.txt", "hello there")
	s.write(t, "data.bin", string([]byte{0x00, 0x01, 0x02, 0xff}))

	w := s.get("/download/docs/readme.txt")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello there", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))

	w = s.get("/download/docs/readme.txt?force_download=true")
	assert.Equal(t, `attachment; filename=readme.txt`, w.Header().Get("Content-Disposition"))

	w = s.get("/download/data.bin")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))

	w = s.get("/download/data.bin?context=preview")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))

	req := httptest.NewRequest(http.MethodGet, "/download/docs/readme.txt", nil)
	req.Header.Set("Range", "bytes=0-4")
	w = s.do(req)
	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "hello", w.Body.String())

	w = s.get("/download/docs")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found.", w.Body.String())
}

// TestPreviewIntent tests preview logging for files only
func TestPreviewIntent(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "photo.jpg", "jpeg")

	w := s.post("/api/preview/intent", PathRequest{Path: "photo.jpg"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = s.post("/api/preview/intent", PathRequest{Path: "missing.jpg"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found.", decode(t, w)["error"])
}

// TestSearchAndStat tests the lookup endpoints
func TestSearchAndStat(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "a/report.txt", "1")
	s.write(t, "b/report.md", "2")
	s.write(t, "b/other.md", "3")

	w := s.get("/api/search?pattern=report*")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = s.get("/api/search?pattern=*&limit=bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.get("/api/stat?path=a/report.txt")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "report.txt", got["name"])
	assert.Equal(t, float64(1), got["size"])

	w = s.get("/api/stat?path=nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestHealth tests the health payload
func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "healthy", got["status"])
	assert.Equal(t, float64(0), got["upload_sessions"])
	assert.Contains(t, got, "metrics")
}

// TestZipDeleteAfterKeepsArchive tests that a folder holding the new archive survives
func TestZipDeleteAfterKeepsArchive(t *testing.T) {
	s := newTestServer(t)
	s.write(t, "work/a.txt", "a")

	w := s.post("/api/zip", ZipRequest{Items: []string{"work"}, ArchiveName: "work", OutputPath: "work", DeleteAfterZip: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.FileExists(t, filepath.Join(s.root, "work", "work.zip"))
	assert.Equal(t, []string{ws.ActionCreated}, s.events.actions())
}
