package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelflow/api"
	"pixelflow/api/pixelflow/ProcessImage"
	"pixelflow/internal/logging"
	"pixelflow/internal/orchestrator"
	"pixelflow/internal/processor"
	"pixelflow/internal/workspace"
	"pixelflow/pkg/config"
	"pixelflow/pkg/model"
	"pixelflow/test"
)

func TestMain(m *testing.M) {
	test.RunFakeProcessorIfRequested()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router *gin.Engine
	dir    string
}

func newTestServer(t *testing.T, opts Options) testServer {
	t.Helper()
	dir := t.TempDir()
	logger := logging.BuildLoggerTo(os.Stderr)
	proc := processor.New(config.ProcessorConfig{Path: test.FakeProcessorPath(), Timeout: time.Minute}, logger)
	opts.Orchestrator = orchestrator.New(workspace.NewManager(dir), proc, config.OrchestratorConfig{MaxConcurrentInvocations: 2}, logger)
	opts.Probe = proc
	opts.WorkspaceDir = dir
	return testServer{router: New(opts).Router(), dir: dir}
}

func multipartRequest(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if image != nil {
		part, err := w.CreateFormFile("image", "upload.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.Error {
	t.Helper()
	var body api.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeDataURL(t *testing.T, url string) []byte {
	t.Helper()
	prefix, payload, ok := strings.Cut(url, ";base64,")
	require.True(t, ok, "not a base64 data URL: %.40s", url)
	assert.Equal(t, "data:image/jpeg", prefix)
	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	return data
}

func assertNoWorkspaceFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessImage(t *testing.T) {
	tests := []struct {
		operation, mode string
		width, height   int
	}{
		{"grayscale", "serial", 100, 50},
		{"flip", "parallel", 100, 50},
		{"rotate", "serial", 50, 100},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.operation+"/"+tc.mode, func(t *testing.T) {
			s := newTestServer(t, Options{})
			rec := s.serve(multipartRequest(t, "/process-image", test.JPEG(100, 50), map[string]string{
				"operation": tc.operation,
				"mode":      tc.mode,
			}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp api.ProcessImageResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.width, resp.Metadata.Width)
			assert.Equal(t, tc.height, resp.Metadata.Height)
			assert.GreaterOrEqual(t, resp.Metadata.ProcessingTime, 0.0)

			w, h, err := test.DecodeSize(decodeDataURL(t, resp.ProcessedImage))
			require.NoError(t, err)
			assert.Equal(t, tc.width, w)
			assert.Equal(t, tc.height, h)
			assertNoWorkspaceFiles(t, s.dir)
		})
	}
}

func TestProcessImageVersionedRoute(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.serve(multipartRequest(t, "/api/v1/process-image", test.JPEG(20, 10), map[string]string{
		"operation": "grayscale",
		"mode":      "parallel",
	}))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestProcessImageFlatbuffers(t *testing.T) {
	s := newTestServer(t, Options{})
	req := multipartRequest(t, "/process-image", test.JPEG(100, 50), map[string]string{
		"operation": "flip",
		"mode":      "serial",
	})
	req.Header.Set("Accept", mimeFlatbuffers)

	rec := s.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeFlatbuffers, rec.Header().Get("Content-Type"))

	resp := ProcessImage.GetRootAsProcessImageResponse(rec.Body.Bytes(), 0)
	assert.Equal(t, int32(100), resp.Width())
	assert.Equal(t, int32(50), resp.Height())
	assert.Equal(t, "image/jpeg", string(resp.MimeType()))

	w, h, err := test.DecodeSize(resp.ProcessedImageBytes())
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestProcessImageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		image  []byte
		fields map[string]string
		code   string
	}{
		{"missing image", nil, map[string]string{"operation": "flip", "mode": "serial"}, errMissingImage.Code},
		{"not an image", []byte("plain text, definitely not pixels"), map[string]string{"operation": "flip", "mode": "serial"}, errInvalidImage.Code},
		{"unknown operation", test.JPEG(8, 8), map[string]string{"operation": "blur", "mode": "serial"}, errInvalidOperation.Code},
		{"missing operation", test.JPEG(8, 8), map[string]string{"mode": "serial"}, errInvalidOperation.Code},
		{"unknown mode", test.JPEG(8, 8), map[string]string{"operation": "flip", "mode": "gpu"}, errInvalidMode.Code},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, Options{})
			rec := s.serve(multipartRequest(t, "/process-image", tc.image, tc.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
			assertNoWorkspaceFiles(t, s.dir)
		})
	}
}

func TestProcessImageTooLarge(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadBytes: 1024})
	rec := s.serve(multipartRequest(t, "/process-image", test.GenerateRandomBytes(4096), map[string]string{
		"operation": "flip",
		"mode":      "serial",
	}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "image_too_large", decodeError(t, rec).Code)
}

func TestProcessImageFailureIsGeneric(t *testing.T) {
	tests := []string{"exit=3", "garbage", "missing-field", "no-output", "empty-output", "text-output"}
	for _, directive := range tests {
		directive := directive
		t.Run(directive, func(t *testing.T) {
			s := newTestServer(t, Options{})
			rec := s.serve(multipartRequest(t, "/process-image", test.WithDirective(directive, test.JPEG(16, 16)), map[string]string{
				"operation": "grayscale",
				"mode":      "serial",
			}))
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, errProcessing, decodeError(t, rec))
			assertNoWorkspaceFiles(t, s.dir)
		})
	}
}

func TestDemo(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.serve(multipartRequest(t, "/demo", test.JPEG(100, 50), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report api.DemoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "100x50", report.ImageSize)
	require.Len(t, report.Results, 3)
	for i, op := range model.Operations {
		assert.Equal(t, op, report.Results[i].Operation)
		assert.GreaterOrEqual(t, report.Results[i].SerialTime, 0.0)
		assert.GreaterOrEqual(t, report.Results[i].ParallelTime, 0.0)
	}
	assertNoWorkspaceFiles(t, s.dir)
}

func TestDemoFailsAsAWhole(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.serve(multipartRequest(t, "/api/v1/demo", test.WithDirective("fail-on=rotate/parallel", test.JPEG(32, 16)), nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errDemo, decodeError(t, rec))
	assert.NotContains(t, rec.Body.String(), "results")
	assertNoWorkspaceFiles(t, s.dir)
}

func TestDemoMissingImage(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.serve(multipartRequest(t, "/demo", nil, map[string]string{"operation": "flip"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errMissingImage.Code, decodeError(t, rec).Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{ClientURL: "http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/process-image", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := s.serve(req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/process-image", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = s.serve(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Processor.Available)
	assert.Equal(t, int64(2), resp.Capacity)
	assert.Equal(t, s.dir, resp.Workspace.Dir)
}

type missingProbe struct{}

func (missingProbe) Path() string { return "/nonexistent/image_processor" }

func (missingProbe) Available() error { return os.ErrNotExist }

func TestHealthProcessorMissing(t *testing.T) {
	s := newTestServer(t, Options{})
	srv := New(Options{
		Orchestrator: orchestrator.New(workspace.NewManager(s.dir), nil, config.OrchestratorConfig{}, nil),
		Probe:        missingProbe{},
		WorkspaceDir: s.dir,
	})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Processor.Available)
	assert.NotEmpty(t, resp.Processor.Error)
}

func TestDataURL(t *testing.T) {
	url := dataURL(test.JPEG(4, 4))
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
}

func TestImageMIME(t *testing.T) {
	mime, ok := imageMIME(test.JPEG(4, 4))
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", mime)

	_, ok = imageMIME(nil)
	assert.False(t, ok)

	mime, ok = imageMIME([]byte("plain text"))
	assert.False(t, ok)
	assert.Equal(t, "text/plain", mime)
}
