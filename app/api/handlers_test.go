package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/standards-comb/app/cache"
	"github.com/lysyi3m/standards-comb/app/checker"
	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/document"
	"github.com/lysyi3m/standards-comb/app/metrics"
	"github.com/lysyi3m/standards-comb/app/tasks"
)

const officialPage = `<html><body>
<table>
	<tr><th>Reference and title</th><th>Superseded standard</th><th>Date of publication</th></tr>
	<tr><td>EN 300 328 V2.2.2 Wideband transmission systems</td><td>EN 300 328 V2.1.1</td><td>2019-07-15</td></tr>
	<tr><td>EN 301 893 V2.1.1 5 GHz RLAN</td><td></td><td>2017-05-08</td></tr>
</table>
</body></html>`

const journalFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Official Journal</title>
    <item>
      <title>Commission Implementing Decision (EU) 2024/1234 amending Implementing Decision (EU) 2022/2191</title>
      <link>https://example.com/oj/2024-1234</link>
      <pubDate>Mon, 15 Apr 2024 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

type MockScheduler struct {
	mu    sync.Mutex
	tasks []tasks.TaskInterface
}

func (m *MockScheduler) Start() {}
func (m *MockScheduler) Stop()  {}

func (m *MockScheduler) EnqueueTask(task tasks.TaskInterface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

type testServer struct {
	engine    *gin.Engine
	handler   *Handler
	scheduler *MockScheduler
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/re", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(officialPage))
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(journalFeed))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	configDir := t.TempDir()
	directivesDir := filepath.Join(configDir, config.DirectivesDir)
	if err := os.MkdirAll(directivesDir, 0755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"RE": fmt.Sprintf(`name: "Radio Equipment Directive"
directive: "2014/53/EU"
decision: "Commission Implementing Decision (EU) 2022/2191"
url: "%s/re"
journal_feed_url: "%s/feed"
settings:
  enabled: true
`, upstream.URL, upstream.URL),
		"EMC": fmt.Sprintf(`name: "EMC Directive"
directive: "2014/30/EU"
url: "%s/broken"
settings:
  enabled: true
`, upstream.URL),
	}
	for code, content := range files {
		if err := os.WriteFile(filepath.Join(directivesDir, code+".yml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	directives := config.NewDirectiveCache(configDir)
	if err := directives.Run(); err != nil {
		t.Fatal(err)
	}

	db, err := database.NewConnection(database.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	patterns := config.DefaultPatterns()
	fetcher := document.NewFetcher(upstream.Client(), "standards-comb-test", 5*time.Second)
	c := checker.New(patterns, directives, fetcher, cache.New(database.NewCacheRepository(db)), database.NewComparisonRepository(db), time.Hour)

	scheduler := &MockScheduler{}
	handler := NewHandler(c, directives, scheduler)
	return &testServer{
		engine:    NewServer(handler, apiKey, metrics.New()),
		handler:   handler,
		scheduler: scheduler,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON response, got %q: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func (s *testServer) get(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) postText(t *testing.T, path, text string) (int, map[string]interface{}) {
	t.Helper()

	payload, _ := json.Marshal(textRequest{Text: text, Source: "scope.txt"})
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func TestHandler_GetHealth(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.get(t, "/health")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if body["loaded_configurations"] != float64(2) {
		t.Errorf("Expected 2 loaded configurations, got %v", body["loaded_configurations"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, "secret")

	if code, _ := s.get(t, "/api/directives"); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/directives", nil)
	req.Header.Set("X-API-Key", "wrong")
	if code, body := s.do(t, req); code != http.StatusUnauthorized || body["error"] != "Invalid API key" {
		t.Errorf("Expected 401 for wrong key, got %d %v", code, body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/directives", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if code, _ := s.do(t, req); code != http.StatusOK {
		t.Errorf("Expected 200 with bearer key, got %d", code)
	}

	if code, _ := s.get(t, "/health"); code != http.StatusOK {
		t.Errorf("Expected health to stay public, got %d", code)
	}
}

func TestHandler_ListDirectives(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.get(t, "/api/directives")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if body["total"] != float64(2) {
		t.Errorf("Expected 2 directives, got %v", body["total"])
	}

	first := body["directives"].([]interface{})[0].(map[string]interface{})
	if first["code"] != "EMC" {
		t.Errorf("Expected directives sorted by code, got %v", first["code"])
	}
}

func TestHandler_GetOfficialStandards(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.get(t, "/api/directives/RE/standards")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}
	if body["total"] != float64(2) {
		t.Errorf("Expected 2 standards, got %v", body["total"])
	}

	if code, _ := s.get(t, "/api/directives/XYZ/standards"); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown directive, got %d", code)
	}

	if code, _ := s.get(t, "/api/directives/EMC/standards"); code != http.StatusBadGateway {
		t.Errorf("Expected 502 when the official source fails, got %d", code)
	}
}

func TestHandler_GetJournalNotices(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.get(t, "/api/directives/RE/journal")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}
	if body["total"] != float64(1) || body["unrecorded"] != float64(1) {
		t.Errorf("Expected 1 unrecorded notice, got %v", body)
	}

	if code, _ := s.get(t, "/api/directives/EMC/journal"); code != http.StatusNotFound {
		t.Errorf("Expected 404 for directive without feed, got %d", code)
	}
}

func TestHandler_RefreshDirective(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/directives/RE/refresh", nil)
	code, body := s.do(t, req)
	if code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %v", code, body)
	}

	if len(s.scheduler.tasks) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(s.scheduler.tasks))
	}
	task := s.scheduler.tasks[0].Meta()
	if task.Type != tasks.TaskTypeRefreshOfficial || task.Directive != "RE" {
		t.Errorf("Unexpected task %s for %s", task.Type, task.Directive)
	}
}

func TestHandler_Search(t *testing.T) {
	s := newTestServer(t, "")

	if code, _ := s.get(t, "/api/search"); code != http.StatusBadRequest {
		t.Errorf("Expected 400 without query, got %d", code)
	}

	code, body := s.get(t, "/api/search?q=rlan")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}
	if body["total"] != float64(1) {
		t.Errorf("Expected 1 result, got %v", body["total"])
	}
}

func TestHandler_Extract(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.postText(t, "/api/extract", "EN 300 328 V2.2.2\nEN 55032 Multimedia equipment")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}
	if body["total"] != float64(2) {
		t.Errorf("Expected 2 standards, got %v", body["total"])
	}

	if code, _ := s.postText(t, "/api/extract", "   "); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty text, got %d", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader("not json"))
	if code, _ := s.do(t, req); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", code)
	}
}

func TestHandler_Extract_Upload(t *testing.T) {
	s := newTestServer(t, "")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("certificate", "scope.txt")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("IEC 61000-4-2 ESD immunity"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	code, body := s.do(t, req)
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}

	scope := body["scope"].(map[string]interface{})
	if scope["source"] != "scope.txt" {
		t.Errorf("Expected upload name as source, got %v", scope["source"])
	}
	if body["total"] != float64(1) {
		t.Errorf("Expected 1 standard, got %v", body["total"])
	}
}

func TestHandler_Extract_UploadTooLarge(t *testing.T) {
	s := newTestServer(t, "")
	s.handler.maxUpload = 16

	upload := func(content string) (int, map[string]interface{}) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("certificate", "scope.txt")
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return s.do(t, req)
	}

	code, body := upload("IEC 61000-4-2 ESD immunity, EN 55032 emissions")
	if code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d: %v", code, body)
	}

	code, body = upload("EN 55032")
	if code != http.StatusOK {
		t.Errorf("Expected status 200 within the limit, got %d: %v", code, body)
	}
}

func TestHandler_Compare(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.postText(t, "/api/compare/RE", "EN 300 328 V2.2.2\nEN 55032")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}

	summary := body["summary"].(map[string]interface{})
	if summary["matched"] != float64(1) {
		t.Errorf("Expected 1 match, got %v", summary["matched"])
	}

	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("Expected comparison to be recorded")
	}

	code, body = s.get(t, "/api/comparisons")
	if code != http.StatusOK || body["total"] != float64(1) {
		t.Errorf("Expected 1 recorded comparison, got %d %v", code, body["total"])
	}

	code, body = s.get(t, "/api/comparisons/"+id)
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if body["result"] == nil {
		t.Error("Expected stored result to be returned")
	}

	if code, _ := s.get(t, "/api/comparisons/missing"); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown comparison, got %d", code)
	}

	if code, _ := s.get(t, "/api/comparisons?limit=zero"); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", code)
	}
}

func TestHandler_CompareAll(t *testing.T) {
	s := newTestServer(t, "")

	code, body := s.postText(t, "/api/compare", "EN 300 328 V2.2.2")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, body)
	}
	if body["best"] != "RE" {
		t.Errorf("Expected RE as best directive, got %v", body["best"])
	}

	results := body["results"].(map[string]interface{})
	if _, ok := results["EMC"]; ok {
		t.Error("Expected directive with failing source to be skipped")
	}
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, "secret")

	s.get(t, "/health")

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `standards_comb_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("Expected the health request to be counted, got:\n%s", w.Body.String())
	}
}
