package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/auth"
	"github.com/me/neurolens/internal/config"
	"github.com/me/neurolens/internal/logging"
	"github.com/me/neurolens/internal/progress"
	"github.com/me/neurolens/internal/store"
	"github.com/me/neurolens/pkg/model"
)

func testConfig() config.ServerConfig {
	cfg := config.DefaultServerConfig()
	cfg.StepDelay = 0
	return cfg
}

func testServer(t *testing.T, cfg config.ServerConfig, files fstest.MapFS) *Server {
	t.Helper()
	logger := logging.Discard()
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(cfg, assets.NewFS(files), st, logger)
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Error     *model.APIError `json:"error"`
}

func doGet(t *testing.T, srv *Server, path string) envelope {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: status=%d, want 200, body=%s", path, w.Code, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return env
}

// client talks to a live test server and keeps the session cookie.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, _ := cookiejar.New(nil)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(req *http.Request) (int, envelope) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.t.Fatalf("%s %s: invalid JSON: %v", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, env
}

func (c *client) get(path string) (int, envelope) {
	req, _ := http.NewRequest("GET", c.base+path, nil)
	return c.do(req)
}

func (c *client) login(username, password string) (int, envelope) {
	body, _ := json.Marshal(model.LoginRequest{Username: username, Password: password})
	req, _ := http.NewRequest("POST", c.base+"/api/v1/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(fileName string) (int, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", fileName)
	fw.Write([]byte("raw"))
	mw.Close()
	req, _ := http.NewRequest("POST", c.base+"/api/v1/runs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *client) createRun(fileName string) *model.Run {
	c.t.Helper()
	status, env := c.upload(fileName)
	if status != http.StatusCreated {
		c.t.Fatalf("create run: status %d, error %+v", status, env.Error)
	}
	var run model.Run
	if err := json.Unmarshal(env.Data, &run); err != nil {
		c.t.Fatal(err)
	}
	return &run
}

func loggedIn(t *testing.T, files fstest.MapFS) (*httptest.Server, *client) {
	t.Helper()
	ts := httptest.NewServer(testServer(t, testConfig(), files))
	t.Cleanup(ts.Close)
	c := newClient(t, ts)
	if status, env := c.login("test", "pw"); status != http.StatusOK {
		t.Fatalf("login: status %d, error %+v", status, env.Error)
	}
	return ts, c
}

func TestDiscovery(t *testing.T) {
	srv := testServer(t, testConfig(), fstest.MapFS{})
	env := doGet(t, srv, "/api/v1/")
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data struct {
		Name      string `json:"name"`
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Name != "OpenNeuroLens API" {
		t.Errorf("name = %q", data.Name)
	}
	found := false
	for _, ep := range data.Endpoints {
		if ep.Path == "/api/v1/sse/runs/{id}" {
			found = true
		}
	}
	if !found {
		t.Error("discovery does not list the SSE endpoint")
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t, testConfig(), fstest.MapFS{})
	env := doGet(t, srv, "/api/v1/health")
	var data healthResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Status != "healthy" {
		t.Errorf("health status = %q", data.Status)
	}
	if data.Store != "sqlite" {
		t.Errorf("store = %q", data.Store)
	}
}

func TestResponseEnvelope_HasRequestID(t *testing.T) {
	srv := testServer(t, testConfig(), fstest.MapFS{})
	env := doGet(t, srv, "/api/v1/health")
	if !strings.HasPrefix(env.RequestID, "req_") {
		t.Errorf("request_id = %q, want req_ prefix", env.RequestID)
	}
	if env.Timestamp == "" {
		t.Error("timestamp is empty")
	}
}

func TestResponseEnvelope_XRequestIDHeader(t *testing.T) {
	srv := testServer(t, testConfig(), fstest.MapFS{})
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	xReqID := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(xReqID, "req_") {
		t.Errorf("X-Request-ID header = %q, want req_ prefix", xReqID)
	}
}

func TestLogin(t *testing.T) {
	ts := httptest.NewServer(testServer(t, testConfig(), fstest.MapFS{}))
	defer ts.Close()
	c := newClient(t, ts)

	if status, env := c.get("/api/v1/datasets"); status != http.StatusUnauthorized {
		t.Errorf("gated before login: status %d", status)
	} else if env.Error == nil || env.Error.Message != auth.LoginRequired {
		t.Errorf("gated error = %+v", env.Error)
	}

	status, env := c.login("test", "nope")
	if status != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d", status)
	}
	var res model.LoginResult
	json.Unmarshal(env.Data, &res)
	if res.Authenticated || res.Attempts != 1 {
		t.Errorf("bad login result = %+v", res)
	}
	if model.CountBanners(res.Banners, model.BannerError) != 1 {
		t.Errorf("bad login banners = %+v", res.Banners)
	}

	status, env = c.login("test", "pw")
	if status != http.StatusOK {
		t.Fatalf("login: status %d", status)
	}
	json.Unmarshal(env.Data, &res)
	if !res.Authenticated || res.Attempts != 2 {
		t.Errorf("login result = %+v", res)
	}

	if status, _ := c.get("/api/v1/datasets"); status != http.StatusOK {
		t.Errorf("gated after login: status %d", status)
	}

	req, _ := http.NewRequest("POST", ts.URL+"/api/v1/logout", nil)
	if status, _ := c.do(req); status != http.StatusOK {
		t.Errorf("logout: status %d", status)
	}
	if status, _ := c.get("/api/v1/datasets"); status != http.StatusUnauthorized {
		t.Errorf("gated after logout: status %d", status)
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	srv := testServer(t, testConfig(), fstest.MapFS{})
	req := httptest.NewRequest("POST", "/api/v1/login", strings.NewReader("{"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestOpenAPIWithoutGate(t *testing.T) {
	cfg := testConfig()
	cfg.Page.LoginGate = false
	srv := testServer(t, cfg, fstest.MapFS{})
	env := doGet(t, srv, "/api/v1/signals")
	var labels []model.DatasetLabel
	json.Unmarshal(env.Data, &labels)
	if len(labels) != 3 || labels[0] != model.DatasetEEG1 {
		t.Errorf("labels = %v", labels)
	}
}

func TestDatasets(t *testing.T) {
	_, c := loggedIn(t, fstest.MapFS{"Example1/x.png": {Data: []byte("png")}})

	_, env := c.get("/api/v1/datasets")
	var list []datasetInfo
	json.Unmarshal(env.Data, &list)
	if len(list) == 0 || list[0].Label != model.DatasetEEG1 || list[0].Dir != "Example1" {
		t.Errorf("datasets = %+v", list)
	}

	status, env := c.get("/api/v1/datasets/EEG1")
	if status != http.StatusOK {
		t.Fatalf("get dataset: status %d", status)
	}
	var view struct {
		Images []struct {
			Path string `json:"path"`
		} `json:"images"`
	}
	json.Unmarshal(env.Data, &view)
	if len(view.Images) != 1 || view.Images[0].Path != "Example1/x.png" {
		t.Errorf("images = %+v", view.Images)
	}

	if status, env := c.get("/api/v1/datasets/EEG9"); status != http.StatusNotFound || env.Error.Code != model.ErrNotFound {
		t.Errorf("unknown dataset: status %d error %+v", status, env.Error)
	}
}

func TestCreateRun(t *testing.T) {
	_, c := loggedIn(t, fstest.MapFS{})

	tests := []struct {
		name   string
		file   string
		status int
	}{
		{"edf", "subject01.edf", http.StatusCreated},
		{"upper-case", "SUBJECT.CSV", http.StatusCreated},
		{"unsupported", "notes.txt", http.StatusBadRequest},
		{"no extension", "recording", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := c.upload(tt.file)
			if status != tt.status {
				t.Errorf("status = %d, want %d (error %+v)", status, tt.status, env.Error)
			}
			if tt.status == http.StatusBadRequest && (env.Error == nil || env.Error.Code != model.ErrValidation) {
				t.Errorf("error = %+v, want validation", env.Error)
			}
		})
	}
}

func TestGetRun(t *testing.T) {
	ts, c := loggedIn(t, fstest.MapFS{})
	run := c.createRun("a.bdf")
	if run.State != model.RunStateUploaded || run.Extension != "bdf" {
		t.Errorf("run = %+v", run)
	}

	status, env := c.get("/api/v1/runs/" + run.ID)
	if status != http.StatusOK {
		t.Fatalf("get run: status %d", status)
	}
	var got model.Run
	json.Unmarshal(env.Data, &got)
	if got.ID != run.ID || got.FileName != "a.bdf" {
		t.Errorf("got = %+v", got)
	}

	if status, env := c.get("/api/v1/runs/" + run.ID + "/results"); status != http.StatusConflict || env.Error.Code != model.ErrConflict {
		t.Errorf("results before processing: status %d error %+v, want 409 conflict", status, env.Error)
	}
	if status, _ := c.get("/api/v1/runs/run_missing"); status != http.StatusNotFound {
		t.Errorf("missing run: status %d, want 404", status)
	}

	// Runs are private to the session that uploaded them.
	other := newClient(t, ts)
	other.login("test", "pw")
	if status, _ := other.get("/api/v1/runs/" + run.ID); status != http.StatusNotFound {
		t.Errorf("foreign run: status %d, want 404", status)
	}
}

type sseEvent struct {
	name string
	data string
}

func readSSE(t *testing.T, r io.Reader) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	return events
}

func TestSSERun(t *testing.T) {
	files := fstest.MapFS{"Demo/ERP_Frontal_GoNoGo.png": {Data: []byte("png")}}
	ts, c := loggedIn(t, files)
	run := c.createRun("rec.vhdr")

	resp, err := c.http.Get(ts.URL + "/api/v1/sse/runs/" + run.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	events := readSSE(t, resp.Body)

	// init, 0..100, complete
	last := len(events) - 1
	if len(events) != progress.Final+3 {
		t.Fatalf("got %d events, want %d", len(events), progress.Final+3)
	}
	if events[0].name != "init" || events[last].name != "complete" {
		t.Errorf("first/last = %s/%s", events[0].name, events[last].name)
	}
	for p := 0; p <= progress.Final; p++ {
		ev := events[p+1]
		var pe model.ProgressEvent
		if err := json.Unmarshal([]byte(ev.data), &pe); err != nil {
			t.Fatal(err)
		}
		if ev.name != "progress" || pe.Percent != p || pe.Text != progress.StatusText(p) || pe.RunID != run.ID {
			t.Errorf("event %d = %s %+v, want progress %d", p+1, ev.name, pe, p)
		}
	}

	var done struct {
		Run     model.Run `json:"run"`
		Text    string    `json:"text"`
		Results struct {
			Banners []model.Banner `json:"banners"`
			Images  []struct {
				Path string `json:"path"`
			} `json:"images"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(events[last].data), &done); err != nil {
		t.Fatal(err)
	}
	if done.Run.State != model.RunStateCompleted || done.Text != progress.CompleteText {
		t.Errorf("complete = %+v", done)
	}
	if len(done.Results.Images) != 1 {
		t.Errorf("images = %+v", done.Results.Images)
	}
	// Three missing images plus the missing summary workbook.
	if n := model.CountBanners(done.Results.Banners, model.BannerWarning); n != 4 {
		t.Errorf("warnings = %d, want 4: %+v", n, done.Results.Banners)
	}

	if status, _ := c.get("/api/v1/runs/" + run.ID + "/results"); status != http.StatusOK {
		t.Errorf("results after processing: status %d", status)
	}
}

// brokenStream fails every write that carries marker, like a client that
// hung up before the last event.
type brokenStream struct {
	*httptest.ResponseRecorder
	marker string
}

func (w *brokenStream) Write(p []byte) (int, error) {
	if strings.Contains(string(p), w.marker) {
		return 0, errors.New("write: broken pipe")
	}
	return w.ResponseRecorder.Write(p)
}

func TestSSELogsFailedFinalEvent(t *testing.T) {
	cfg := testConfig()
	cfg.Page.LoginGate = false
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st, err := store.NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	srv := New(cfg, assets.NewFS(fstest.MapFS{}), st, logger)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "rec.edf")
	fw.Write([]byte("raw"))
	mw.Close()
	req := httptest.NewRequest("POST", "/api/v1/runs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create run: status %d, body %s", rec.Code, rec.Body.String())
	}
	var env envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	var run model.Run
	json.Unmarshal(env.Data, &run)

	req = httptest.NewRequest("GET", "/api/v1/sse/runs/"+run.ID, nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	w := &brokenStream{ResponseRecorder: httptest.NewRecorder(), marker: "event: complete"}
	srv.ServeHTTP(w, req)

	if strings.Contains(w.Body.String(), "event: complete") {
		t.Fatal("complete event was written")
	}
	if !strings.Contains(w.Body.String(), "event: progress") {
		t.Fatalf("no progress events: %s", w.Body.String())
	}
	if n := strings.Count(logs.String(), "sse client disconnected"); n != 1 {
		t.Errorf("logged %d disconnects, want 1:\n%s", n, logs.String())
	}
	if !strings.Contains(logs.String(), "broken pipe") {
		t.Errorf("write error not logged:\n%s", logs.String())
	}
}

func TestStreamRejectsRunningRun(t *testing.T) {
	cfg := testConfig()
	cfg.StepDelay = 200 * time.Millisecond
	ts := httptest.NewServer(testServer(t, cfg, fstest.MapFS{}))
	t.Cleanup(ts.Close)
	c := newClient(t, ts)
	if status, _ := c.login("test", "pw"); status != http.StatusOK {
		t.Fatalf("login: status %d", status)
	}
	run := c.createRun("rec.edf")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/v1/sse/runs/"+run.ID, nil)
	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	// Wait for the init event; the run is RUNNING from then on.
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() && sc.Text() != "" {
	}

	if status, env := c.get("/api/v1/sse/runs/" + run.ID); status != http.StatusConflict || env.Error.Code != model.ErrConflict {
		t.Errorf("second sse: status %d error %+v, want 409 conflict", status, env.Error)
	}

	tsURL, _ := url.Parse(ts.URL)
	header := http.Header{}
	for _, ck := range c.http.Jar.Cookies(tsURL) {
		header.Add("Cookie", ck.String())
	}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws/runs/" + run.ID
	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		conn.Close()
		t.Fatal("websocket dial succeeded for a running run")
	}
	if wsResp == nil || wsResp.StatusCode != http.StatusConflict {
		t.Errorf("websocket dial: resp %v, want 409", wsResp)
	}

	cancel()
	// The abandoned stream fails the run.
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, env := c.get("/api/v1/runs/" + run.ID)
		var got model.Run
		json.Unmarshal(env.Data, &got)
		if got.State == model.RunStateFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run state = %s after disconnect, want FAILED", got.State)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWSRun(t *testing.T) {
	ts, c := loggedIn(t, fstest.MapFS{})
	run := c.createRun("rec.cnt")

	tsURL, _ := url.Parse(ts.URL)
	header := http.Header{}
	for _, ck := range c.http.Jar.Cookies(tsURL) {
		header.Add("Cookie", ck.String())
	}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws/runs/" + run.ID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v (resp %v)", err, resp)
	}
	defer conn.Close()

	var percents []int
	var last wsMessage
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "progress" {
			percents = append(percents, msg.Percent)
		}
		last = msg
	}
	if len(percents) != progress.Final+1 {
		t.Fatalf("got %d progress messages: %v", len(percents), percents)
	}
	for i, p := range percents {
		if p != i {
			t.Fatalf("progress %d = %d, want strictly increasing 0..100", i, p)
		}
	}
	if last.Type != "complete" || last.Run == nil || last.Run.State != model.RunStateCompleted || last.Text != progress.CompleteText {
		t.Errorf("last message = %+v", last)
	}
}

func TestSignals(t *testing.T) {
	_, c := loggedIn(t, fstest.MapFS{})

	status, env := c.get("/api/v1/signals/EEG3?fig=2,4")
	if status != http.StatusOK {
		t.Fatalf("signals: status %d", status)
	}
	var set struct {
		Label  model.DatasetLabel `json:"label"`
		X      []float64          `json:"x"`
		Series []struct {
			Figure int       `json:"figure"`
			Y      []float64 `json:"y"`
		} `json:"series"`
	}
	json.Unmarshal(env.Data, &set)
	if set.Label != model.DatasetEEG3 || len(set.X) != 500 {
		t.Errorf("label %s, %d points", set.Label, len(set.X))
	}
	if len(set.Series) != 2 || set.Series[0].Figure != 2 || set.Series[1].Figure != 4 {
		t.Errorf("series = %+v", set.Series)
	}

	for _, tt := range []struct {
		path   string
		status int
	}{
		{"/api/v1/signals/EEG3?fig=x", http.StatusBadRequest},
		{"/api/v1/signals/EEG3?fig=5", http.StatusBadRequest},
		{"/api/v1/signals/EEG8", http.StatusNotFound},
	} {
		if status, _ := c.get(tt.path); status != tt.status {
			t.Errorf("GET %s: status %d, want %d", tt.path, status, tt.status)
		}
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"http://evil.test", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://example.com/api/v1/ws/runs/x", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := sameOrigin(r); got != tt.want {
			t.Errorf("sameOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
