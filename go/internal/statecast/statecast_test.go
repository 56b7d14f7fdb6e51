package statecast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

const (
	frameA = `{"leaderboard":[],"timer":"00:00","timer_running":false,"progress":0,"display_mode":"default"}`
	frameB = `{"leaderboard":[{"name":"Falcons","time":"01:02.3"}],"timer":"00:12","timer_running":true,"progress":30,"display_mode":"race","current_team":"Otters"}`
)

func newTestServer(t *testing.T, mirrors ...Broadcaster) (*Server, *httptest.Server) {
	t.Helper()
	server := NewServer(NewHub(DefaultHubConfig()), mirrors...)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return server, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("frame type = %d, want text", kind)
	}
	return string(data)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type captureMirror struct {
	mu     sync.Mutex
	frames []string
}

func (m *captureMirror) Broadcast(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, string(raw))
}

func TestHubSendsLatestOnConnect(t *testing.T) {
	server, srv := newTestServer(t)
	if err := server.Publish([]byte(frameA)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	conn := dial(t, srv)
	if got := readFrame(t, conn); got != frameA {
		t.Errorf("first frame = %s, want latest", got)
	}
}

func TestHubBroadcastsToEveryDisplay(t *testing.T) {
	server, srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitFor(t, func() bool { return server.hub.Stats().Connections == 2 })

	server.Publish([]byte(frameA))
	server.Publish([]byte(frameB))

	for _, conn := range []*websocket.Conn{a, b} {
		if got := readFrame(t, conn); got != frameA {
			t.Errorf("frame 1 = %s", got)
		}
		if got := readFrame(t, conn); got != frameB {
			t.Errorf("frame 2 = %s", got)
		}
	}

	if stats := server.hub.Stats(); stats.Broadcasts != 2 {
		t.Errorf("Broadcasts = %d, want 2", stats.Broadcasts)
	}
}

func TestHubUnregistersClosedDisplay(t *testing.T) {
	server, srv := newTestServer(t)
	conn := dial(t, srv)
	waitFor(t, func() bool { return server.hub.Stats().Connections == 1 })

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return server.hub.Stats().Connections == 0 })
}

func TestHubRunDisconnectsOnShutdown(t *testing.T) {
	server, srv := newTestServer(t)
	conn := dial(t, srv)
	waitFor(t, func() bool { return server.hub.Stats().Connections == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		server.hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read after shutdown = %v, want going away close", err)
	}
}

func TestPublishRejectsMalformed(t *testing.T) {
	mirror := &captureMirror{}
	server, _ := newTestServer(t, mirror)

	err := server.Publish([]byte(`{"timer":"00:01"}`))
	if !errors.Is(err, snapshot.ErrMalformed) {
		t.Fatalf("Publish() error = %v, want ErrMalformed", err)
	}
	if server.hub.Latest() != nil {
		t.Errorf("malformed snapshot became latest")
	}
	if len(mirror.frames) != 0 {
		t.Errorf("malformed snapshot mirrored")
	}

	if err := server.Publish([]byte(frameB)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(mirror.frames) != 1 || mirror.frames[0] != frameB {
		t.Errorf("mirror frames = %v", mirror.frames)
	}
}

func TestHTTPRoutes(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("GET /state before publish = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/state", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST /state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST malformed = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/state", "application/json", strings.NewReader(frameB))
	if err != nil {
		t.Fatalf("POST /state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("POST valid = %d, want 202", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != frameB {
		t.Errorf("GET /state = %s, want posted snapshot", body)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health struct {
		Status     string `json:"status"`
		Broadcasts int    `json:"broadcasts"`
	}
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status != "ok" || health.Broadcasts != 1 {
		t.Errorf("health = %+v", health)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/state", nil)
	req.Header.Set("Origin", "http://scoreboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

const testScript = `
interval: 1s
frames:
  - leaderboard: []
    timer: "00:00"
    timer_running: false
    progress: 0
    display_mode: default
  - leaderboard:
      - name: Falcons
        time: "01:02.3"
    timer: "00:10"
    timer_running: true
    progress: 50
    display_mode: race
    current_team: Otters
`

func TestParseScript(t *testing.T) {
	script, err := ParseScript([]byte(testScript))
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if script.Interval != time.Second {
		t.Errorf("Interval = %s", script.Interval)
	}
	if len(script.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(script.Frames))
	}

	s, err := snapshot.Decode(script.Frames[1])
	if err != nil {
		t.Fatalf("frame 1 does not decode: %v", err)
	}
	if s.DisplayMode != snapshot.ModeRace || s.Progress != 50 || s.CurrentTeam != "Otters" {
		t.Errorf("frame 1 = %+v", s)
	}
	if len(s.Leaderboard) != 1 || s.Leaderboard[0].Time != "01:02.3" {
		t.Errorf("leaderboard = %+v", s.Leaderboard)
	}
}

func TestParseScriptErrors(t *testing.T) {
	if _, err := ParseScript([]byte("interval: 1s\nframes: []\n")); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("empty script error = %v", err)
	}
	bad := "frames:\n  - timer: \"00:00\"\n"
	if _, err := ParseScript([]byte(bad)); !errors.Is(err, snapshot.ErrMalformed) {
		t.Errorf("bad frame error = %v, want ErrMalformed", err)
	}

	script, err := ParseScript([]byte("frames:\n  - {leaderboard: [], progress: 0, display_mode: default}\n"))
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if script.Interval != 2*time.Second {
		t.Errorf("default Interval = %s", script.Interval)
	}
}

func TestScriptPlayLoops(t *testing.T) {
	script, err := ParseScript([]byte(testScript))
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}

	fc := clockwork.NewFakeClock()
	published := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		script.Play(ctx, fc, func(raw []byte) { published <- string(raw) })
		close(done)
	}()

	next := func() string {
		select {
		case raw := <-published:
			return raw
		case <-time.After(3 * time.Second):
			t.Fatal("no frame published")
			return ""
		}
	}

	want := []string{string(script.Frames[0]), string(script.Frames[1]), string(script.Frames[0])}
	for i, w := range want {
		if i > 0 {
			ctxWait, cancelWait := context.WithTimeout(context.Background(), 3*time.Second)
			if err := fc.BlockUntilContext(ctxWait, 1); err != nil {
				t.Fatalf("ticker not waiting: %v", err)
			}
			cancelWait()
			fc.Advance(script.Interval)
		}
		if got := next(); got != w {
			t.Errorf("frame %d = %s, want %s", i, got, w)
		}
	}

	cancel()
	<-done
}

func TestLoadScriptFile(t *testing.T) {
	script, err := LoadScript("testdata/race.yaml")
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if len(script.Frames) != 7 || script.Interval != 3*time.Second {
		t.Errorf("script = %d frames every %s", len(script.Frames), script.Interval)
	}

	if _, err := LoadScript("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing script")
	}
}
