package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/config"
	"github.com/vovakirdan/labconnect/internal/proto"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	logger := zerolog.Nop()
	a, err := New(context.Background(), cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.cleanup)
	return a
}

func createAndVerify(t *testing.T, a *App) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/create-session", strings.NewReader(`{"sessionId":"lab42x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/verify-session/LAB42X", nil))
	var body struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if !body.Valid {
		t.Fatal("created session not valid")
	}
}

func TestAppMemoryBackend(t *testing.T) {
	createAndVerify(t, newTestApp(t, nil))
}

func TestAppSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	createAndVerify(t, newTestApp(t, func(cfg *config.Config) {
		cfg.Session.Backend = config.BackendSQLite
		cfg.Session.DatabasePath = dbPath
	}))
}

func TestAppUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Backend = "etcd"
	logger := zerolog.Nop()
	if _, err := New(context.Background(), cfg, &logger); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Addr = "127.0.0.1:0"
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func joinRoom(ctx context.Context, t *testing.T, wsURL, room, user string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", user, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	data, _ := json.Marshal(proto.JoinData{Room: room, User: user})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: data}); err != nil {
		t.Fatalf("join %s: %v", user, err)
	}
	return conn
}

func waitForMembers(t *testing.T, a *App, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(a.hub.Registry().MembersOf(room)) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s never reached %d members", room, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAppRelaysOverWebsocket(t *testing.T) {
	a := newTestApp(t, nil)
	createAndVerify(t, a)

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()
	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := joinRoom(ctx, t, wsURL, "lab42x", "Alice")
	waitForMembers(t, a, "LAB42X", 1)
	bob := joinRoom(ctx, t, wsURL, "LAB42X", "Bob")
	waitForMembers(t, a, "LAB42X", 2)

	data, _ := json.Marshal(proto.SendData{Text: "hello lab"})
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: proto.InboundTypeSend, Data: data}); err != nil {
		t.Fatalf("send: %v", err)
	}

	for {
		var out frame
		if err := wsjson.Read(ctx, bob, &out); err != nil {
			t.Fatalf("read: %v", err)
		}
		if out.Event != proto.EventReceiveMessage {
			continue
		}
		var msg proto.ReceiveMessage
		if err := json.Unmarshal(out.Data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Text == "hello lab" {
			if msg.SenderName != "Alice" || msg.Room != "LAB42X" {
				t.Fatalf("unexpected relayed message: %+v", msg)
			}
			return
		}
	}
}
