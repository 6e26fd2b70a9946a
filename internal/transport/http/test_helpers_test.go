package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/config"
	"github.com/vovakirdan/labconnect/internal/core"
	"github.com/vovakirdan/labconnect/internal/proto"
	"github.com/vovakirdan/labconnect/internal/session"
)

type testEnv struct {
	server   *httptest.Server
	hub      *core.Hub
	sessions *session.Service
	store    *session.MemoryStore
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config, sessions SessionService) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	env := &testEnv{
		hub: core.NewHub(&logger, core.Options{
			EventBuffer:     cfg.Relay.EventBuffer,
			MaxMessageBytes: cfg.Relay.MaxMessageBytes,
		}),
	}
	if sessions == nil {
		env.store = session.NewMemoryStore()
		env.sessions = session.NewService(env.store, session.Config{
			CodeLength: cfg.Session.CodeLength,
			TTL:        cfg.Session.TTL,
		}, &logger)
		sessions = env.sessions
	}

	server := NewServer(env.hub, sessions, cfg, &logger)
	env.server = httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		env.hub.Close()
		env.server.Close()
	})
	return env
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.server.URL, "http", "ws", 1) + "/ws"
}

func dial(ctx context.Context, t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, env.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func read(ctx context.Context, t *testing.T, conn *websocket.Conn) rawOutbound {
	t.Helper()
	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

// readUntil skips frames until one with the given event (or error type) arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, event string) rawOutbound {
	t.Helper()
	for {
		out := read(ctx, t, conn)
		if out.Event == event || (event == proto.OutboundTypeError && out.Type == proto.OutboundTypeError) {
			return out
		}
	}
}

// waitMembers blocks until the room has n members, so joins sent over
// separate sockets are known to be processed.
func waitMembers(t *testing.T, hub *core.Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(hub.Registry().MembersOf(room)) == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d members", room, n)
}
