package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/labconnect/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run creates a session, joins it with two connections and checks that a
// message from one reaches the other and is confirmed to the sender.
func run() error {
	server := flag.String("server", "http://localhost:3001", "LabConnect base URL")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	code, err := createSession(ctx, *server)
	if err != nil {
		return err
	}
	log.Printf("created session %s", code)

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	sender, err := dialAndJoin(ctx, wsURL, code, "smoke-sender")
	if err != nil {
		return err
	}
	defer sender.Close(websocket.StatusNormalClosure, "bye")

	// Joins carry no acknowledgement; a confirmed send proves the sender is
	// in the room before the receiver joins.
	if err := send(ctx, sender, code, "ready"); err != nil {
		return err
	}
	if _, err := waitFor(ctx, sender, proto.EventMessageSent); err != nil {
		return fmt.Errorf("wait for ready confirmation: %w", err)
	}

	receiver, err := dialAndJoin(ctx, wsURL, code, "smoke-receiver")
	if err != nil {
		return err
	}
	defer receiver.Close(websocket.StatusNormalClosure, "bye")

	if _, err := waitFor(ctx, sender, proto.EventReceiveMessage); err != nil {
		return fmt.Errorf("wait for join notice: %w", err)
	}

	if err := send(ctx, sender, code, *text); err != nil {
		return err
	}

	confirm, err := waitFor(ctx, sender, proto.EventMessageSent)
	if err != nil {
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	var sent proto.MessageSent
	if err := json.Unmarshal(confirm.Data, &sent); err != nil {
		return fmt.Errorf("decode confirmation: %w", err)
	}

	got, err := waitFor(ctx, receiver, proto.EventReceiveMessage)
	if err != nil {
		return fmt.Errorf("wait for relay: %w", err)
	}
	var msg proto.ReceiveMessage
	if err := json.Unmarshal(got.Data, &msg); err != nil {
		return fmt.Errorf("decode relay: %w", err)
	}
	if msg.ID != sent.ID || msg.Text != *text {
		return fmt.Errorf("relayed %+v does not match sent %+v", msg, sent)
	}

	log.Printf("smoke ok: message %s relayed in %s", sent.ID, code)
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, code, text string) error {
	payload, err := json.Marshal(proto.SendData{Room: code, SenderName: "smoke-sender", Text: text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSend, Data: payload}); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func createSession(ctx context.Context, server string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/api/create-session", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create session: status %d", resp.StatusCode)
	}
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode create session: %w", err)
	}
	return created.SessionID, nil
}

func dialAndJoin(ctx context.Context, wsURL, code, user string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	payload, err := json.Marshal(proto.JoinData{Room: code, User: user})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "marshal")
		return nil, fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: payload}); err != nil {
		conn.Close(websocket.StatusInternalError, "join")
		return nil, fmt.Errorf("join: %w", err)
	}
	return conn, nil
}

func waitFor(ctx context.Context, conn *websocket.Conn, event string) (outbound, error) {
	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return out, err
		}
		if out.Type == proto.OutboundTypeError && out.Error != nil {
			return out, fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
		}
		if out.Event == event {
			return out, nil
		}
	}
}
