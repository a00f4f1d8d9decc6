package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/avolkhov/driftchat-server/internal/proto"
)

type outboundFrame struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(env.server.URL, "http", "ws", 1) + "/ws"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })

	return conn
}

func authenticateWS(t *testing.T, ctx context.Context, conn *websocket.Conn, token string) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAuthenticate, Token: token}); err != nil {
		t.Fatalf("write authenticate: %v", err)
	}

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read authenticate reply: %v", err)
	}
	if frame.Type != proto.OutboundTypeAuthenticated {
		t.Fatalf("unexpected reply type: %s (message: %s)", frame.Type, frame.Message)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.server.Client().Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketAuthenticate(t *testing.T) {
	env := startTestServer(t)
	token, user := registerTestUser(t, env, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	authenticateWS(t, ctx, conn, token)

	if !env.registry.Online(user.ID) {
		t.Fatal("expected user to be online after authenticate")
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerTestUser(t, env, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAuthenticate, Token: "not-a-token"}); err != nil {
		t.Fatalf("write authenticate: %v", err)
	}

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if frame.Type != proto.OutboundTypeError {
		t.Fatalf("unexpected reply type: %s", frame.Type)
	}

	// The connection stays open; a retry with a valid token succeeds.
	authenticateWS(t, ctx, conn, token)
}

func TestWebSocketSupersedesOlderConnection(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerTestUser(t, env, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connOld := dialWS(t, ctx, env)
	authenticateWS(t, ctx, connOld, token)

	connNew := dialWS(t, ctx, env)
	authenticateWS(t, ctx, connNew, token)

	// The older socket gets closed by the server.
	var frame outboundFrame
	if err := wsjson.Read(ctx, connOld, &frame); err == nil {
		t.Fatalf("expected old connection to be closed, got frame %+v", frame)
	}
}

func TestMessageDeliveredToRecipientSocket(t *testing.T) {
	env := startTestServer(t)
	tokenAlice, alice := registerTestUser(t, env, "alice")
	tokenBob, bob := registerTestUser(t, env, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	authenticateWS(t, ctx, conn, tokenBob)

	body, _ := json.Marshal(CreateMessageRequest{Content: "hi there"})
	url := fmt.Sprintf("%s/api/v1/messages/%d", env.server.URL, bob.ID)
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenAlice)
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read message frame: %v", err)
	}
	if frame.Type != proto.OutboundTypeMessage {
		t.Fatalf("unexpected frame type: %s", frame.Type)
	}

	var payload proto.MessagePayload
	if err := json.Unmarshal(frame.Message, &payload); err != nil {
		t.Fatalf("unmarshal message payload: %v", err)
	}
	if payload.SenderID != alice.ID || payload.RecipientID != bob.ID || payload.Content != "hi there" {
		t.Fatalf("unexpected message payload: %+v", payload)
	}
}

func TestFriendRequestDeliveredToRecipientSocket(t *testing.T) {
	env := startTestServer(t)
	tokenAlice, alice := registerTestUser(t, env, "alice")
	tokenBob, _ := registerTestUser(t, env, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	authenticateWS(t, ctx, conn, tokenBob)

	body, _ := json.Marshal(SendFriendRequestRequest{Username: "bob"})
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodPost, env.server.URL+"/api/v1/friends", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenAlice)
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("send friend request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read friend request frame: %v", err)
	}
	if frame.Type != proto.OutboundTypeFriendRequest {
		t.Fatalf("unexpected frame type: %s", frame.Type)
	}

	var payload proto.FriendRequestPayload
	if err := json.Unmarshal(frame.Message, &payload); err != nil {
		t.Fatalf("unmarshal friend request payload: %v", err)
	}
	if payload.ID != alice.ID || payload.Username != "alice" {
		t.Fatalf("unexpected friend request payload: %+v", payload)
	}
}
