package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// mockWSServer upgrades each request and hands the connection to handler.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	return cfg
}

func TestHandle_ConnectAndMessage(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	notices := make(chan Notice, 16)
	h := Open(context.Background(), testConfig(wsURL(server)), notices, nil)
	defer h.Close()

	n := waitNotice(t, notices)
	if n.Kind != NoticeConnected {
		t.Fatalf("expected NoticeConnected, got %v", n.Kind)
	}
	if n.Handle != h {
		t.Error("notice should carry the originating handle")
	}

	n = waitNotice(t, notices)
	if n.Kind != NoticeMessage {
		t.Fatalf("expected NoticeMessage, got %v", n.Kind)
	}
	if string(n.Data) != `{"hello":"world"}` {
		t.Errorf("data = %s", n.Data)
	}
}

func TestHandle_DialFailure(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {})
	url := wsURL(server)
	server.Close()

	notices := make(chan Notice, 16)
	h := Open(context.Background(), testConfig(url), notices, nil)
	defer h.Close()

	n := waitNotice(t, notices)
	if n.Kind != NoticeDisconnected {
		t.Fatalf("expected NoticeDisconnected, got %v", n.Kind)
	}
	if n.Err == nil {
		t.Error("expected a dial error")
	}
}

func TestHandle_ServerDisconnect(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Close immediately after the handshake.
	})
	defer server.Close()

	notices := make(chan Notice, 16)
	h := Open(context.Background(), testConfig(wsURL(server)), notices, nil)
	defer h.Close()

	if n := waitNotice(t, notices); n.Kind != NoticeConnected {
		t.Fatalf("expected NoticeConnected, got %v", n.Kind)
	}
	if n := waitNotice(t, notices); n.Kind != NoticeDisconnected {
		t.Fatalf("expected NoticeDisconnected, got %v", n.Kind)
	}
}

func TestHandle_SendBeforeConnect(t *testing.T) {
	notices := make(chan Notice, 16)
	cfg := testConfig("ws://127.0.0.1:1") // never connects
	h := Open(context.Background(), cfg, notices, nil)
	defer h.Close()

	if err := h.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestHandle_CloseIdempotent(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	notices := make(chan Notice, 16)
	h := Open(context.Background(), testConfig(wsURL(server)), notices, nil)

	if n := waitNotice(t, notices); n.Kind != NoticeConnected {
		t.Fatalf("expected NoticeConnected, got %v", n.Kind)
	}

	if err := h.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// No disconnect notice after an explicit Close.
	select {
	case n := <-notices:
		if n.Kind == NoticeDisconnected {
			t.Error("unexpected NoticeDisconnected after Close")
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func waitNotice(t *testing.T, notices <-chan Notice) Notice {
	t.Helper()
	select {
	case n := <-notices:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notice")
		return Notice{}
	}
}
