package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/rs/zerolog"
)

func TestLocalFeedDeliversToEverySubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewLocalFeed()
	a, _ := feed.Subscribe(ctx)
	b, _ := feed.Subscribe(ctx)

	if err := feed.Publish(ctx, models.ChatMessage{ID: "m1", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	for _, ch := range []<-chan models.ChatMessage{a, b} {
		select {
		case msg := <-ch:
			if msg.ID != "m1" {
				t.Fatalf("got %q", msg.ID)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the message")
		}
	}

	cancel()
	select {
	case _, ok := <-a:
		if ok {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestHubSendToUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	upgrader := Upgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientsCount("u1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.SendToUser("u2", EventNotification, "not for u1")
	hub.SendToUser("u1", EventNotification, map[string]string{"message": "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if env.Type != EventNotification || env.Data["message"] != "hello" {
		t.Fatalf("unexpected envelope %s", data)
	}
}

func TestHubShutdownReleasesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	left := make(chan struct{})
	go func() {
		(&Client{hub: hub, userID: "u1"}).leave()
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leaving a stopped hub blocked")
	}

	attached := make(chan struct{})
	upgrader := Upgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, "u2")
		close(attached)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	select {
	case <-attached:
	case <-time.After(2 * time.Second):
		t.Fatal("attaching to a stopped hub blocked")
	}
	if n := hub.GetClientsCount("u2"); n != 0 {
		t.Fatalf("stopped hub registered %d clients", n)
	}
}
