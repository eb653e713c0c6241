package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-hub/internal/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func newTestClient() *Client {
	return &Client{
		id:   "test-client",
		send: make(chan []byte, 16),
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient()

	hub.Register(client)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 1 }, "client never registered")

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 0 }, "client never unregistered")

	// Unregister closes the client's send channel
	_, open := <-client.send
	assert.False(t, open)
}

func TestHubSubscriptionRouting(t *testing.T) {
	hub := newTestHub(t)
	subscribed := newTestClient()
	other := &Client{id: "other", send: make(chan []byte, 16)}

	hub.Register(subscribed)
	hub.Register(other)
	hub.Subscribe(subscribed, "game-1")
	waitFor(t, func() bool { return hub.GetSubscriberCount("game-1") == 1 }, "subscription never applied")

	hub.BroadcastLeaderboard("game-1", []domain.ScoreEntry{
		{UserID: "u1", Username: "alice", Score: 100},
	})

	select {
	case data := <-subscribed.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeLeaderboardUpdate, msg.Type)
		assert.Equal(t, "game-1", msg.GameID)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribed client never received the update")
	}

	// The unsubscribed client got nothing
	select {
	case data := <-other.send:
		t.Fatalf("unexpected message for unsubscribed client: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnsubscribeStopsUpdates(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient()

	hub.Register(client)
	hub.Subscribe(client, "game-1")
	waitFor(t, func() bool { return hub.GetSubscriberCount("game-1") == 1 }, "subscription never applied")

	hub.Unsubscribe(client, "game-1")
	waitFor(t, func() bool { return hub.GetSubscriberCount("game-1") == 0 }, "unsubscribe never applied")

	hub.BroadcastLeaderboard("game-1", nil)
	select {
	case data := <-client.send:
		t.Fatalf("unexpected message after unsubscribe: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterCleansSubscriptions(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient()

	hub.Register(client)
	hub.Subscribe(client, "game-1")
	waitFor(t, func() bool { return hub.GetSubscriberCount("game-1") == 1 }, "subscription never applied")

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.GetSubscriberCount("game-1") == 0 }, "subscription survived unregister")
}
