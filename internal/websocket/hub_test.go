package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/model"
	"github.com/dukerupert/chorequest/internal/notify"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      nil,
		send:      make(chan []byte, sendBufferSize),
		sessionID: sessionID,
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func expectNone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

func newTestSession(t *testing.T) *app.Session {
	t.Helper()
	tokens, err := identity.NewTokenIssuer("", time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	docs := docstore.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := identity.NewDirectory(docs, tokens, 4, logger)
	s := app.NewSession(dir.NewClient(), app.NewStores(docs), notify.NewBus(time.Minute, time.Minute), logger)
	t.Cleanup(s.Close)
	return s
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "s1")
	c2 := mockClient(hub, "s2")

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "s1")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "s1")
	c2 := mockClient(hub, "s2")
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(NewMessage("task", "completed", "t1", map[string]any{"points": float64(10)}))

	for _, c := range []*Client{c1, c2} {
		got := receive(t, c)
		if got.Type != "task_completed" {
			t.Errorf("expected type task_completed, got %s", got.Type)
		}
		if got.Entity != "task" {
			t.Errorf("expected entity task, got %s", got.Entity)
		}
		if got.ID != "t1" {
			t.Errorf("expected id t1, got %s", got.ID)
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestSendSession(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "s1")
	c1b := mockClient(hub, "s1")
	c2 := mockClient(hub, "s2")
	for _, c := range []*Client{c1, c1b, c2} {
		hub.Register(c)
	}

	hub.SendSession("s1", NewMessage("state", "tasks", "", nil))

	receive(t, c1)
	receive(t, c1b)
	expectNone(t, c2)
}

func TestSendHousehold(t *testing.T) {
	hub := NewHub(slog.Default())

	member := mockClient(hub, "s1")
	member.session = newTestSession(t)
	member.session.State().SetHousehold(&model.Household{ID: "h1"})
	outsider := mockClient(hub, "s2")
	outsider.session = newTestSession(t)
	hub.Register(member)
	hub.Register(outsider)

	hub.SendHousehold("h1", NewMessage("tasks", "changed", "", nil))
	if got := receive(t, member); got.Type != "tasks_changed" {
		t.Errorf("expected type tasks_changed, got %s", got.Type)
	}
	expectNone(t, outsider)

	hub.SendHousehold("", NewMessage("tasks", "changed", "", nil))
	expectNone(t, member)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(NewMessage("task", "completed", "t1", nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "s1")
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("test", "fill", "", nil))
	}

	// This should drop the message, not panic or block
	hub.Broadcast(NewMessage("test", "dropped", "", nil))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("household", "joined", "h1", nil)
	if msg.Type != "household_joined" {
		t.Errorf("expected type household_joined, got %s", msg.Type)
	}
	if msg.Action != "joined" {
		t.Errorf("expected action joined, got %s", msg.Action)
	}
	if msg.ID != "h1" {
		t.Errorf("expected id h1, got %s", msg.ID)
	}
}

func TestWatchForwardsSessionChanges(t *testing.T) {
	hub := NewHub(slog.Default())
	s := newTestSession(t)
	c := mockClient(hub, s.ID())
	hub.Register(c)

	stop := hub.Watch(s)

	s.Bus().Info("hello")
	got := receive(t, c)
	if got.Type != "notifications_changed" {
		t.Fatalf("expected type notifications_changed, got %s", got.Type)
	}
	list, ok := got.Extra["notifications"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("notifications = %v, want one entry", got.Extra["notifications"])
	}
	if msg := list[0].(map[string]any)["message"]; msg != "hello" {
		t.Errorf("message = %v, want %q", msg, "hello")
	}

	s.State().SetTasks([]model.Task{{ID: "t1", Name: "Vacuum"}})
	got = receive(t, c)
	if got.Type != "state_tasks" {
		t.Fatalf("expected type state_tasks, got %s", got.Type)
	}
	tasks, ok := got.Extra["value"].([]any)
	if !ok || len(tasks) != 1 {
		t.Fatalf("value = %v, want one task", got.Extra["value"])
	}

	stop()
	s.Bus().Info("after stop")
	expectNone(t, c)
}

func TestWatchStopsWhenSessionCloses(t *testing.T) {
	hub := NewHub(slog.Default())
	s := newTestSession(t)
	c := mockClient(hub, s.ID())
	hub.Register(c)

	s.OnClose(hub.Watch(s))
	s.Close()

	s.State().SetTasks([]model.Task{{ID: "t1", Name: "Vacuum"}})
	expectNone(t, c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "s1")
			hub.Register(c)
			hub.Broadcast(NewMessage("test", "concurrent", "", nil))
			hub.SendSession("s1", NewMessage("test", "session", "", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
