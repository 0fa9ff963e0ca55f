package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bistroPulse/internal/modules/console/domain"
)

func drain(c *Client) []domain.Message {
	out := make([]domain.Message, 0)
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg domain.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func attach(h *Hub, user, session, entity string, buf int) *Client {
	c := NewClient(h, nil, user, session, entity, buf, nil)
	h.AttachClient(c, []string{domain.ViewTopic(entity), domain.TopicToast})
	return c
}

func TestHubBroadcastTargetsSessionAndEntity(t *testing.T) {
	h := NewHub()
	a := attach(h, "u1", "s1", "customers", 4)
	b := attach(h, "u1", "s1", "restaurants", 4)
	other := attach(h, "u2", "s2", "customers", 4)

	h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", 1, nil, time.Now()))
	h.Broadcast(context.Background(), domain.BuildToastMessage("error", "boom", "customers", "s1", "", time.Now()))
	h.Broadcast(context.Background(), domain.BuildToastMessage("info", "hello", "", "", "", time.Now()))
	h.Broadcast(context.Background(), domain.BuildToastMessage("info", "for u2", "", "", "u2", time.Now()))

	tests := []struct {
		name   string
		client *Client
		topics []string
	}{
		{name: "owning page", client: a, topics: []string{"customers.view", "notification.toast", "notification.toast"}},
		{name: "other page of the session", client: b, topics: []string{"notification.toast"}},
		{name: "other session", client: other, topics: []string{"notification.toast", "notification.toast"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := drain(tc.client)
			if len(got) != len(tc.topics) {
				t.Fatalf("expected %d messages, got %d: %+v", len(tc.topics), len(got), got)
			}
			for i, msg := range got {
				if msg.Topic != tc.topics[i] {
					t.Fatalf("message %d: expected %s, got %s", i, tc.topics[i], msg.Topic)
				}
			}
		})
	}
}

func TestHubDetachesSlowClient(t *testing.T) {
	h := NewHub()
	c := attach(h, "u1", "s1", "customers", 1)
	closed := make(chan struct{})
	c.AddCloseHook(func(*Client) { close(closed) })

	for i := 0; i < 3; i++ {
		h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", uint64(i), nil, time.Now()))
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected slow client to be detached")
	}
	if h.Clients() != 0 {
		t.Fatalf("expected no clients, got %d", h.Clients())
	}
	// Broadcasting to a closed client must not panic.
	h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", 9, nil, time.Now()))
}

func TestHubReplacesClientWithSameKey(t *testing.T) {
	h := NewHub()
	first := attach(h, "u1", "s1", "customers", 2)
	second := attach(h, "u1", "s1", "customers", 2)
	if h.Clients() != 1 {
		t.Fatalf("expected one client, got %d", h.Clients())
	}
	if _, ok := <-first.send; ok {
		t.Fatal("expected first client closed")
	}
	h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", 1, nil, time.Now()))
	if got := drain(second); len(got) != 1 {
		t.Fatalf("expected second client to receive, got %d", len(got))
	}
}

func TestHubDisconnectSession(t *testing.T) {
	h := NewHub()
	attach(h, "u1", "s1", "customers", 2)
	attach(h, "u1", "s1", "orders", 2)
	attach(h, "u2", "s2", "customers", 2)
	if n := h.DisconnectSession("s1"); n != 2 {
		t.Fatalf("expected 2 disconnects, got %d", n)
	}
	if h.Clients() != 1 {
		t.Fatalf("expected 1 remaining client, got %d", h.Clients())
	}
	h.Close()
	if h.Clients() != 0 {
		t.Fatalf("expected no clients after close")
	}
}

func TestHubPageSockets(t *testing.T) {
	h := NewHub()
	attach(h, "u1", "s1", "customers", 2)
	attach(h, "u1", "s1", "orders", 2)
	if !h.Watching("s1", "customers") || h.Watching("s2", "customers") {
		t.Fatal("unexpected watching state")
	}
	if n := h.DisconnectPage("s1", "customers"); n != 1 {
		t.Fatalf("expected 1 disconnect, got %d", n)
	}
	if h.Watching("s1", "customers") || !h.Watching("s1", "orders") {
		t.Fatal("only the customers socket should be gone")
	}
}

func TestCommandProcessorBuiltins(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil, "u1", "s1", "customers", 4, nil)
	h.AttachClient(c, nil)

	c.processCommand(Command{Action: " PING "})
	c.processCommand(Command{Action: "subscribe", Topic: "orders.view"})
	c.processCommand(Command{Action: "subscribe", Topic: "customers.view"})

	got := drain(c)
	if len(got) != 2 || got[0].Topic != domain.TopicSystemPong || got[1].Topic != domain.TopicSystemError {
		t.Fatalf("unexpected replies: %+v", got)
	}
	h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", 1, nil, time.Now()))
	if got := drain(c); len(got) != 1 {
		t.Fatalf("expected view after subscribe, got %d", len(got))
	}

	c.processCommand(Command{Action: "unsubscribe", Topic: "customers.view"})
	h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", 2, nil, time.Now()))
	if got := drain(c); len(got) != 0 {
		t.Fatalf("expected nothing after unsubscribe, got %d", len(got))
	}
}

type pageCommands struct {
	ran      chan PageCommand
	rejected chan error
	err      error
}

func newPageCommands(err error) *pageCommands {
	return &pageCommands{ran: make(chan PageCommand, 1), rejected: make(chan error, 1), err: err}
}

func (p *pageCommands) Run(ctx context.Context, _ *Client, cmd PageCommand) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	p.ran <- cmd
	return p.err
}

func (p *pageCommands) Reject(_ *Client, _ string, err error) { p.rejected <- err }

func TestCommandProcessorDecodesPageCommands(t *testing.T) {
	h := NewHub()
	pages := newPageCommands(nil)
	c := NewClient(h, nil, "u1", "s1", "customers", 4, pages)

	c.processCommand(Command{Action: " Filter ", Payload: json.RawMessage(`{"key":"city","value":"Lyon"}`)})
	select {
	case cmd := <-pages.ran:
		if cmd.Action != PageFilter || cmd.FilterCriteria()["city"] != "Lyon" {
			t.Fatalf("unexpected command %+v", cmd)
		}
	case err := <-pages.rejected:
		t.Fatalf("unexpected rejection: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("page command not run")
	}

	c.processCommand(Command{Action: "update", Payload: json.RawMessage(`{"id":"c1","patch":{"name":"Ada"}}`)})
	cmd := <-pages.ran
	if cmd.Action != PageUpdate || cmd.ID != "c1" || cmd.Patch["name"] != "Ada" {
		t.Fatalf("unexpected command %+v", cmd)
	}
}

func TestCommandProcessorRejectsPageCommands(t *testing.T) {
	h := NewHub()
	pages := newPageCommands(errors.New("gateway down"))
	c := NewClient(h, nil, "u1", "s1", "customers", 4, pages)

	c.processCommand(Command{Action: "explode"})
	if err := <-pages.rejected; !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("expected unsupported action, got %v", err)
	}
	c.processCommand(Command{Action: "page", Payload: json.RawMessage(`{"page":"two"}`)})
	if err := <-pages.rejected; !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}

	c.processCommand(Command{Action: "toggle", Payload: json.RawMessage(`{"id":"c1"}`)})
	<-pages.ran
	select {
	case err := <-pages.rejected:
		if err == nil || err.Error() != "gateway down" {
			t.Fatalf("unexpected rejection %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failed command not rejected")
	}
	select {
	case cmd := <-pages.ran:
		t.Fatalf("rejected commands must not run: %+v", cmd)
	default:
	}
}

func TestPageCommandFilterCriteria(t *testing.T) {
	if got := (PageCommand{Criteria: map[string]string{"a": "1"}, Key: "b", Value: "2"}).FilterCriteria(); len(got) != 1 || got["a"] != "1" {
		t.Fatalf("criteria map should win, got %v", got)
	}
	if got := (PageCommand{Key: "  "}).FilterCriteria(); got != nil {
		t.Fatalf("blank key should give no criteria, got %v", got)
	}
}

type topicHandler struct {
	topic string
	calls int
	err   error
}

func (h *topicHandler) Topic() string { return h.topic }

func (h *topicHandler) Handle(context.Context, *domain.Message) error {
	h.calls++
	return h.err
}

func TestHandlerRegistryDispatch(t *testing.T) {
	registry := NewHandlerRegistry()
	orders := &topicHandler{topic: "bp.orders", err: errors.New("bad event")}
	registry.Register(orders)

	if err := registry.Dispatch(context.Background(), &domain.Message{Topic: "bp.orders"}); err == nil {
		t.Fatal("expected handler error")
	}
	if err := registry.Dispatch(context.Background(), &domain.Message{Topic: "bp.unknown"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orders.calls != 1 {
		t.Fatalf("expected one call, got %d", orders.calls)
	}
	if topics := registry.Topics(); len(topics) != 1 || topics[0] != "bp.orders" {
		t.Fatalf("unexpected topics %v", topics)
	}
}

func TestClientPumpsOverRealSocket(t *testing.T) {
	h := NewHub()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(h, conn, "u1", "s1", "customers", 4, nil)
		h.AttachClient(client, []string{domain.ViewTopic("customers")})
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Command{Action: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong domain.Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read: %v", err)
	}
	if pong.Topic != domain.TopicSystemPong {
		t.Fatalf("expected pong, got %s", pong.Topic)
	}

	h.Broadcast(context.Background(), domain.BuildViewMessage("customers", "s1", 3, map[string]int{"total": 0}, time.Now()))
	var view domain.Message
	if err := conn.ReadJSON(&view); err != nil {
		t.Fatalf("read view: %v", err)
	}
	if view.Topic != "customers.view" || view.Metadata[domain.MetaVersion] != "3" {
		t.Fatalf("unexpected view message %+v", view)
	}
}
