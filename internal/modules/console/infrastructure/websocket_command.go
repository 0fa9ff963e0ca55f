package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bistroPulse/internal/modules/console/domain"
)

var (
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrUnsupportedCommand = errors.New("unsupported action")
)

// Command is a message sent by the browser over the page socket.
type Command struct {
	Action  string          `json:"action"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PageAction names a page command understood by PageCommands.
type PageAction string

const (
	PageReload       PageAction = "reload"
	PageSearch       PageAction = "search"
	PageFilter       PageAction = "filter"
	PageClearFilters PageAction = "clear_filters"
	PageGoTo         PageAction = "page"
	PageDelete       PageAction = "delete"
	PageToggle       PageAction = "toggle"
	PageUpdate       PageAction = "update"
)

var pageActions = map[PageAction]struct{}{
	PageReload: {}, PageSearch: {}, PageFilter: {}, PageClearFilters: {},
	PageGoTo: {}, PageDelete: {}, PageToggle: {}, PageUpdate: {},
}

// PageCommand is a decoded page action. Only the fields of its action are set.
type PageCommand struct {
	Action   PageAction        `json:"-"`
	Term     string            `json:"term"`
	Key      string            `json:"key"`
	Value    string            `json:"value"`
	Criteria map[string]string `json:"criteria"`
	Page     int               `json:"page"`
	ID       string            `json:"id"`
	Confirm  bool              `json:"confirm"`
	Patch    map[string]any    `json:"patch"`
}

// FilterCriteria returns the criteria map, or the single key/value pair when no map was sent.
func (c PageCommand) FilterCriteria() map[string]string {
	if c.Criteria == nil && strings.TrimSpace(c.Key) != "" {
		return map[string]string{c.Key: c.Value}
	}
	return c.Criteria
}

// PageCommands runs the page commands of a client and reports the ones that failed.
type PageCommands interface {
	Run(ctx context.Context, client *Client, cmd PageCommand) error
	Reject(client *Client, action string, err error)
}

type builtinHandler func(client *Client, cmd Command)

// CommandProcessor handles ping, subscribe and unsubscribe on the read loop. Page actions
// are decoded and run off the read loop with a timeout.
type CommandProcessor struct {
	hub      *Hub
	builtins map[string]builtinHandler
	pages    PageCommands
	timeout  time.Duration
}

func NewCommandProcessor(hub *Hub, pages PageCommands) *CommandProcessor {
	processor := &CommandProcessor{
		hub:     hub,
		pages:   pages,
		timeout: 10 * time.Second,
	}
	processor.builtins = map[string]builtinHandler{
		"subscribe":   processor.handleSubscribe,
		"unsubscribe": processor.handleUnsubscribe,
		"ping":        processor.handlePing,
	}
	return processor
}

func (p *CommandProcessor) Process(client *Client, cmd Command) {
	if client == nil {
		return
	}
	action := normalizeAction(cmd.Action)
	if action == "" {
		return
	}
	if handler, ok := p.builtins[action]; ok {
		handler(client, cmd)
		return
	}
	if p.pages == nil {
		slog.Debug("ws command ignored", slog.String("sessionId", client.sessionID), slog.String("entity", client.entity), slog.String("action", action))
		return
	}

	pageCmd, err := decodePageCommand(action, cmd.Payload)
	if err != nil {
		p.pages.Reject(client, action, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.pages.Run(ctx, client, pageCmd); err != nil {
			slog.Debug("ws page command rejected", slog.String("entity", client.entity), slog.String("action", action), slog.Any("error", err))
			p.pages.Reject(client, action, err)
		}
	}()
}

func decodePageCommand(action string, payload json.RawMessage) (PageCommand, error) {
	cmd := PageCommand{Action: PageAction(action)}
	if _, ok := pageActions[cmd.Action]; !ok {
		return cmd, ErrUnsupportedCommand
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return cmd, ErrInvalidPayload
		}
	}
	cmd.Action = PageAction(action)
	return cmd, nil
}

// Only the topics of the client's own page and the session toasts may be joined.
func (p *CommandProcessor) handleSubscribe(client *Client, cmd Command) {
	topic := strings.TrimSpace(cmd.Topic)
	if topic == "" {
		return
	}
	if topic != domain.ViewTopic(client.entity) && topic != domain.TopicToast {
		client.SendDomainMessage(domain.BuildErrorMessage(client.entity, "topic not allowed: "+topic, time.Now()))
		return
	}
	p.hub.subscribe(client, topic)
	slog.Debug("ws subscribe", slog.String("sessionId", client.sessionID), slog.String("entity", client.entity), slog.String("topic", topic))
}

func (p *CommandProcessor) handleUnsubscribe(client *Client, cmd Command) {
	if topic := strings.TrimSpace(cmd.Topic); topic != "" {
		p.hub.unsubscribe(client, topic)
	}
}

func (p *CommandProcessor) handlePing(client *Client, _ Command) {
	client.SendDomainMessage(&domain.Message{
		Topic:     domain.TopicSystemPong,
		Entity:    domain.SystemEntity,
		Action:    domain.ActionPong,
		Timestamp: time.Now().UTC(),
	})
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
