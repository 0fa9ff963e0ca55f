package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"bistroPulse/internal/modules/console/application/usecase"
	"bistroPulse/internal/modules/console/domain"
	"bistroPulse/internal/modules/console/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewPageWebsocketHandler exposes /ws/pages/:entity. The session cookie selects the page,
// which is mounted if needed. The socket streams the page views and the session toasts and
// accepts page commands. Closing the socket leaves the page mounted.
func NewPageWebsocketHandler(hub *infrastructure.Hub, pages *usecase.PageRegistry, sendBuffer int) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()

		sess, err := sessionFrom(c)
		if err != nil {
			return errorMapper.HTTPError(err)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		defer cancel()
		page, err := pages.Mount(ctx, sess, c.Param("entity"))
		if err != nil {
			slog.Warn("ws page rejected", slog.String("entity", c.Param("entity")), slog.String("sessionId", sess.ID), slog.String("ip", peerIP), slog.Any("error", err))
			return errorMapper.HTTPError(err)
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws upgrade failed", slog.String("entity", page.Entity()), slog.String("ip", peerIP), slog.String("reqID", requestID), slog.Any("error", err))
			return err
		}

		entity := page.Entity()
		client := infrastructure.NewClient(hub, conn, sess.UserID, sess.ID, entity, sendBuffer, pageCommands{pages: pages})
		topics := []string{domain.ViewTopic(entity), domain.TopicToast}
		hub.AttachClient(client, topics)

		go client.WritePump()
		go client.ReadPump()

		client.SendDomainMessage(&domain.Message{
			Topic:  domain.TopicSystemConnected,
			Entity: domain.SystemEntity,
			Action: domain.ActionConnected,
			Metadata: map[string]string{
				domain.MetaSessionID: sess.ID,
				domain.MetaUserID:    sess.UserID,
			},
			Data: map[string]any{
				"entity": entity,
				"topics": topics,
				"role":   sess.Role,
			},
			Timestamp: time.Now().UTC(),
		})
		view := page.Controller().View()
		client.SendDomainMessage(domain.BuildViewMessage(entity, sess.ID, view.Version, view, time.Now()))

		slog.Info("ws page connected", slog.String("entity", entity), slog.String("userId", sess.UserID), slog.String("sessionId", sess.ID), slog.String("ip", peerIP), slog.String("reqID", requestID))
		return nil
	}
}

// pageCommands runs page commands sent over the socket. Views are not sent back
// directly: every change is published to the page topic.
type pageCommands struct {
	pages *usecase.PageRegistry
}

func (p pageCommands) Run(ctx context.Context, client *infrastructure.Client, cmd infrastructure.PageCommand) error {
	page, err := p.pages.Get(client.SessionID(), client.Entity())
	if err != nil {
		return err
	}
	controller := page.Controller()

	switch cmd.Action {
	case infrastructure.PageReload:
		// Load failures are carried by the published view.
		_ = controller.Load(ctx)
	case infrastructure.PageSearch:
		searchPage(page, cmd.Term)
	case infrastructure.PageFilter:
		filterPage(page, cmd.FilterCriteria())
	case infrastructure.PageClearFilters:
		controller.ClearFilters()
	case infrastructure.PageGoTo:
		controller.SetPage(cmd.Page)
	case infrastructure.PageDelete:
		_, err = deleteItem(ctx, page, cmd.ID, cmd.Confirm)
	case infrastructure.PageToggle:
		_, err = toggleItem(ctx, page, cmd.ID)
	case infrastructure.PageUpdate:
		_, err = updateItem(ctx, page, cmd.ID, cmd.Patch)
	default:
		return infrastructure.ErrUnsupportedCommand
	}
	return err
}

func (pageCommands) Reject(client *infrastructure.Client, action string, err error) {
	msg := commandError(client.Entity(), action, errorMapper.Map(err).Message)
	if failure := validationFailure(err); failure != nil {
		msg.Data = validationBody{Message: failure.Message, Fields: failure.Fields}
	}
	client.SendDomainMessage(msg)
}

func commandError(entity, action, reason string) *domain.Message {
	msg := domain.BuildErrorMessage(entity, reason, time.Now())
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]string, 1)
	}
	msg.Metadata["action"] = action
	return msg
}
