package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

// ErrNoDevice means the user has no open device channel; the row stays
// unsent and a later sweep retries once a device reconnects.
var ErrNoDevice = errors.New("no connected device for user")

// alert is the wire shape of an on-device alert. Title, body and data pass
// through from the notification unchanged.
type alert struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Priority int            `json:"priority"`
	Data     domain.Payload `json:"data,omitempty"`
}

// HubDispatcher schedules on-device alerts by unicasting them over the
// user's websocket channel.
type HubDispatcher struct {
	hub *Hub
}

func NewHubDispatcher(hub *Hub) *HubDispatcher {
	return &HubDispatcher{hub: hub}
}

func (d *HubDispatcher) Dispatch(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.hub.IsConnected(n.UserID) {
		return ErrNoDevice
	}

	body, err := json.Marshal(alert{
		Type:     "notification",
		ID:       n.ID.String(),
		Title:    n.Title,
		Body:     n.Message,
		Priority: n.Priority,
		Data:     n.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	d.hub.SendToUser(n.UserID, body)
	return nil
}
