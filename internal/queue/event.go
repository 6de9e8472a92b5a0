// Package queue defines message payloads exchanged over the message broker
// and the consumer that writes them to the audit log.
package queue

import "github.com/iliyamo/aizah-price-admin/internal/model"

// PriceUpdatedQueue is the durable queue price updates are published to.
const PriceUpdatedQueue = "price.updated"

// PriceUpdatedEvent is published after the price service accepted a new
// price record.  It carries the full record so consumers do not need to
// query the backend.
type PriceUpdatedEvent struct {
	RoomID    string            `json:"room_id"`
	RoomName  string            `json:"room_name"`
	Prices    model.PriceRecord `json:"prices"`
	SessionID string            `json:"session_id,omitempty"`
	UpdatedAt string            `json:"updated_at"`
}
