package handler

import (
	"context"

	"github.com/iliyamo/aizah-price-admin/internal/model"
	q "github.com/iliyamo/aizah-price-admin/internal/queue"
)

// RoomLister is the room catalog as seen by the handlers.
type RoomLister interface {
	Rooms() []model.Room
	Lookup(id string) (model.Room, bool)
}

// MsgUnknownRoom answers a selection of an id outside the catalog.
const MsgUnknownRoom = "unknown room"

// EventPublisher announces accepted price updates.
type EventPublisher interface {
	PublishPriceUpdated(ctx context.Context, event q.PriceUpdatedEvent) error
}

// errorBody is the JSON error envelope every API handler answers with.
func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
