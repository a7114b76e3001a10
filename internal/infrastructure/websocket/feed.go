package websocket

import (
	"bidbout/internal/domain"
	"bidbout/pkg/logger"
)

// Feed turns bid events from the Redis subscription into WebSocket
// broadcasts. Accepted bids become price updates for everyone watching
// the lot; a closed lot drops its connections.
type Feed struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewFeed(connManager domain.ConnectionManager, log logger.Logger) *Feed {
	return &Feed{
		connManager: connManager,
		log:         log,
	}
}

func (f *Feed) HandleEvent(event *domain.BidEvent) error {
	switch event.Type {
	case domain.BidAccepted:
		return f.connManager.BroadcastToLot(event.LotID, map[string]interface{}{
			"type":      "price_update",
			"lot_id":    event.LotID,
			"price":     event.Amount,
			"winner_id": event.BidderID,
			"timestamp": event.Timestamp,
		})
	case domain.LotClosed:
		return f.connManager.CloseAndUnregisterConnections(event.LotID)
	default:
		f.log.Debug("Ignoring event", "type", event.Type, "lot_id", event.LotID)
		return nil
	}
}
