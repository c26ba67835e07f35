package service

import (
	"encoding/json"

	ws "shopstock/internal/websocket"

	"github.com/google/uuid"
)

// StockChange reports a variant's stock level after a committed ledger
// operation, broadcast to websocket clients for live dashboards.
type StockChange struct {
	VariantID string `json:"variant_id"`
	Stock     int    `json:"stock"`
}

type stockEvent struct {
	Event string        `json:"event"`
	Data  []StockChange `json:"data"`
}

// notifyStockChanges pushes a stock.updated event to the hub after a commit.
// The send is non-blocking: display clients are best-effort, the ledger never
// waits on them.
func notifyStockChanges(hub *ws.Hub, changes []StockChange) {
	if hub == nil || len(changes) == 0 {
		return
	}
	payload, err := json.Marshal(stockEvent{Event: "stock.updated", Data: changes})
	if err != nil {
		return
	}
	select {
	case hub.Broadcast <- payload:
	default:
	}
}

// auditUserID parses the acting user's id for audit rows, nil when absent
func auditUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
