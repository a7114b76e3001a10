package handlers

import (
	"net/http"
	"time"

	"bidbout/internal/domain"
	ws "bidbout/internal/infrastructure/websocket"
	"bidbout/internal/services"
	"bidbout/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin checks happen at the edge
	},
}

// WebSocketHandler upgrades watchers of a lot onto the live price feed.
type WebSocketHandler struct {
	lotManager  *services.LotManager
	priceCache  domain.PriceCache
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(
	lotManager *services.LotManager,
	priceCache domain.PriceCache,
	connManager domain.ConnectionManager,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		lotManager:  lotManager,
		priceCache:  priceCache,
		connManager: connManager,
		log:         log,
	}
}

func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	lotID := c.Param("id")

	lot, err := h.lotManager.GetLot(c.Request().Context(), lotID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "lot not found"})
	}
	if time.Now().After(lot.EndTime) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "auction has already ended"})
	}

	bidderID := c.QueryParam("bidder_id")
	if bidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder_id required"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return err
	}

	wsConn := ws.NewConnection(conn, bidderID, lotID, h.log)

	if err := h.connManager.RegisterConnection(bidderID, lotID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		wsConn.Close()
		return nil
	}

	// Greet the watcher with the current price so the feed starts from
	// a known state.
	if h.priceCache != nil {
		if state, err := h.priceCache.GetLotState(c.Request().Context(), lotID); err == nil {
			wsConn.Send(map[string]interface{}{
				"type":      "price_update",
				"lot_id":    lotID,
				"price":     state.Price,
				"winner_id": state.WinnerID,
			})
		}
	}

	go wsConn.ReadLoop(func() {
		h.connManager.UnregisterConnection(bidderID, lotID)
		wsConn.Close()
	})

	return nil
}
