package handlers

import (
	"errors"
	"net/http"
	"time"

	"bidbout/internal/domain"
	"bidbout/internal/services"
	"bidbout/pkg/logger"

	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

type BidRequest struct {
	LotID    string `json:"lot_id"`
	BidderID string `json:"bidder_id"`
	Amount   int64  `json:"amount"`
}

type BidResponse struct {
	NewPrice int64  `json:"new_price"`
	WinnerID string `json:"winner_id"`
}

type BidHistoryEntry struct {
	ID        string    `json:"id"`
	BidderID  string    `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req BidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.LotID == "" || req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "lot_id and bidder_id are required"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Amount must be positive"})
	}

	res, err := h.bidService.PlaceBid(c.Request().Context(), req.LotID, req.BidderID, req.Amount)
	if err != nil {
		return h.bidError(c, err)
	}

	return c.JSON(http.StatusOK, BidResponse{NewPrice: res.NewPrice, WinnerID: res.WinnerID})
}

func (h *BidHandler) SetAutoBid(c echo.Context) error {
	var req BidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.LotID == "" || req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "lot_id and bidder_id are required"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Amount must be positive"})
	}

	res, err := h.bidService.SetAutoBid(c.Request().Context(), req.LotID, req.BidderID, req.Amount)
	if err != nil {
		return h.bidError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"new_price": res.NewPrice,
		"winner_id": res.WinnerID,
		"message":   "Auto bid set successfully",
	})
}

func (h *BidHandler) GetBidHistory(c echo.Context) error {
	lotID := c.Param("id")

	bids, err := h.bidService.GetBidHistory(c.Request().Context(), lotID)
	if err != nil {
		h.log.Error("Failed to get bid history", "lot_id", lotID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get bid history"})
	}

	history := make([]BidHistoryEntry, 0, len(bids))
	for _, bid := range bids {
		history = append(history, BidHistoryEntry{
			ID:        bid.ID,
			BidderID:  bid.BidderID,
			Amount:    bid.Amount,
			CreatedAt: bid.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, history)
}

// bidError maps resolution errors to caller-facing responses. Input
// errors return their message verbatim; anything else is a server
// failure.
func (h *BidHandler) bidError(c echo.Context, err error) error {
	if btl, ok := domain.IsBidTooLow(err); ok {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":         btl.Error(),
			"current_price": btl.CurrentPrice,
		})
	}

	switch {
	case errors.Is(err, domain.ErrLotNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrAuctionNotStarted),
		errors.Is(err, domain.ErrAuctionEnded),
		errors.Is(err, domain.ErrInvalidBid):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	h.log.Error("Resolution failed", "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to process bid"})
}
