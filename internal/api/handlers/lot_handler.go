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

type LotHandler struct {
	lotManager *services.LotManager
	priceCache domain.PriceCache
	log        logger.Logger
}

type CreateLotRequest struct {
	SellerID     string    `json:"seller_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PickupPlace  string    `json:"pickup_place"`
	ReservePrice int64     `json:"reserve_price"`
	StartTime    time.Time `json:"start_time"`
	DurationDays int       `json:"duration_days"`
}

type LotResponse struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"seller_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PickupPlace  string    `json:"pickup_place"`
	ReservePrice int64     `json:"reserve_price,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	CurrentPrice int64     `json:"current_price"`
	WinnerID     string    `json:"winner_id,omitempty"`
}

func NewLotHandler(lotManager *services.LotManager, priceCache domain.PriceCache, log logger.Logger) *LotHandler {
	return &LotHandler{
		lotManager: lotManager,
		priceCache: priceCache,
		log:        log,
	}
}

func (h *LotHandler) CreateLot(c echo.Context) error {
	var req CreateLotRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.SellerID == "" || req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "seller_id and title are required"})
	}
	if req.StartTime.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Start time must be in the future"})
	}
	if req.DurationDays <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Duration must be positive"})
	}
	if req.ReservePrice < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Reserve price cannot be negative"})
	}

	lot, err := h.lotManager.CreateLot(c.Request().Context(), services.CreateLotParams{
		SellerID:     req.SellerID,
		Title:        req.Title,
		Description:  req.Description,
		PickupPlace:  req.PickupPlace,
		ReservePrice: req.ReservePrice,
		StartTime:    req.StartTime,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		h.log.Error("Failed to create lot", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create lot"})
	}

	return c.JSON(http.StatusCreated, h.lotResponse(c, lot))
}

func (h *LotHandler) GetLot(c echo.Context) error {
	lotID := c.Param("id")

	lot, err := h.lotManager.GetLot(c.Request().Context(), lotID)
	if err != nil {
		if errors.Is(err, domain.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		h.log.Error("Failed to get lot", "lot_id", lotID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get lot"})
	}

	return c.JSON(http.StatusOK, h.lotResponse(c, lot))
}

func (h *LotHandler) ListLots(c echo.Context) error {
	lots, err := h.lotManager.ListLots(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list lots", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list lots"})
	}

	response := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		response = append(response, h.lotResponse(c, lot))
	}

	return c.JSON(http.StatusOK, response)
}

func (h *LotHandler) CancelLot(c echo.Context) error {
	lotID := c.Param("id")

	err := h.lotManager.CancelLot(c.Request().Context(), lotID)
	if err != nil {
		if errors.Is(err, domain.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		if errors.Is(err, domain.ErrLotAlreadyStarted) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		h.log.Error("Failed to cancel lot", "lot_id", lotID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to cancel lot"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Lot cancelled"})
}

func (h *LotHandler) lotResponse(c echo.Context, lot *domain.Lot) LotResponse {
	resp := LotResponse{
		ID:           lot.ID,
		SellerID:     lot.SellerID,
		Title:        lot.Title,
		Description:  lot.Description,
		PickupPlace:  lot.PickupPlace,
		ReservePrice: lot.ReservePrice,
		StartTime:    lot.StartTime,
		EndTime:      lot.EndTime,
		Status:       lot.Status.String(),
	}

	if h.priceCache != nil {
		if state, err := h.priceCache.GetLotState(c.Request().Context(), lot.ID); err == nil {
			resp.CurrentPrice = state.Price
			resp.WinnerID = state.WinnerID
		}
	}

	return resp
}
