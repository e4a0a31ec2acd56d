package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/capability"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

type CartRequest struct {
	SessionID string `json:"session_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddToCart puts a product line into the session cart after a stock check.
// POST /api/cart/add
func (h *Handler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()

	var req CartRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" || req.ProductID == "" {
		return errorJSON(c, http.StatusBadRequest, "session_id and product_id are required")
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	session, err := h.sessions.Load(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, statex.ErrSessionNotFound) {
			return errorJSON(c, http.StatusNotFound, "session not found")
		}
		h.log.Error().Err(err).Str("session_id", req.SessionID).Msg("session load failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to load session")
	}

	product, err := h.catalog.ProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return errorJSON(c, http.StatusNotFound, "product not found")
		}
		h.log.Error().Err(err).Str("product_id", req.ProductID).Msg("product lookup failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to look up product")
	}

	stock, err := h.catalog.CheckStock(ctx, req.ProductID)
	if err != nil {
		h.log.Error().Err(err).Str("product_id", req.ProductID).Msg("stock check failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to check stock")
	}
	if !stock.InStock {
		return errorJSON(c, http.StatusBadRequest, "product out of stock")
	}

	if err := session.AddCartLine(statex.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	}); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	session.Touch(h.now())

	if err := h.sessions.Save(ctx, session); err != nil {
		h.log.Error().Err(err).Str("session_id", session.ID).Msg("session save failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to save session")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"cart":       session.Cart,
		"item_count": session.CartItemCount(),
	})
}

// GetCart returns the cart with computed totals.
// GET /api/cart/:session_id
func (h *Handler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrSessionNotFound) {
			return errorJSON(c, http.StatusNotFound, "session not found")
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("session load failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to load session")
	}

	totals := capability.ComputeCartTotals(session.Cart)
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"cart":       session.Cart,
		"subtotal":   totals.Subtotal,
		"tax":        totals.Tax,
		"total":      totals.Total,
		"item_count": totals.ItemCount,
	})
}

// ClearCart empties the cart.
// DELETE /api/cart/:session_id
func (h *Handler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrSessionNotFound) {
			return errorJSON(c, http.StatusNotFound, "session not found")
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("session load failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to load session")
	}

	session.ClearCart()
	session.Touch(h.now())
	if err := h.sessions.Save(ctx, session); err != nil {
		h.log.Error().Err(err).Str("session_id", session.ID).Msg("session save failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to save session")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Cart cleared",
	})
}
