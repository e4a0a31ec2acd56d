package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
)

const defaultProductLimit = 20

// ListProducts returns products, optionally filtered by search query or
// category.
// GET /api/products?category=&search=&limit=
func (h *Handler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	category := c.QueryParam("category")
	search := c.QueryParam("search")
	limit := defaultProductLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		products []catalog.Product
		err      error
	)
	switch {
	case search != "":
		products, err = h.catalog.SearchProducts(ctx, search, category)
	case category != "":
		products, err = h.catalog.ProductsByCategory(ctx, category)
	default:
		products, err = h.catalog.Products(ctx, limit)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("product listing failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to list products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product with its live stock state.
// GET /api/products/:product_id
func (h *Handler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	productID := c.Param("product_id")

	product, err := h.catalog.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return errorJSON(c, http.StatusNotFound, "product not found")
		}
		h.log.Error().Err(err).Str("product_id", productID).Msg("product lookup failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to look up product")
	}

	stock, err := h.catalog.CheckStock(ctx, productID)
	if err != nil {
		h.log.Error().Err(err).Str("product_id", productID).Msg("stock check failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to check stock")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"product": product,
		"stock":   stock,
	})
}

// ListCategories returns the category vocabulary.
// GET /api/categories
func (h *Handler) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("category listing failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to list categories")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories,
	})
}

// GetStats returns catalog counters plus live voice session count.
// GET /api/stats
func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.catalog.Stats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("stats query failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to load stats")
	}

	payload := map[string]any{
		"total_products": stats.TotalProducts,
		"total_orders":   stats.TotalOrders,
	}
	if h.voice != nil {
		payload["active_voice_sessions"] = h.voice.SessionCount()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"stats":   payload,
	})
}
