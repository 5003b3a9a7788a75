package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/pricewatch-service/internal/deal"
	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HTTPHandler serves the read API used by the web application.
type HTTPHandler struct {
	deals  deal.UseCase
	prices price.UseCase
	logger logger.ZapLogger
}

func NewHTTPHandler(deals deal.UseCase, prices price.UseCase, log logger.ZapLogger) *HTTPHandler {
	return &HTTPHandler{deals: deals, prices: prices, logger: log}
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/deals", h.ListDeals)
		api.GET("/products/:id/cheapest", h.GetCheapestPrice)
		api.GET("/products/:id/timeline", h.GetPriceTimeline)
	}
}

func (h *HTTPHandler) ListDeals(c *gin.Context) {
	f, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.deals.ListDeals(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "failed to list deals", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *HTTPHandler) GetCheapestPrice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	shopIDs, err := parseIDs(c.QueryArray("shop_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.prices.GetCheapestPrice(c.Request.Context(), id, shopIDs)
	if err != nil {
		h.fail(c, "failed to get cheapest price", err)
		return
	}
	if sp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no listed price for product"})
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (h *HTTPHandler) GetPriceTimeline(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	points, err := h.deals.GetPriceTimeline(c.Request.Context(), id, time.Time{})
	if err != nil {
		h.fail(c, "failed to build price timeline", err)
		return
	}
	c.JSON(http.StatusOK, TimelineResponse{ProductID: id, Points: points})
}

func (h *HTTPHandler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, dto.ErrInvalidFilters):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, deal.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error(msg, zap.String("kind", "fatal"), zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// parseFilters reads ?shop_ids=1,2&category_ids=3&min_price=&max_price=
// &min_drop_pct=&sort=&offset=&limit=. Id lists may be repeated or comma
// separated.
func parseFilters(c *gin.Context) (dto.DealFilters, error) {
	var f dto.DealFilters
	var err error

	if f.ShopIDs, err = parseIDs(c.QueryArray("shop_ids")); err != nil {
		return f, err
	}
	if f.CategoryIDs, err = parseIDs(c.QueryArray("category_ids")); err != nil {
		return f, err
	}
	if f.MinPrice, err = parseDecimal(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parseDecimal(c, "max_price"); err != nil {
		return f, err
	}
	if f.MinDropPct, err = parseDecimal(c, "min_drop_pct"); err != nil {
		return f, err
	}
	f.Sort = c.Query("sort")
	if f.Offset, err = parseInt(c, "offset"); err != nil {
		return f, err
	}
	if f.Limit, err = parseInt(c, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func parseIDs(values []string) ([]int64, error) {
	var out []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func parseDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &d, nil
}

func parseInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
