package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// RegisterRoutes binds the stock endpoints to the router group
func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/stock")
	{
		stock.POST("/adjustments", middleware.RequireRole("admin", "manager"), h.Adjust)
		stock.GET("/mutations", middleware.RequireRole("admin", "manager", "cashier"), h.Mutations)
		stock.POST("/recount/:product_id", middleware.RequireRole("admin"), h.Recount)
		stock.GET("/low", middleware.RequireRole("admin", "manager", "cashier"), h.LowStock)
	}
}

// Adjust reconciles recorded stock against a physical count
// @Summary      Adjust stock
// @Description  Journals the delta between recorded and counted stock as an adjustment mutation; average cost is untouched
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment payload"
// @Success      200      {object}  response.Response{data=service.AdjustStockResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /stock/adjustments [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.stockService.Adjust(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(res))
}

// Mutations queries the stock journal
// @Summary      List stock mutations
// @Description  Newest-first journal query filterable by product, variant, type, reference substring, and date range
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  query     string  false  "Filter by product"
// @Param        variant_id  query     string  false  "Filter by variant"
// @Param        type        query     string  false  "Filter by mutation type"
// @Param        reference   query     string  false  "Reference substring match"
// @Param        from        query     string  false  "From date (RFC3339)"
// @Param        to          query     string  false  "To date (RFC3339)"
// @Param        page        query     int     false  "Page number"
// @Param        limit       query     int     false  "Items per page"
// @Success      200         {object}  response.Response{data=object}
// @Failure      400         {object}  response.Response
// @Router       /stock/mutations [get]
func (h *StockHandler) Mutations(c *gin.Context) {
	params := pagination.Parse(c)
	q := service.MutationQuery{
		ProductID: c.Query("product_id"),
		VariantID: c.Query("variant_id"),
		Type:      c.Query("type"),
		Reference: c.Query("reference"),
		Page:      params.Page,
		Limit:     params.Limit,
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("invalid from date, expected RFC3339"))
			return
		}
		q.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("invalid to date, expected RFC3339"))
			return
		}
		q.To = &t
	}

	mutations, total, err := h.stockService.Mutations(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("mutations", mutations, total, params.Page, params.Limit)))
}

// Recount rebuilds a product's stock from its journal
// @Summary      Recount stock
// @Description  Compares the stock column against the journal sum; with apply=true the column is rewritten from the journal
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path      string  true   "Product ID"
// @Param        apply       query     bool    false  "Apply the correction"
// @Success      200         {object}  response.Response{data=service.RecountResult}
// @Failure      404         {object}  response.Response
// @Router       /stock/recount/{product_id} [post]
func (h *StockHandler) Recount(c *gin.Context) {
	apply := c.Query("apply") == "true"

	res, err := h.stockService.Recount(c.Request.Context(), c.Param("product_id"), apply)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(res))
}

// LowStock lists products at or below their minimum stock
// @Summary      List low stock products
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /stock/low [get]
func (h *StockHandler) LowStock(c *gin.Context) {
	products, err := h.stockService.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(map[string]interface{}{"products": products}))
}
