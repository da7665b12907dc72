package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// RegisterRoutes binds the sale endpoints to the router group
func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/sales")
	{
		sales.POST("", middleware.RequireRole("admin", "manager", "cashier"), h.Create)
		sales.GET("", middleware.RequireRole("admin", "manager", "cashier"), h.List)
		sales.GET("/:id", middleware.RequireRole("admin", "manager", "cashier"), h.GetByID)
		sales.PUT("/:id", middleware.RequireRole("admin", "manager"), h.Update)
		sales.DELETE("/:id", middleware.RequireRole("admin", "manager"), h.Void)
	}
}

// Create posts a sale invoice and issues its stock
// @Summary      Create sale
// @Description  Issues stock per item with price and cost snapshots; underpaid sales with a customer create a debt
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSaleRequest  true  "Sale payload"
// @Success      201      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.saleService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(res))
}

// Update replaces a sale's items, reverting and reapplying its stock effect
// @Summary      Edit sale
// @Description  Credits stock back for the original items, then reapplies the new items under the same invoice number; rejected once the linked debt has payments
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Sale ID"
// @Param        payload  body      service.UpdateSaleRequest  true  "Updated sale payload"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /sales/{id} [put]
func (h *SaleHandler) Update(c *gin.Context) {
	var req service.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.saleService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(res))
}

// Void archives a sale with compensating ledger entries
// @Summary      Void sale
// @Description  Writes compensating sale_cancel mutations, cancels any linked debt, and archives the sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /sales/{id} [delete]
func (h *SaleHandler) Void(c *gin.Context) {
	sale, err := h.saleService.Void(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(sale, "Sale voided"))
}

// GetByID fetches one sale with items
// @Summary      Get sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      404  {object}  response.Response
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	sale, err := h.saleService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(sale))
}

// List returns paginated sales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        page              query     int   false  "Page number"
// @Param        limit             query     int   false  "Items per page"
// @Param        include_archived  query     bool  false  "Include voided sales"
// @Success      200               {object}  response.Response{data=object}
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	includeArchived := c.Query("include_archived") == "true"

	sales, total, err := h.saleService.List(c.Request.Context(), params.Page, params.Limit, includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("sales", sales, total, params.Page, params.Limit)))
}
