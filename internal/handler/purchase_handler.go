package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// RegisterRoutes binds the purchase endpoints to the router group
func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/purchases")
	{
		purchases.POST("", middleware.RequireRole("admin", "manager"), h.Create)
		purchases.GET("", middleware.RequireRole("admin", "manager"), h.List)
		purchases.GET("/:id", middleware.RequireRole("admin", "manager"), h.GetByID)
		purchases.PUT("/:id", middleware.RequireRole("admin", "manager"), h.Update)
		purchases.DELETE("/:id", middleware.RequireRole("admin"), h.Void)
	}
}

// Create posts a purchase order and receives its stock
// @Summary      Create purchase order
// @Description  Receives goods: updates stock and weighted average cost per item and appends stock mutations
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePurchaseRequest  true  "Purchase payload"
// @Success      201      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.purchaseService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(res))
}

// Update replaces a purchase order's items, reverting and reapplying its stock effect
// @Summary      Edit purchase order
// @Description  Reverts the original items' stock and cost effect, then reapplies the new items under the same order number
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Purchase order ID"
// @Param        payload  body      service.UpdatePurchaseRequest  true  "Updated purchase payload"
// @Success      200      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /purchases/{id} [put]
func (h *PurchaseHandler) Update(c *gin.Context) {
	var req service.UpdatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.purchaseService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(res))
}

// Void archives a purchase order with compensating ledger entries
// @Summary      Void purchase order
// @Description  Writes compensating purchase_cancel mutations and archives the order; fails if stock coverage is insufficient
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase order ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /purchases/{id} [delete]
func (h *PurchaseHandler) Void(c *gin.Context) {
	order, err := h.purchaseService.Void(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(order, "Purchase order voided"))
}

// GetByID fetches one purchase order with items
// @Summary      Get purchase order
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      404  {object}  response.Response
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	order, err := h.purchaseService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(order))
}

// List returns paginated purchase orders
// @Summary      List purchase orders
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        page              query     int   false  "Page number"
// @Param        limit             query     int   false  "Items per page"
// @Param        include_archived  query     bool  false  "Include voided orders"
// @Success      200               {object}  response.Response{data=object}
// @Router       /purchases [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	includeArchived := c.Query("include_archived") == "true"

	orders, total, err := h.purchaseService.List(c.Request.Context(), params.Page, params.Limit, includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("purchases", orders, total, params.Page, params.Limit)))
}
