package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DebtHandler struct {
	debtService service.DebtService
}

func NewDebtHandler(debtService service.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// RegisterRoutes binds the debt endpoints to the router group
func (h *DebtHandler) RegisterRoutes(router *gin.RouterGroup) {
	debts := router.Group("/debts")
	{
		debts.GET("", middleware.RequireRole("admin", "manager", "cashier"), h.List)
		debts.GET("/:id", middleware.RequireRole("admin", "manager", "cashier"), h.GetByID)
		debts.POST("/:id/payments", middleware.RequireRole("admin", "manager", "cashier"), h.Pay)
	}
}

// Pay records a payment against a debt
// @Summary      Pay debt
// @Description  Appends a payment and decrements the remaining balance; full settlement marks the debt PAID and completes the linked sale
// @Tags         debts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Debt ID"
// @Param        payload  body      service.PayDebtRequest  true  "Payment payload"
// @Success      200      {object}  response.Response{data=service.DebtPaymentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /debts/{id}/payments [post]
func (h *DebtHandler) Pay(c *gin.Context) {
	var req service.PayDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.debtService.Pay(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(res))
}

// GetByID fetches one debt with payments
// @Summary      Get debt
// @Tags         debts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Debt ID"
// @Success      200  {object}  response.Response{data=model.Debt}
// @Failure      404  {object}  response.Response
// @Router       /debts/{id} [get]
func (h *DebtHandler) GetByID(c *gin.Context) {
	debt, err := h.debtService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(debt))
}

// List returns paginated debts, optionally filtered by status
// @Summary      List debts
// @Tags         debts
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        status  query     string  false  "Filter by status (UNPAID, PARTIAL, PAID, CANCELLED)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /debts [get]
func (h *DebtHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	debts, total, err := h.debtService.List(c.Request.Context(), params.Page, params.Limit, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("debts", debts, total, params.Page, params.Limit)))
}
