package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// RegisterRoutes binds the return endpoints to the router group
func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/returns")
	{
		returns.POST("", middleware.RequireRole("admin", "manager", "cashier"), h.Create)
		returns.GET("", middleware.RequireRole("admin", "manager", "cashier"), h.List)
		returns.GET("/:id", middleware.RequireRole("admin", "manager", "cashier"), h.GetByID)
		returns.DELETE("/:id", middleware.RequireRole("admin", "manager"), h.Void)
	}
}

// Create posts a customer return against a sale
// @Summary      Create return
// @Description  Validates returned quantity against the sold quantity net of prior returns; restocks cost-neutrally and applies the chosen compensation (refund, credit note, or exchange)
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateReturnRequest  true  "Return payload"
// @Success      201      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /returns [post]
func (h *ReturnHandler) Create(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.returnService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(res))
}

// Void archives a return, reversing each compensation leg
// @Summary      Void return
// @Description  Issues restocked units back out, revokes credit notes, and credits exchanged goods back; archives the return
// @Tags         returns
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /returns/{id} [delete]
func (h *ReturnHandler) Void(c *gin.Context) {
	ret, err := h.returnService.Void(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(ret, "Return voided"))
}

// GetByID fetches one return with items
// @Summary      Get return
// @Tags         returns
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response{data=model.CustomerReturn}
// @Failure      404  {object}  response.Response
// @Router       /returns/{id} [get]
func (h *ReturnHandler) GetByID(c *gin.Context) {
	ret, err := h.returnService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(ret))
}

// List returns paginated customer returns
// @Summary      List returns
// @Tags         returns
// @Produce      json
// @Security     BearerAuth
// @Param        page              query     int   false  "Page number"
// @Param        limit             query     int   false  "Items per page"
// @Param        include_archived  query     bool  false  "Include voided returns"
// @Success      200               {object}  response.Response{data=object}
// @Router       /returns [get]
func (h *ReturnHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	includeArchived := c.Query("include_archived") == "true"

	returns, total, err := h.returnService.List(c.Request.Context(), params.Page, params.Limit, includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("returns", returns, total, params.Page, params.Limit)))
}
