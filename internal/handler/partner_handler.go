package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PartnerHandler struct {
	supplierService service.SupplierService
	customerService service.CustomerService
}

func NewPartnerHandler(supplierService service.SupplierService, customerService service.CustomerService) *PartnerHandler {
	return &PartnerHandler{supplierService: supplierService, customerService: customerService}
}

// RegisterRoutes binds the supplier and customer endpoints to the router group
func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/suppliers")
	{
		suppliers.GET("", middleware.RequireRole("admin", "manager", "cashier"), h.ListSuppliers)
		suppliers.GET("/:id", middleware.RequireRole("admin", "manager", "cashier"), h.GetSupplier)
		suppliers.POST("", middleware.RequireRole("admin", "manager"), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequireRole("admin", "manager"), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteSupplier)
	}

	customers := router.Group("/customers")
	{
		customers.GET("", middleware.RequireRole("admin", "manager", "cashier"), h.ListCustomers)
		customers.GET("/:id", middleware.RequireRole("admin", "manager", "cashier"), h.GetCustomer)
		customers.POST("", middleware.RequireRole("admin", "manager", "cashier"), h.CreateCustomer)
		customers.PUT("/:id", middleware.RequireRole("admin", "manager"), h.UpdateCustomer)
		customers.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteCustomer)
	}
}

// CreateSupplier registers a purchasing counterparty
// @Summary      Create supplier
// @Tags         partners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SupplierRequest  true  "Supplier payload"
// @Success      201      {object}  response.Response{data=model.Supplier}
// @Failure      400      {object}  response.Response
// @Router       /suppliers [post]
func (h *PartnerHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(supplier))
}

// UpdateSupplier edits a supplier
// @Summary      Update supplier
// @Tags         partners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Supplier ID"
// @Param        payload  body      service.SupplierRequest  true  "Supplier payload"
// @Success      200      {object}  response.Response{data=model.Supplier}
// @Failure      404      {object}  response.Response
// @Router       /suppliers/{id} [put]
func (h *PartnerHandler) UpdateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(supplier))
}

// DeleteSupplier soft-deletes a supplier
// @Summary      Delete supplier
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /suppliers/{id} [delete]
func (h *PartnerHandler) DeleteSupplier(c *gin.Context) {
	if err := h.supplierService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Supplier deleted"))
}

// GetSupplier fetches one supplier
// @Summary      Get supplier
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=model.Supplier}
// @Failure      404  {object}  response.Response
// @Router       /suppliers/{id} [get]
func (h *PartnerHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.supplierService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(supplier))
}

// ListSuppliers returns paginated suppliers
// @Summary      List suppliers
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        search  query     string  false  "Search by name, phone, or email"
// @Success      200     {object}  response.Response{data=object}
// @Router       /suppliers [get]
func (h *PartnerHandler) ListSuppliers(c *gin.Context) {
	params := pagination.Parse(c)

	suppliers, total, err := h.supplierService.List(c.Request.Context(), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("suppliers", suppliers, total, params.Page, params.Limit)))
}

// CreateCustomer registers a sales counterparty
// @Summary      Create customer
// @Tags         partners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CustomerRequest  true  "Customer payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /customers [post]
func (h *PartnerHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(customer))
}

// UpdateCustomer edits a customer
// @Summary      Update customer
// @Tags         partners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Customer ID"
// @Param        payload  body      service.CustomerRequest  true  "Customer payload"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Failure      404      {object}  response.Response
// @Router       /customers/{id} [put]
func (h *PartnerHandler) UpdateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(customer))
}

// DeleteCustomer soft-deletes a customer without outstanding store credit
// @Summary      Delete customer
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /customers/{id} [delete]
func (h *PartnerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Customer deleted"))
}

// GetCustomer fetches one customer
// @Summary      Get customer
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /customers/{id} [get]
func (h *PartnerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(customer))
}

// ListCustomers returns paginated customers
// @Summary      List customers
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        search  query     string  false  "Search by name, phone, or email"
// @Success      200     {object}  response.Response{data=object}
// @Router       /customers [get]
func (h *PartnerHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)

	customers, total, err := h.customerService.List(c.Request.Context(), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(listPayload("customers", customers, total, params.Page, params.Limit)))
}
