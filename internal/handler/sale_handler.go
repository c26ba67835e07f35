package handler

import (
	"net/http"

	"shopstock/internal/middleware"
	"shopstock/internal/model"
	"shopstock/internal/service"
	"shopstock/pkg/pagination"
	"shopstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// SetStatusRequest carries a single status value for status endpoints
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	manage := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	sales := router.Group("/api/sales")
	{
		sales.GET("", anyRole, h.ListSales)
		sales.GET("/:id", anyRole, h.GetSale)
		sales.POST("", anyRole, h.CreateSale)
		sales.POST("/:id/items", anyRole, h.AddItem)
		sales.PATCH("/:id/status", anyRole, h.SetStatus)
		sales.DELETE("/:id", manage, h.DeleteSale)
	}
	items := router.Group("/api/sale-items")
	{
		items.PUT("/:id", anyRole, h.EditItem)
		items.DELETE("/:id", manage, h.DeleteItem)
	}
}

// ListSales returns sales filtered and paginated
// @Summary      List sales
// @Description  Retrieves paginated sales; filterable by status, payment method, customer and sale date range
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Param        status          query     string  false  "PENDING or PAID"
// @Param        payment_method  query     string  false  "CASH, CREDIT_CARD or BANK_TRANSFER"
// @Param        customer_id     query     string  false  "Filter by customer"
// @Param        date_from       query     string  false  "Sale date lower bound (YYYY-MM-DD)"
// @Param        date_to         query     string  false  "Sale date upper bound (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.SaleListFilter{
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		CustomerID:    c.Query("customer_id"),
		DateFrom:      c.Query("date_from"),
		DateTo:        c.Query("date_to"),
	}

	sales, total, err := h.saleService.ListSales(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"sales": sales,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// GetSale returns one sale with its items
// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CreateSale records a sale and debits stock atomically
// @Summary      Create sale
// @Description  Creates a sale with its items in one transaction; every line must be covered by current stock or the whole sale is rejected
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSaleRequest  true  "Create Sale Payload"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// AddItem appends a line to an existing sale
// @Summary      Add sale item
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Sale ID"
// @Param        payload  body      service.SaleItemRequest  true  "Sale Item Payload"
// @Success      201      {object}  response.Response{data=model.SaleItem}
// @Failure      409      {object}  response.Response
// @Router       /api/sales/{id}/items [post]
func (h *SaleHandler) AddItem(c *gin.Context) {
	var req service.SaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.saleService.AddItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// EditItem rewrites a sale line, reconciling stock by delta
// @Summary      Edit sale item
// @Description  Changes quantity, price or variant of a sale line; stock is restored for the old line and debited for the new one atomically
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Sale Item ID"
// @Param        payload  body      service.SaleItemRequest  true  "Sale Item Payload"
// @Success      200      {object}  response.Response{data=model.SaleItem}
// @Failure      409      {object}  response.Response
// @Router       /api/sale-items/{id} [put]
func (h *SaleHandler) EditItem(c *gin.Context) {
	var req service.SaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.saleService.EditItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes a sale line and restores its stock
// @Summary      Delete sale item
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sale-items/{id} [delete]
func (h *SaleHandler) DeleteItem(c *gin.Context) {
	if err := h.saleService.DeleteItem(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Sale item deleted successfully"))
}

// DeleteSale removes a whole sale and restores all stock
// @Summary      Delete sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	if err := h.saleService.DeleteSale(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Sale deleted successfully"))
}

// SetStatus updates a sale's payment status
// @Summary      Set sale status
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Sale ID"
// @Param        payload  body      SetStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/sales/{id}/status [patch]
func (h *SaleHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.saleService.SetStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Status); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Status updated"))
}
