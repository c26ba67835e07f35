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

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", read, h.ListPurchases)
		purchases.GET("/:id", read, h.GetPurchase)
		purchases.POST("", write, h.CreatePurchase)
		purchases.POST("/:id/items", write, h.AddItem)
		purchases.PATCH("/:id/status", write, h.SetStatus)
		purchases.DELETE("/:id", write, h.DeletePurchase)
	}
	items := router.Group("/api/purchase-items")
	{
		items.PUT("/:id", write, h.EditItem)
		items.DELETE("/:id", write, h.DeleteItem)
	}
}

// ListPurchases returns purchases filtered and paginated
// @Summary      List purchases
// @Description  Retrieves paginated purchases; filterable by status, supplier and purchase date range
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Param        status       query     string  false  "PENDING, RECEIVED or CANCELLED"
// @Param        supplier_id  query     string  false  "Filter by supplier"
// @Param        date_from    query     string  false  "Purchase date lower bound (YYYY-MM-DD)"
// @Param        date_to      query     string  false  "Purchase date upper bound (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.PurchaseListFilter{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
	}

	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"purchases": purchases,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetPurchase returns one purchase with its items
// @Summary      Get purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=model.Purchase}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// CreatePurchase records a purchase and credits stock atomically
// @Summary      Create purchase
// @Description  Creates a purchase with its items in one transaction, credits stock and caches the recomputed total
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseRequest  true  "Create Purchase Payload"
// @Success      201      {object}  response.Response{data=model.Purchase}
// @Failure      400      {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// AddItem appends a line to an existing purchase
// @Summary      Add purchase item
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Purchase ID"
// @Param        payload  body      service.PurchaseItemRequest  true  "Purchase Item Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseItem}
// @Failure      409      {object}  response.Response
// @Router       /api/purchases/{id}/items [post]
func (h *PurchaseHandler) AddItem(c *gin.Context) {
	var req service.PurchaseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.purchaseService.AddItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// EditItem rewrites a purchase line, reconciling stock by delta
// @Summary      Edit purchase item
// @Description  Changes quantity, price or variant of a purchase line; stock moves by delta and the cached total is recomputed, all in one transaction
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Purchase Item ID"
// @Param        payload  body      service.PurchaseItemRequest  true  "Purchase Item Payload"
// @Success      200      {object}  response.Response{data=model.PurchaseItem}
// @Failure      409      {object}  response.Response
// @Router       /api/purchase-items/{id} [put]
func (h *PurchaseHandler) EditItem(c *gin.Context) {
	var req service.PurchaseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.purchaseService.EditItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes a purchase line and debits its stock
// @Summary      Delete purchase item
// @Description  Removes a purchase line; refused when the stock it delivered has already been sold
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Item ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/purchase-items/{id} [delete]
func (h *PurchaseHandler) DeleteItem(c *gin.Context) {
	if err := h.purchaseService.DeleteItem(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Purchase item deleted successfully"))
}

// DeletePurchase removes a whole purchase and debits all its stock
// @Summary      Delete purchase
// @Description  Removes a purchase; refused when returns reference it or its delivered stock has been sold
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	if err := h.purchaseService.DeletePurchase(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Purchase deleted successfully"))
}

// SetStatus moves a purchase through its status machine
// @Summary      Set purchase status
// @Description  PENDING may become RECEIVED or CANCELLED; RECEIVED may become CANCELLED; CANCELLED is final
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Purchase ID"
// @Param        payload  body      SetStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/purchases/{id}/status [patch]
func (h *PurchaseHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.purchaseService.SetStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Status); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Status updated"))
}
