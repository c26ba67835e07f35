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

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	returns := router.Group("/api/returns")
	{
		returns.GET("", read, h.ListReturns)
		returns.GET("/:id", read, h.GetReturn)
		returns.POST("", write, h.CreateReturn)
		returns.DELETE("/:id", write, h.DeleteReturn)
	}
	router.GET("/api/purchases/:id/returns", read, h.ListByPurchase)
}

// ListReturns returns supplier returns paginated
// @Summary      List returns
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/returns [get]
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	p := pagination.Parse(c)
	returns, total, err := h.returnService.ListReturns(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"returns": returns,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// GetReturn returns one supplier return with its items
// @Summary      Get return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response{data=model.Return}
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	ret, err := h.returnService.GetReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// CreateReturn records a supplier return against a purchase
// @Summary      Create return
// @Description  Returns goods to the supplier of one purchase. Each line is capped by the purchase line's remaining returnable quantity and by current stock; prices come from the purchase.
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReturnRequest  true  "Create Return Payload"
// @Success      201      {object}  response.Response{data=model.Return}
// @Failure      409      {object}  response.Response
// @Router       /api/returns [post]
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.returnService.CreateReturn(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// DeleteReturn removes a return and restores its stock
// @Summary      Delete return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [delete]
func (h *ReturnHandler) DeleteReturn(c *gin.Context) {
	if err := h.returnService.DeleteReturn(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Return deleted successfully"))
}

// ListByPurchase returns every return recorded against one purchase
// @Summary      List returns of a purchase
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=[]model.Return}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id}/returns [get]
func (h *ReturnHandler) ListByPurchase(c *gin.Context) {
	returns, err := h.returnService.ListByPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, returns))
}
