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

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	products := router.Group("/api/products")
	{
		products.GET("", read, h.ListProducts)
		products.GET("/:id", read, h.GetProduct)
		products.POST("", write, h.CreateProduct)
		products.PUT("/:id", write, h.UpdateProduct)
		products.DELETE("/:id", write, h.DeleteProduct)
		products.POST("/:id/variants", write, h.CreateVariant)
	}
	variants := router.Group("/api/variants")
	{
		variants.PUT("/:id", write, h.UpdateVariant)
		variants.POST("/:id/adjust", write, h.AdjustStock)
	}
}

// ListProducts returns the product catalog with variants
// @Summary      List products
// @Description  Retrieves a paginated product list including variants, filterable by category and name search
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Param        category  query     string  false  "Filter by category"
// @Param        search    query     string  false  "Search by model name"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.catalogService.ListProducts(c.Request.Context(), c.Query("category"), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// GetProduct returns one product with its variants
// @Summary      Get product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a catalog product
// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct updates a product's metadata
// @Summary      Update product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.CreateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product and its variants
// @Summary      Delete product
// @Description  Deletes a product and all of its variants. Refused when any variant has sale history.
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalogService.DeleteProduct(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// CreateVariant adds a color/size variant to a product
// @Summary      Create variant
// @Description  Adds a variant (color + size) to a product. The color/size pair must be unique within the product.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.CreateVariantRequest  true  "Create Variant Payload"
// @Success      201      {object}  response.Response{data=model.ProductVariant}
// @Failure      409      {object}  response.Response
// @Router       /api/products/{id}/variants [post]
func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	var req service.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	variant, err := h.catalogService.CreateVariant(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, variant))
}

// UpdateVariant updates a variant's identity or price
// @Summary      Update variant
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Variant ID"
// @Param        payload  body      service.CreateVariantRequest  true  "Update Variant Payload"
// @Success      200      {object}  response.Response{data=model.ProductVariant}
// @Failure      409      {object}  response.Response
// @Router       /api/variants/{id} [put]
func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	var req service.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	variant, err := h.catalogService.UpdateVariant(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, variant))
}

// AdjustStock applies a manual stock correction
// @Summary      Adjust stock
// @Description  Applies a manual IN/OUT stock correction inside a locked transaction and broadcasts the new level
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Variant ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Adjust Stock Payload"
// @Success      201      {object}  response.Response{data=model.StockAdjustment}
// @Failure      409      {object}  response.Response
// @Router       /api/variants/{id}/adjust [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	adjustment, err := h.catalogService.AdjustStock(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, adjustment))
}
