package handler

import (
	"net/http"
	"strconv"
	"time"

	"shopstock/internal/middleware"
	"shopstock/internal/model"
	"shopstock/internal/service"
	"shopstock/internal/validate"
	"shopstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	reports := router.Group("/api/reports")
	{
		reports.GET("/suppliers/:id/monthly", read, h.SupplierMonthly)
		reports.POST("/suppliers/:id/balances/rebuild", read, h.RebuildBalances)
		reports.GET("/returns/:id/allocation", read, h.ReturnAllocation)
		reports.GET("/products/purchases", read, h.ProductPurchases)
		reports.GET("/stock", read, h.StockSnapshot)
	}
}

func yearParam(c *gin.Context) int {
	year, err := validate.Int(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())), 2000)
	if err != nil || year > 2200 {
		return time.Now().Year()
	}
	return year
}

// SupplierMonthly returns one supplier's monthly purchase/return rollup
// @Summary      Supplier monthly report
// @Description  Monthly purchase and return totals for one supplier with the closing balance carried forward month over month
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Supplier ID"
// @Param        year  query     int     false  "Report year (default current)"
// @Success      200   {object}  response.Response{data=[]model.SupplierMonthlySummary}
// @Failure      404   {object}  response.Response
// @Router       /api/reports/suppliers/{id}/monthly [get]
func (h *ReportHandler) SupplierMonthly(c *gin.Context) {
	summaries, err := h.reportService.SupplierMonthlyReport(c.Request.Context(), c.Param("id"), yearParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summaries))
}

// RebuildBalances recomputes and stores a supplier's monthly closing balances
// @Summary      Rebuild supplier balances
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Supplier ID"
// @Param        year  query     int     false  "Year to rebuild (default current)"
// @Success      200   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/reports/suppliers/{id}/balances/rebuild [post]
func (h *ReportHandler) RebuildBalances(c *gin.Context) {
	if err := h.reportService.RebuildSupplierBalances(c.Request.Context(), c.Param("id"), yearParam(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Balances rebuilt"))
}

// ReturnAllocation estimates the per-product split of a return amount
// @Summary      Return allocation estimate
// @Description  Distributes a purchase-level return amount across the purchased products proportionally to each product's share of the purchase total. An estimate for reporting, not a ledger.
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response{data=[]service.ProductAllocation}
// @Failure      404  {object}  response.Response
// @Router       /api/reports/returns/{id}/allocation [get]
func (h *ReportHandler) ReturnAllocation(c *gin.Context) {
	allocations, err := h.reportService.ReturnAllocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, allocations))
}

// ProductPurchases returns purchased quantity and amount per product
// @Summary      Product purchase summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        date_from  query     string  true  "Range start (YYYY-MM-DD)"
// @Param        date_to    query     string  true  "Range end, inclusive (YYYY-MM-DD)"
// @Success      200        {object}  response.Response{data=[]model.ProductPurchaseSummary}
// @Failure      400        {object}  response.Response
// @Router       /api/reports/products/purchases [get]
func (h *ReportHandler) ProductPurchases(c *gin.Context) {
	summaries, err := h.reportService.ProductPurchaseSummary(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summaries))
}

// StockSnapshot returns the current stock level of every variant
// @Summary      Stock snapshot
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.StockSnapshotRow}
// @Failure      500  {object}  response.Response
// @Router       /api/reports/stock [get]
func (h *ReportHandler) StockSnapshot(c *gin.Context) {
	snapshot, err := h.reportService.StockSnapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snapshot))
}
