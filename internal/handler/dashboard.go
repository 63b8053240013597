package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// DashboardHandler serves the read-side projections: dashboard, search and reports.
type DashboardHandler struct {
	Service  *aih.Service
	PageSize int
}

func NewDashboardHandler(svc *aih.Service, pageSize int) *DashboardHandler {
	return &DashboardHandler{Service: svc, PageSize: pageSize}
}

// Dashboard GET /api/dashboard?competence=MM/YYYY
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	d, err := h.Service.Dashboard(c.Request.Context(), c.Query("competence"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"dashboard": d})
}

// Search POST /api/search
func (h *DashboardHandler) Search(c *gin.Context) {
	var req aih.SearchFilters
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = h.PageSize
	}

	res, err := h.Service.Search(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{
		"items":     res.Items,
		"total":     res.Total,
		"page":      res.Page,
		"page_size": res.PageSize,
	})
}

// Report POST /api/reports/:kind with an optional scope body.
func (h *DashboardHandler) Report(c *gin.Context) {
	var scope aih.Scope
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&scope); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
			return
		}
	}

	rep, err := h.Service.Report(c.Request.Context(), aih.ReportKind(c.Param("kind")), scope)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"report": rep})
}

// scopeFromQuery reads competence / start_date / end_date query parameters.
func scopeFromQuery(c *gin.Context) aih.Scope {
	return aih.Scope{
		Competence: c.Query("competence"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}
}
