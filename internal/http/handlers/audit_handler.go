package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/services"
	"github.com/tbourn/agency-intake/internal/utils"
)

// ListAuditEventsResponse is a page of audit events.
type ListAuditEventsResponse struct {
	Events     []domain.AuditEvent `json:"events"`
	Pagination Pagination          `json:"pagination"`
}

// ListAuditEvents godoc
// @ID          listAuditEvents
// @Summary     List audit events
// @Description Newest first, optionally filtered by action.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       action     query  string  false "Action filter"  example(application_submitted)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(50)
// @Success     200  {object} handlers.ListAuditEventsResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/v1/admin/audit-events [get]
func (h *Handlers) ListAuditEvents(c *gin.Context) {
	action := strings.TrimSpace(c.Query("action"))
	page, pageSize := utils.PageParams(c.Query("page"), c.Query("page_size"), services.DefaultAuditPageSize, maxPageSize)

	items, total, err := h.auditSvc.ListPage(c.Request.Context(), action, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list audit events")
		return
	}
	if items == nil {
		items = []domain.AuditEvent{}
	}
	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListAuditEventsResponse{
		Events: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
