package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/allocation"
	"partsledger/internal/domain/jobtab"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// JobHandler handles jobs, their approval tabs and closing.
type JobHandler struct {
	*BaseHandler
	jobs        *jobtab.Service
	allocations *allocation.Service
}

// NewJobHandler creates a new job handler.
func NewJobHandler(base *BaseHandler, jobs *jobtab.Service, allocations *allocation.Service) *JobHandler {
	return &JobHandler{
		BaseHandler: base,
		jobs:        jobs,
		allocations: allocations,
	}
}

// Open handles POST /jobs
func (h *JobHandler) Open(c *gin.Context) {
	var req dto.OpenJobRequest
	if !h.BindJSON(c, &req) {
		return
	}

	jobID := id.New()
	if req.ID != "" {
		parsed, err := dto.ParseID("id", req.ID)
		if err != nil {
			h.Error(c, err)
			return
		}
		jobID = parsed
	}

	job, err := h.jobs.Open(c.Request.Context(), jobID, req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, job)
}

// Get handles GET /jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, job)
}

// ApproveTab handles POST /jobs/:id/tabs/:category/approve
func (h *JobHandler) ApproveTab(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	category, valid := jobtab.ParseCategory(c.Param("category"))
	if !valid {
		h.Error(c, apperror.NewValidation("unknown tab category").
			WithDetail("category", c.Param("category")).
			WithDetail("allowed", jobtab.Categories))
		return
	}

	tab, err := h.jobs.Approve(c.Request.Context(), jobID, category, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, tab)
}

// Close handles POST /jobs/:id/close
func (h *JobHandler) Close(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.CloseJobRequest
	if !h.BindJSON(c, &req) {
		return
	}

	job, err := h.jobs.Close(c.Request.Context(), jobID, req.InvoiceNumber, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, job)
}

// Allocations handles GET /jobs/:id/allocations
func (h *JobHandler) Allocations(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	list, err := h.allocations.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(list))
}
