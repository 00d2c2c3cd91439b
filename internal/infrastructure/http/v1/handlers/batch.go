package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/allocation"
	"partsledger/internal/domain/batch"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// BatchHandler handles batch submission, inspection and allocation.
type BatchHandler struct {
	*BaseHandler
	batches     *batch.Service
	allocations *allocation.Service
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, batches *batch.Service, allocations *allocation.Service) *BatchHandler {
	return &BatchHandler{
		BaseHandler: base,
		batches:     batches,
		allocations: allocations,
	}
}

// Submit handles POST /batches
func (h *BatchHandler) Submit(c *gin.Context) {
	var req dto.SubmitBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(h.Today())
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.batches.Submit(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromBatch(b))
}

// Get handles GET /batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	b, err := h.batches.Get(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Decide handles POST /batches/:id/decision
func (h *BatchHandler) Decide(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.DecideBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.batches.Decide(c.Request.Context(), batchID, req.Decision, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Deactivate handles POST /batches/:id/deactivate
func (h *BatchHandler) Deactivate(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	b, err := h.batches.Deactivate(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Allocate handles POST /batches/:id/allocations
func (h *BatchHandler) Allocate(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.AllocateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	jobID, err := dto.ParseID("jobId", req.JobID)
	if err != nil {
		h.Error(c, err)
		return
	}

	a, err := h.allocations.Allocate(c.Request.Context(), batchID, jobID, req.Quantity, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, a)
}

// Release handles DELETE /batches/:id/allocations/:jobId
func (h *BatchHandler) Release(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	jobID, ok := h.PathID(c, "jobId")
	if !ok {
		return
	}

	a, err := h.allocations.Release(c.Request.Context(), batchID, jobID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, a)
}

// ListAllocations handles GET /batches/:id/allocations
func (h *BatchHandler) ListAllocations(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	list, err := h.allocations.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(list))
}
