package dto

import (
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/batch"
)

// SubmitBatchRequest registers a received batch for inspection.
type SubmitBatchRequest struct {
	ProductID    string      `json:"productId" binding:"required"`
	Quantity     int64       `json:"quantity"`
	UnitCost     types.Money `json:"unitCost"`
	SupplierID   string      `json:"supplierId,omitempty"`
	ReceivedDate string      `json:"receivedDate,omitempty"` // YYYY-MM-DD, default today
}

// ToInput converts the request into a batch.SubmitInput.
func (r *SubmitBatchRequest) ToInput(today time.Time) (batch.SubmitInput, error) {
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return batch.SubmitInput{}, err
	}
	received, err := ParseDate("receivedDate", r.ReceivedDate, today)
	if err != nil {
		return batch.SubmitInput{}, err
	}

	in := batch.SubmitInput{
		ProductID:    productID,
		Quantity:     r.Quantity,
		UnitCost:     r.UnitCost,
		ReceivedDate: received,
	}
	if r.SupplierID != "" {
		supplierID, err := ParseID("supplierId", r.SupplierID)
		if err != nil {
			return batch.SubmitInput{}, err
		}
		in.SupplierID = &supplierID
	}
	return in, nil
}

// DecideBatchRequest carries an inspector's verdict.
type DecideBatchRequest struct {
	Decision batch.Decision `json:"decision" binding:"required,oneof=approve reject"`
}

// AllocateBatchRequest issues batch stock to a job.
type AllocateBatchRequest struct {
	JobID    string `json:"jobId" binding:"required"`
	Quantity int64  `json:"quantity"`
}

// BatchResponse is the API view of a batch.
type BatchResponse struct {
	ID                id.ID                `json:"id"`
	Number            string               `json:"number"`
	ProductID         id.ID                `json:"productId"`
	SupplierID        *id.ID               `json:"supplierId,omitempty"`
	Quantity          int64                `json:"quantity"`
	RemainingQuantity int64                `json:"remainingQuantity"`
	UnitCost          types.Money          `json:"unitCost"`
	RemainingValue    types.Money          `json:"remainingValue"`
	ReceivedDate      string               `json:"receivedDate"`
	ApprovalStatus    batch.ApprovalStatus `json:"approvalStatus"`
	ApprovedBy        *string              `json:"approvedBy,omitempty"`
	DecidedAt         *time.Time           `json:"decidedAt,omitempty"`
	JobAllocatedTo    *id.ID               `json:"jobAllocatedTo,omitempty"`
	Status            batch.Status         `json:"status"`
	CreatedAt         time.Time            `json:"createdAt"`
	Version           int                  `json:"version"`
}

// FromBatch creates BatchResponse from a domain batch.
func FromBatch(b *batch.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		Number:            b.Number,
		ProductID:         b.ProductID,
		SupplierID:        b.SupplierID,
		Quantity:          b.Quantity,
		RemainingQuantity: b.RemainingQuantity,
		UnitCost:          b.UnitCost,
		RemainingValue:    types.RoundMoney(b.RemainingValue()),
		ReceivedDate:      b.ReceivedDate.Format(DateLayout),
		ApprovalStatus:    b.ApprovalStatus,
		ApprovedBy:        b.ApprovedBy,
		DecidedAt:         b.DecidedAt,
		JobAllocatedTo:    b.JobAllocatedTo,
		Status:            b.Status,
		CreatedAt:         b.CreatedAt,
		Version:           b.Version,
	}
}

// FromBatches converts a slice.
func FromBatches(list []batch.Batch) []BatchResponse {
	out := make([]BatchResponse, len(list))
	for i := range list {
		out[i] = FromBatch(&list[i])
	}
	return out
}
