package dto

// OpenJobRequest opens a job. ID is optional; when set it must be a UUID the
// maintenance system already uses for the job.
type OpenJobRequest struct {
	ID        string `json:"id,omitempty"`
	Reference string `json:"reference" binding:"required"`
}

// CloseJobRequest closes a job against its invoice.
type CloseJobRequest struct {
	InvoiceNumber string `json:"invoiceNumber" binding:"required"`
}
