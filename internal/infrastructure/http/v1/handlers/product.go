package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/core/apperror"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/valuation"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog and every stock query of a product.
type ProductHandler struct {
	*BaseHandler
	catalog   *catalog.Service
	batches   *batch.Service
	movements *ledger.Service
	valuation *valuation.Engine
}

// NewProductHandler creates a new product handler.
func NewProductHandler(
	base *BaseHandler,
	catalogSvc *catalog.Service,
	batches *batch.Service,
	movements *ledger.Service,
	engine *valuation.Engine,
) *ProductHandler {
	return &ProductHandler{
		BaseHandler: base,
		catalog:     catalogSvc,
		batches:     batches,
		movements:   movements,
		valuation:   engine,
	}
}

// Register handles POST /products
func (h *ProductHandler) Register(c *gin.Context) {
	var req dto.RegisterProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(h.Today())
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.catalog.Register(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	p, err := h.catalog.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(list))
}

// Batches handles GET /products/:id/batches
func (h *ProductHandler) Batches(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	list, err := h.batches.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromBatches(list)))
}

// Quantity handles GET /products/:id/quantity
func (h *ProductHandler) Quantity(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	q, err := h.valuation.Quantity(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, q)
}

// Value handles GET /products/:id/value
func (h *ProductHandler) Value(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	v, err := h.valuation.CurrentValue(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// AsOfQuantity handles GET /products/:id/quantity/as-of?date=YYYY-MM-DD
func (h *ProductHandler) AsOfQuantity(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	date, err := dto.ParseDate("date", c.Query("date"), h.Today())
	if err != nil {
		h.Error(c, err)
		return
	}

	qty, err := h.valuation.AsOfQuantity(c.Request.Context(), productID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AsOfQuantityResponse{
		ProductID: productID,
		Date:      date.Format(dto.DateLayout),
		Quantity:  qty,
	})
}

// AsOfValue handles GET /products/:id/value/as-of?date=YYYY-MM-DD
func (h *ProductHandler) AsOfValue(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	date, err := dto.ParseDate("date", c.Query("date"), h.Today())
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.valuation.AsOfValue(c.Request.Context(), productID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAsOf(v))
}

// Movements handles GET /products/:id/movements
func (h *ProductHandler) Movements(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.MovementFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	filter := ledger.Filter{
		ProductID: productID,
		Limit:     req.PageSize,
		Offset:    req.Offset(),
	}
	for _, t := range req.EventType {
		et := ledger.EventType(t)
		if !et.Valid() {
			h.Error(c, apperror.NewValidation("unknown event type").
				WithDetail("eventType", t).
				WithDetail("allowed", ledger.EventTypes))
			return
		}
		filter.EventTypes = append(filter.EventTypes, et)
	}
	if req.From != "" {
		from, err := dto.ParseDate("from", req.From, h.Today())
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.FromDate = &from
	}
	if req.To != "" {
		to, err := dto.ParseDate("to", req.To, h.Today())
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.ToDate = &to
	}

	list, err := h.movements.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(list))
}

// StockCard handles GET /products/:id/stock-card?from=&to=
// The range defaults to the current calendar month.
func (h *ProductHandler) StockCard(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	today := h.Today()
	monthStart := today.AddDate(0, 0, 1-today.Day())
	from, err := dto.ParseDate("from", c.Query("from"), monthStart)
	if err != nil {
		h.Error(c, err)
		return
	}
	to, err := dto.ParseDate("to", c.Query("to"), today)
	if err != nil {
		h.Error(c, err)
		return
	}

	card, err := h.valuation.StockCard(c.Request.Context(), productID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, card)
}

// Reconcile handles GET /products/:id/reconcile
func (h *ProductHandler) Reconcile(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	r, err := h.valuation.Reconcile(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, r)
}

// Layers handles GET /products/:id/layers
func (h *ProductHandler) Layers(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	layers, err := h.valuation.Layers(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(layers))
}

// Reorder handles GET /products/:id/reorder
func (h *ProductHandler) Reorder(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	status, err := h.valuation.ReorderStatus(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, status)
}
