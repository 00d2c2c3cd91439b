package v1

import (
	"github.com/gin-gonic/gin"
)

// StockQueryHandler serves the read-only stock views of a product.
type StockQueryHandler interface {
	Quantity(c *gin.Context)
	Value(c *gin.Context)
	AsOfQuantity(c *gin.Context)
	AsOfValue(c *gin.Context)
	Movements(c *gin.Context)
	StockCard(c *gin.Context)
	Reconcile(c *gin.Context)
	Layers(c *gin.Context)
	Reorder(c *gin.Context)
}

// RegisterStockQueryRoutes registers the stock views under a product group
// whose path carries the :id parameter.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, l.Catalog, l.Batches, l.Movements, l.Valuation)
//	RegisterStockQueryRoutes(api.Group("/products/:id"), handler)
func RegisterStockQueryRoutes(group *gin.RouterGroup, handler StockQueryHandler) {
	group.GET("/quantity", handler.Quantity)
	group.GET("/quantity/as-of", handler.AsOfQuantity)
	group.GET("/value", handler.Value)
	group.GET("/value/as-of", handler.AsOfValue)
	group.GET("/movements", handler.Movements)
	group.GET("/stock-card", handler.StockCard)
	group.GET("/reconcile", handler.Reconcile)
	group.GET("/layers", handler.Layers)
	group.GET("/reorder", handler.Reorder)
}
