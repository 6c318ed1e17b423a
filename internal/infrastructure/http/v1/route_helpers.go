package v1

import (
	"github.com/gin-gonic/gin"
)

// DocumentRouteHandler is implemented by every source document handler.
type DocumentRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// DocumentAction is a status change exposed as POST /:id/<Name>.
type DocumentAction struct {
	Name    string
	Handler gin.HandlerFunc
}

// RegisterDocumentRoutes registers create, read and the status actions of
// a document.
//
// Usage:
//
//	RegisterDocumentRoutes(v1.Group("/sales"), saleHandler,
//		DocumentAction{"complete", saleHandler.Complete},
//		DocumentAction{"void", saleHandler.Void})
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, actions ...DocumentAction) {
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	for _, a := range actions {
		group.POST("/:id/"+a.Name, a.Handler)
	}
}
