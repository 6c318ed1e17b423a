package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "atelier/internal/core/context"
)

// Headers set by the upstream gateway after authentication.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
	HeaderStoreID   = "X-Store-ID"
)

// Actor puts the acting user forwarded by the gateway into the request
// context. Requests without X-Actor-ID act as "system".
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID := c.GetHeader(HeaderActorID); actorID != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{
				ID:      actorID,
				Name:    c.GetHeader(HeaderActorName),
				StoreID: c.GetHeader(HeaderStoreID),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
