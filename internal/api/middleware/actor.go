package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader carries the identity performing the request.
	ActorHeader = "X-Actor"

	// ActorKey is the key used to store the actor in the context
	ActorKey = "actor"

	// DefaultActor is recorded when no actor header is supplied.
	DefaultActor = "system"
)

// Actor middleware resolves who is performing the request. Postings,
// cancellations, and reconciliations stamp this identity into the audit
// trail, so it always resolves to something.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			actor = DefaultActor
		}

		c.Set(ActorKey, actor)

		c.Next()
	}
}

// GetActor retrieves the acting identity from the gin context.
func GetActor(c *gin.Context) string {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(string); ok && actor != "" {
			return actor
		}
	}
	return DefaultActor
}
