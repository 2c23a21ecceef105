package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// requestTimeout bounds every downstream call (sheets, provider, postgres,
// redis) for one request, including the quota backoff waits.
const requestTimeout = 30 * time.Second

func withTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Register wires all routes. Authorization happens inside the handlers
// because the access code arrives in request bodies; there is no
// route-group middleware to hang it on.
//
// The bridge webhook is registered for both GET and POST: the provider's
// fetch method is configurable on their side and both must work.
func Register(r *gin.Engine, h Handlers) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.Use(withTimeout())
	{
		api.POST("/session", h.CreateSession)

		api.GET("/leads", h.ListLeads)
		api.PATCH("/leads/:id", h.PatchLead)

		api.POST("/start-call", h.StartCall)
		api.POST("/dial-number", h.DialNumber)

		api.GET("/bridge", h.Bridge)
		api.POST("/bridge", h.Bridge)
	}
}
