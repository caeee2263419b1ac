package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.GET("/search/:domain", h.Search)
	g.GET("/listings/:domain/:id/availability", h.Availability)
	g.GET("/seasons", h.ListSeasons)
	g.GET("/seasons/:tag", h.GetSeason)

	sessions := g.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.PUT("/:id", h.UpdateSession)
		sessions.DELETE("/:id", h.DeleteSession)
	}
}
