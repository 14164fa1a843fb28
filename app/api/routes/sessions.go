package routes

import (
	"errors"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/constant"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/session"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/dtos"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/middleware"
	"github.com/gin-gonic/gin"
)

func SessionRoutes(r *gin.RouterGroup, s session.Service) {
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.GET("", listSessions(s))
		authGroup.GET("/:id", getSession(s))
		authGroup.POST("/:id", sessionCommand(s))
	}
}

func TriggerRoutes(r *gin.RouterGroup, s session.Service) {
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.POST("/reload", reloadTriggers(s))
	}
}

func listSessions(s session.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		sessions, err := s.List(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"sessions": sessions,
		})
	}
}

func getSession(s session.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		view, err := s.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(sessionErrorStatus(err), gin.H{"error": sessionErrorMessage(err)})
			return
		}

		c.JSON(200, view)
	}
}

func sessionCommand(s session.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.SessionCommandDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		result, err := s.Command(c.Request.Context(), c.Param("id"), req.Action)
		if err != nil {
			c.JSON(sessionErrorStatus(err), gin.H{"error": sessionErrorMessage(err)})
			return
		}

		c.JSON(200, gin.H{
			"message": commandMessage(req.Action),
			"data":    result,
		})
	}
}

func reloadTriggers(s session.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		sessions, err := s.ReloadTriggers(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": constant.TRIGGERS_RELOADED,
			"data":    dtos.TriggerReloadResultDTO{Sessions: sessions},
		})
	}
}

func commandMessage(action string) string {
	switch action {
	case session.ActionStart:
		return constant.SESSION_STARTED
	case session.ActionStop:
		return constant.SESSION_STOPPED
	case session.ActionLogout:
		return constant.SESSION_LOGGED_OUT
	case session.ActionDelete:
		return constant.SESSION_DELETED
	default:
		return constant.UPDATED
	}
}

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return 404
	case errors.Is(err, session.ErrInvalidIdentity):
		return 400
	case errors.Is(err, session.ErrConnectionTimeout):
		return 504
	case errors.Is(err, session.ErrConnection):
		return 502
	default:
		return 500
	}
}

func sessionErrorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return constant.SESSION_NOT_FOUND
	case errors.Is(err, session.ErrInvalidIdentity):
		return constant.INVALID_IDENTITY
	default:
		return err.Error()
	}
}
