package routes

import (
	"errors"
	"strconv"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/constant"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/ignored"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/dtos"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/middleware"
	"github.com/gin-gonic/gin"
)

func IgnoredRoutes(r *gin.RouterGroup, s ignored.Service) {
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.GET("", listIgnored(s))
		authGroup.POST("", addIgnored(s))
		authGroup.DELETE("/:phone", removeIgnored(s))
		authGroup.POST("/purge", purgeIgnored(s))
	}
}

func listIgnored(s ignored.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var (
			contacts   []entities.IgnoredContact
			totalPages int
			err        error
		)

		if pageParam := c.Query("page"); pageParam != "" {
			page, convErr := strconv.Atoi(pageParam)
			if convErr != nil {
				c.JSON(400, gin.H{"error": constant.INVALID_PAGE_NUMBER})
				return
			}
			contacts, totalPages, err = s.ListPage(c.Request.Context(), page)
		} else {
			contacts, err = s.List(c.Request.Context())
		}
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		views := make([]dtos.IgnoredContactDTO, 0, len(contacts))
		for _, contact := range contacts {
			views = append(views, dtos.IgnoredContactDTO{
				ID:        contact.ID,
				Phone:     contact.Phone,
				Reason:    contact.Reason,
				Excerpt:   contact.Excerpt,
				IgnoredAt: contact.IgnoredAt,
				ExpiresAt: contact.ExpiresAt,
				Active:    contact.Active(time.Now()),
			})
		}

		response := gin.H{"contacts": views}
		if totalPages > 0 {
			response["total_pages"] = totalPages
		}
		c.JSON(200, response)
	}
}

func addIgnored(s ignored.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.AddIgnoredDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		contact, err := s.Add(c.Request.Context(), req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": constant.CONTACT_IGNORED,
			"data": dtos.IgnoredContactDTO{
				ID:        contact.ID,
				Phone:     contact.Phone,
				Reason:    contact.Reason,
				IgnoredAt: contact.IgnoredAt,
				ExpiresAt: contact.ExpiresAt,
				Active:    true,
			},
		})
	}
}

func removeIgnored(s ignored.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var err error
		if c.Query("by") == "id" {
			id, convErr := strconv.ParseUint(c.Param("phone"), 10, 32)
			if convErr != nil {
				c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
				return
			}
			err = s.RemoveByID(c.Request.Context(), uint(id))
		} else {
			err = s.Remove(c.Request.Context(), c.Param("phone"))
		}
		if err != nil {
			if errors.Is(err, ignored.ErrContactNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
				return
			}
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": constant.CONTACT_RESTORED,
		})
	}
}

func purgeIgnored(s ignored.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.PurgeIgnoredDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		deleted, err := s.Purge(c.Request.Context(), req.Scope)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": constant.CONTACTS_PURGED,
			"data":    dtos.PurgeResultDTO{Deleted: deleted},
		})
	}
}
