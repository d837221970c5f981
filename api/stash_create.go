package api

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stashCreateBody struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Private bool     `json:"private"`
}

// StashCreate stashes a new item for whoever is making the request. A
// first-time anonymous visitor gets a guest identity and cookie as part of
// the same insert flow.
func (a *API) StashCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data stashCreateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Content == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Content field can't be empty",
			"requestID": requestID,
		})
		return
	}

	item := model.StashItem{
		Title:   data.Title,
		Content: data.Content,
		Tags:    data.Tags,
		Private: data.Private,
	}

	if err := a.Owners.CreateWithOwnership(c, &item); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to stash item", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, item)
}
