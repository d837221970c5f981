package api

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pinnedSlug = "pinned"

type stashPinBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StashPin upserts the owner's single pinned note. The owner is part of the
// match, so every user and every guest gets their own row under the same
// slug.
func (a *API) StashPin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data stashPinBody
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
		Slug:    pinnedSlug,
		Private: true,
	}

	err := a.Owners.UpdateOrCreateWithOwnership(c, &item,
		map[string]any{"slug": pinnedSlug},
		map[string]any{
			"title":   data.Title,
			"content": data.Content,
			"private": true,
		},
	)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to upsert pinned note", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, item)
}
