package api

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stashEditBody struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
	Private *bool    `json:"private"`
}

// StashEdit updates an item the current owner holds. Only the provided
// fields change.
func (a *API) StashEdit(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	item, ok := a.loadItem(c, requestID)
	if !ok {
		return
	}

	owns, err := a.Owners.IsOwnedByCurrent(c, item)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check item ownership", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !owns {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "You don't own this item",
			"requestID": requestID,
		})
		return
	}

	var data stashEditBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	updates := map[string]any{}
	if data.Title != nil {
		updates["title"] = *data.Title
	}
	if data.Content != nil {
		updates["content"] = *data.Content
	}
	if data.Tags != nil {
		updates["tags"] = model.StringSlice(data.Tags)
	}
	if data.Private != nil {
		updates["private"] = *data.Private
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, item)
		return
	}

	if err := a.DB.Model(item).Updates(updates).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update stash item", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, item)
}
