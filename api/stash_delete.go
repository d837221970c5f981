package api

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StashDelete removes an item the current owner holds.
func (a *API) StashDelete(c *gin.Context) {
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

	if err := a.DB.Delete(&model.StashItem{}, item.ID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete stash item", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusOK)
}
