package api

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StashFetch serves a single item. Public items are visible to anyone;
// private ones only to their owner.
func (a *API) StashFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	item, ok := a.loadItem(c, requestID)
	if !ok {
		return
	}

	if item.Private {
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
			// Don't leak that the item exists at all
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Item not found",
				"requestID": requestID,
			})
			return
		}
	}

	err := a.DB.
		Model(item).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).
		Error
	if err != nil {
		zap.L().Error("Failed to bump view count", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, item)
}

// loadItem pulls the :id item out of the database, writing the error
// response itself when it can't.
func (a *API) loadItem(c *gin.Context, requestID string) (*model.StashItem, bool) {
	itemID := c.Param("id")
	if itemID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "ID is missing",
			"requestID": requestID,
		})
		return nil, false
	}

	var item model.StashItem

	err := a.DB.Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Item not found",
				"requestID": requestID,
			})
			return nil, false
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch stash item", zap.Error(err), zap.String("requestID", requestID))
		return nil, false
	}

	return &item, true
}
