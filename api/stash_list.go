package api

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StashList returns the current owner's items, newest first. An optional
// query parameter filters on the title.
func (a *API) StashList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	scope, err := a.Owners.ScopeForCurrent(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to scope stash query", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	q := a.DB.Scopes(scope).Order("created_at desc")

	if search := strings.ToLower(c.Query("query")); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+search+"%")
	}

	var items []model.StashItem

	if err := q.Find(&items).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list stash items", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
