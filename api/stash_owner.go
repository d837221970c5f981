package api

import (
	"bitrook/stashbin-api/internal/identity"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StashOwner tells who holds an item: a registered user, a guest session or
// nobody (the owner was reclaimed or the item was unassigned).
func (a *API) StashOwner(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	item, ok := a.loadItem(c, requestID)
	if !ok {
		return
	}

	owner, err := a.Owners.Owner(item)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to resolve item owner", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	switch owner.Kind {
	case identity.OwnerPrincipal:
		c.JSON(http.StatusOK, gin.H{"kind": "user", "id": owner.PrincipalID})
	case identity.OwnerGuest:
		c.JSON(http.StatusOK, gin.H{"kind": "guest", "id": owner.Guest.ID})
	default:
		c.JSON(http.StatusOK, gin.H{"kind": "none"})
	}
}
