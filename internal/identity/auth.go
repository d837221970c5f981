package identity

import "github.com/gin-gonic/gin"

// AuthContext reports the authenticated user behind a request, if any.
type AuthContext interface {
	CurrentPrincipal(c *gin.Context) (string, bool)
}

// ContextAuth reads the principal ID from a gin context key. The JWT
// middleware sets userID after validating the auth cookie, so the zero value
// plugs straight into it.
type ContextAuth struct {
	Key string
}

func (a ContextAuth) CurrentPrincipal(c *gin.Context) (string, bool) {
	key := a.Key
	if key == "" {
		key = "userID"
	}

	id := c.GetString(key)
	return id, id != ""
}
