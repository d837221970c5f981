package identity

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

const ctxTokenKey = "identity.guestToken"

// CookieTransport carries the opaque guest token between client and server.
type CookieTransport interface {
	// Read returns the token for this request. A token attached to the
	// in-flight context by an earlier Issue or Clear wins over the
	// client-stored cookie, so every caller within one request observes
	// the same value even if it was just minted
	Read(c *gin.Context, name string) (string, bool)
	Issue(c *gin.Context, name, token string, lifetime time.Duration)
	Clear(c *gin.Context, name string)
}

// GinCookies is the default transport backed by plain gin cookies.
type GinCookies struct{}

func (GinCookies) Read(c *gin.Context, name string) (string, bool) {
	if v, ok := c.Get(ctxTokenKey); ok {
		tok := v.(string)
		return tok, tok != ""
	}

	tok, err := c.Cookie(name)
	if err != nil || tok == "" {
		return "", false
	}

	return tok, true
}

func (GinCookies) Issue(c *gin.Context, name, token string, lifetime time.Duration) {
	c.SetCookie(name, token, int(lifetime.Seconds()), "/", "", viper.GetBool("host.ssl.enabled"), true)
	c.Set(ctxTokenKey, token)
}

func (GinCookies) Clear(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", viper.GetBool("host.ssl.enabled"), true)

	// Attach the empty token so a later Read in the same request doesn't
	// resurrect the cleared value from the request header
	c.Set(ctxTokenKey, "")
}
