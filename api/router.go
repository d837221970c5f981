// Package api contains all endpoints available
package api

import (
	"bitrook/stashbin-api/db"
	"bitrook/stashbin-api/internal/identity"
	"bitrook/stashbin-api/pkg/middleware"
	"bitrook/stashbin-api/pkg/security"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Argon  *security.ArgonHash
	Guests *identity.Manager
	Owners *identity.Resolver
}

func NewRouter() (*API, error) {
	a := &API{
		Argon: security.New(),
	}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	a.Guests = identity.NewManager(db, nil, nil, identity.Config{
		CookieName:      viper.GetString("guest.cookie_name"),
		TokenLifetime:   time.Duration(viper.GetInt("guest.token_lifetime_days")) * 24 * time.Hour,
		TrackSourceAddr: viper.GetBool("guest.track_source_addr"),
	})
	a.Owners = identity.NewResolver(db, a.Guests)

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		}),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	a.register(router)

	return a, nil
}

// register attaches every route to r. Split out of NewRouter so tests can
// mount the same table on a bare engine.
func (a *API) register(r *gin.Engine) {
	auth := middleware.RequireAuth(a.DB)
	optionalAuth := middleware.OptionalAuth(a.DB)

	main := r.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users		-> Registers a new user
		users.POST("", a.UserRegister)

		// POST /api/users/login	-> Logs in a user, claims their guest stash
		users.POST("/login", a.UserLogin)

		// POST /api/users/logout	-> Clears the auth cookies
		users.POST("/logout", auth, a.UserLogout)
	}

	stash := main.Group("/stash", middleware.BodySizeLimiter(1<<20), optionalAuth)
	{
		// GET /api/stash		-> Lists the current owner's items
		stash.GET("", a.StashList)

		// POST /api/stash		-> Stashes a new item for the current owner
		stash.POST("", a.StashCreate)

		// PUT /api/stash/pinned	-> Upserts the owner's single pinned note
		stash.PUT("/pinned", a.StashPin)

		// GET /api/stash/:id		-> Serves an item (private ones to their owner only)
		stash.GET("/:id", a.StashFetch)

		// GET /api/stash/:id/owner	-> Tells who owns an item
		stash.GET("/:id/owner", cacheFor(30), a.StashOwner)

		// PUT /api/stash/:id		-> Edits an owned item
		stash.PUT("/:id", a.StashEdit)

		// DELETE /api/stash/:id	-> Deletes an owned item
		stash.DELETE("/:id", a.StashDelete)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
