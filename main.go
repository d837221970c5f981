package main

import (
	"bitrook/stashbin-api/api"
	"bitrook/stashbin-api/config"
	"bitrook/stashbin-api/db"
	"bitrook/stashbin-api/internal/identity"
	"bitrook/stashbin-api/internal/service"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	staleAfter := time.Duration(viper.GetInt("guest.reclaim_after_days")) * 24 * time.Hour

	if *config.ReclaimGuests {
		d, err := db.New()
		if err != nil {
			panic(err)
		}

		m := identity.NewManager(d, nil, nil, identity.Config{
			CookieName: viper.GetString("guest.cookie_name"),
		})

		n, err := m.Reclaim(staleAfter)
		if err != nil {
			panic(err)
		}

		fmt.Printf("Reclaimed %d stale guest identities\n", n)
		return
	}

	a, err := api.NewRouter()
	if err != nil {
		panic(err)
	}

	service.GuestCleanup(
		time.Duration(viper.GetInt("guest.cleanup_interval_minutes"))*time.Minute,
		staleAfter,
		a.Guests,
	)

	zap.L().Info("Server starting")

	err = a.Router.Run(fmt.Sprintf(":%d", viper.GetInt("host.port")))
	if err != nil {
		panic(err)
	}
}
