// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	// ReclaimGuests makes the binary run one guest reclamation pass and exit
	ReclaimGuests = pflag.Bool("reclaim-guests", false, "Reclaims stale guest identities once and exits")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.path", "storage_path")
	v.BindEnv("storage.dsn", "storage_dsn")

	v.BindEnv("guest.cookie_name", "guest_cookie_name")
	v.BindEnv("guest.token_lifetime_days", "guest_token_lifetime_days")
	v.BindEnv("guest.track_source_addr", "guest_track_source_addr")
	v.BindEnv("guest.reclaim_after_days", "guest_reclaim_after_days")
	v.BindEnv("guest.cleanup_interval_minutes", "guest_cleanup_interval_minutes")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.path", "database.db")

	v.SetDefault("guest.cookie_name", "stash_guest")
	v.SetDefault("guest.token_lifetime_days", 365)
	v.SetDefault("guest.track_source_addr", false)
	v.SetDefault("guest.reclaim_after_days", 60)
	v.SetDefault("guest.cleanup_interval_minutes", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	switch v.GetString("storage.type") {
	case "sqlite":
		if v.GetString("storage.path") == "" {
			return errors.New("storage path can't be empty")
		}
	case "postgres":
		if v.GetString("storage.dsn") == "" {
			return errors.New("storage dsn can't be empty")
		}
	}

	if v.GetString("guest.cookie_name") == "" {
		return errors.New("guest cookie name can't be empty")
	}

	if v.GetInt("guest.token_lifetime_days") <= 0 {
		return errors.New("guest token lifetime must be bigger than 0")
	}

	if v.GetInt("guest.reclaim_after_days") <= 0 {
		return errors.New("guest reclaim threshold must be bigger than 0")
	}

	if v.GetInt("guest.cleanup_interval_minutes") <= 0 {
		return errors.New("guest cleanup interval must be bigger than 0")
	}

	return nil
}
