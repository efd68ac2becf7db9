package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-k", "-rs", "-rk", "-t", "-r", "-cost", "-secure-cookie", "-redis", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":8080")
//	-d string          PostgreSQL DSN
//	-s string          access token HMAC secret
//	-k string          access token key id
//	-rs string         refresh token HMAC secret
//	-rk string         refresh token key id
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-cost int          bcrypt cost
//	-secure-cookie     mark the refresh cookie Secure
//	-redis string      Redis address for the refresh-token denylist
//	-l string          log level
//
// Duration flags are accepted as integers in minutes and then converted
// to time.Duration values. They override earlier layers only when given
// explicitly, so sub-minute lifetimes from JSON or env survive.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags, "-secure-cookie")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessSecretKey, "s", config.AccessSecretKey, "access token secret key")
	fs.StringVar(&config.AccessKeyID, "k", config.AccessKeyID, "access token key id")
	fs.StringVar(&config.RefreshSecretKey, "rs", config.RefreshSecretKey, "refresh token secret key")
	fs.StringVar(&config.RefreshKeyID, "rk", config.RefreshKeyID, "refresh token key id")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.SecureCookie, "secure-cookie", config.SecureCookie, "send the refresh cookie over HTTPS only")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for the token denylist")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
