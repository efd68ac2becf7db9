package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/onboarding/internal/flagx"
	"github.com/dmitrijs2005/onboarding/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for lifetimes, which accepts both duration strings
// such as "15m" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from "zero", so a partial file only
// overrides the keys it contains.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	AccessSecretKey              *string         `json:"access_secret_key"`
	AccessKeyID                  *string         `json:"access_key_id"`
	PreviousAccessKeys           []string        `json:"previous_access_keys"`
	RefreshSecretKey             *string         `json:"refresh_secret_key"`
	RefreshKeyID                 *string         `json:"refresh_key_id"`
	PreviousRefreshKeys          []string        `json:"previous_refresh_keys"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	SecureCookie                 *bool           `json:"secure_cookie"`
	RedisAddr                    *string         `json:"redis_addr"`
	RedisPassword                *string         `json:"redis_password"`
	RedisDB                      *int            `json:"redis_db"`
	LogLevel                     *string         `json:"log_level"`
	GinMode                      *string         `json:"gin_mode"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flag; when it
// is not set, nothing is loaded. Unreadable files or invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessSecretKey, c.AccessSecretKey)
	setString(&config.AccessKeyID, c.AccessKeyID)
	setString(&config.RefreshSecretKey, c.RefreshSecretKey)
	setString(&config.RefreshKeyID, c.RefreshKeyID)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.GinMode, c.GinMode)

	if c.PreviousAccessKeys != nil {
		config.PreviousAccessKeys = c.PreviousAccessKeys
	}
	if c.PreviousRefreshKeys != nil {
		config.PreviousRefreshKeys = c.PreviousRefreshKeys
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.SecureCookie != nil {
		config.SecureCookie = *c.SecureCookie
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
