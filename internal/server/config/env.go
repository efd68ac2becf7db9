package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by parseEnv.
const EnvPrefix = "ONBOARDING_"

// parseEnv overlays values from ONBOARDING_* environment variables. Unset
// variables leave the current value untouched. Malformed values panic,
// matching the JSON and flag layers.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
