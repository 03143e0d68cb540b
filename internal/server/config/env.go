package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays values from environment variables onto the Config.
// Only variables that are actually set override the current values; see
// the env struct tags on Config for the variable names. SIGNING_KEYS uses
// the map syntax, e.g. "k1:secret-one,k2:secret-two".
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
