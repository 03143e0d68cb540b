package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-k string     active signing key id
//	-b int        bcrypt cost
//	-t duration   access token TTL (e.g., "15m")
//	-r duration   refresh token TTL (e.g., "168h")
//	-l duration   clock-skew leeway (e.g., "30s")
//	-i duration   revocation purge interval
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components (-c/-config
// belongs to the JSON layer).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-b", "-t", "-r", "-l", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ActiveKeyID, "k", config.ActiveKeyID, "active signing key id")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token TTL")
	fs.DurationVar(&config.RefreshTokenTTL, "r", config.RefreshTokenTTL, "refresh token TTL")
	fs.DurationVar(&config.ClockSkewLeeway, "l", config.ClockSkewLeeway, "clock-skew leeway")
	fs.DurationVar(&config.PurgeInterval, "i", config.PurgeInterval, "revocation purge interval")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
