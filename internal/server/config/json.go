package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authgate/internal/flagx"
	"github.com/dmitrijs2005/authgate/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Duration fields accept both strings ("15m") and
// integer nanoseconds. After unmarshalling, set fields are copied into the
// runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP        string            `json:"endpoint_addr_http"`
	DatabaseDSN             string            `json:"database_dsn"`
	BcryptCost              int               `json:"bcrypt_cost"`
	AccessTokenTTL          timex.Duration    `json:"access_token_ttl"`
	RefreshTokenTTL         timex.Duration    `json:"refresh_token_ttl"`
	ClockSkewLeeway         timex.Duration    `json:"clock_skew_leeway"`
	ActiveKeyID             string            `json:"active_key_id"`
	SigningKeys             map[string]string `json:"signing_keys"`
	CheckRevocationOnAccess *bool             `json:"check_revocation_on_access"`
	PurgeInterval           timex.Duration    `json:"purge_interval"`
	KeySource               string            `json:"key_source"`
	S3RootUser              string            `json:"s3_root_user"`
	S3RootPassword          string            `json:"s3_root_password"`
	S3Bucket                string            `json:"s3_bucket"`
	S3Region                string            `json:"s3_region"`
	S3BaseEndpoint          string            `json:"s3_base_endpoint"`
	S3KeysObject            string            `json:"s3_keys_object"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c/-config flags; if absent, no file
// is loaded. Unreadable or invalid files panic: starting with half-applied
// configuration is worse than not starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.ClockSkewLeeway.Duration != 0 {
		config.ClockSkewLeeway = c.ClockSkewLeeway.Duration
	}
	if c.ActiveKeyID != "" {
		config.ActiveKeyID = c.ActiveKeyID
	}
	if len(c.SigningKeys) != 0 {
		config.SigningKeys = c.SigningKeys
	}
	if c.CheckRevocationOnAccess != nil {
		config.CheckRevocationOnAccess = *c.CheckRevocationOnAccess
	}
	if c.PurgeInterval.Duration != 0 {
		config.PurgeInterval = c.PurgeInterval.Duration
	}
	if c.KeySource != "" {
		config.KeySource = c.KeySource
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.S3KeysObject != "" {
		config.S3KeysObject = c.S3KeysObject
	}
}
