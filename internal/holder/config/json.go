package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/timex"
)

// JsonConfig is the on-disk shape of a configuration file. Durations accept
// both strings such as "15s" and integer nanoseconds. Fields left out of
// the file keep the value they already had.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	PoolMinConns                *int           `json:"pool_min_conns"`
	PoolMaxConns                int            `json:"pool_max_conns"`
	PoolAcquireTimeout          timex.Duration `json:"pool_acquire_timeout"`
	AgentAdminURL               string         `json:"agent_admin_url"`
	AgentAPIKey                 string         `json:"agent_api_key"`
	AgentTimeout                timex.Duration `json:"agent_timeout"`
	WalletName                  string         `json:"wallet_name"`
	LogLevel                    string         `json:"log_level"`
	CORSOrigins                 []string       `json:"cors_origins"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	PresignValidityDuration     timex.Duration `json:"presign_validity_duration"`
	DocumentSealKey             string         `json:"document_seal_key"`
}

// parseJSON loads path, when set, and overlays its values onto config.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AgentAdminURL, c.AgentAdminURL)
	setString(&config.AgentAPIKey, c.AgentAPIKey)
	setString(&config.WalletName, c.WalletName)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.DocumentSealKey, c.DocumentSealKey)

	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.PoolMinConns != nil {
		config.PoolMinConns = *c.PoolMinConns
	}
	if c.PoolMaxConns != 0 {
		config.PoolMaxConns = c.PoolMaxConns
	}
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}

	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.PoolAcquireTimeout, c.PoolAcquireTimeout)
	setDuration(&config.AgentTimeout, c.AgentTimeout)
	setDuration(&config.PresignValidityDuration, c.PresignValidityDuration)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
