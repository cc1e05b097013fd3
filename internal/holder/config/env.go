package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// parseEnv overlays Config with environment variables. API_HOST and
// API_PORT are combined into the bind address; JWT_EXPIRATION_HOURS is
// read as whole hours; the remaining durations use time.ParseDuration.
func parseEnv(c *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	host, port, err := net.SplitHostPort(c.EndpointAddrHTTP)
	if err != nil {
		host, port = "", ""
	}
	str("API_HOST", &host)
	str("API_PORT", &port)
	c.EndpointAddrHTTP = net.JoinHostPort(host, port)

	str("DATABASE_URL", &c.DatabaseDSN)
	str("JWT_SECRET_KEY", &c.SecretKey)
	str("ACAPY_ADMIN_URL", &c.AgentAdminURL)
	str("ADMIN_API_KEY", &c.AgentAPIKey)
	str("WALLET_NAME", &c.WalletName)
	str("LOG_LEVEL", &c.LogLevel)
	str("S3_ROOT_USER", &c.S3RootUser)
	str("S3_ROOT_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)
	str("DOCUMENT_SEAL_KEY", &c.DocumentSealKey)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}

	hours := int(c.AccessTokenValidityDuration.Hours())
	if err := num("JWT_EXPIRATION_HOURS", &hours); err != nil {
		return err
	}
	c.AccessTokenValidityDuration = time.Duration(hours) * time.Hour

	for key, dst := range map[string]*int{
		"BCRYPT_ROUNDS": &c.BcryptCost,
		"DB_POOL_MIN":   &c.PoolMinConns,
		"DB_POOL_MAX":   &c.PoolMaxConns,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*time.Duration{
		"DB_POOL_ACQUIRE_TIMEOUT": &c.PoolAcquireTimeout,
		"AGENT_TIMEOUT":           &c.AgentTimeout,
		"PRESIGN_VALIDITY":        &c.PresignValidityDuration,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
