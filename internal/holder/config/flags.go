package config

import (
	"flag"
	"io"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/flagx"
)

var ownFlags = []string{
	"-a", "-d", "-s", "-t", "-k", "-x", "-w", "-l",
	"-pool-min", "-pool-max",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   REST bind address (e.g., "0.0.0.0:8002")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret key
//	-t int      access token validity, minutes
//	-k string   agent admin API URL
//	-x string   agent admin API key
//	-w string   wallet name
//	-l string   log level
//	-pool-min int, -pool-max int  store pool bounds
//	-u/-p/-b/-g/-e string  S3 user, password, bucket, region, endpoint
//
// args are filtered with flagx.FilterArgs first so flags owned by other
// components do not cause parse failures.
func parseFlags(config *Config, args []string) error {
	filtered := flagx.FilterArgs(args, ownFlags)

	fs := flag.NewFlagSet("holder", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.AgentAdminURL, "k", config.AgentAdminURL, "agent admin API URL")
	fs.StringVar(&config.AgentAPIKey, "x", config.AgentAPIKey, "agent admin API key")
	fs.StringVar(&config.WalletName, "w", config.WalletName, "wallet name")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.PoolMinConns, "pool-min", config.PoolMinConns, "minimum pooled connections")
	fs.IntVar(&config.PoolMaxConns, "pool-max", config.PoolMaxConns, "maximum pooled connections")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(filtered); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	return nil
}
