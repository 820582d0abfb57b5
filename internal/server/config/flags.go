package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophbooks/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-s", "-t", "-H", "-k", "-o", "-x", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    REST bind address (e.g. ":8000")
//	-g string    gRPC bind address (e.g. ":50051")
//	-d string    database DSN
//	-s string    JWT HMAC secret key
//	-t duration  access token validity (e.g. "360h")
//	-H string    password hash algorithm (bcrypt|argon2id)
//	-k int       bcrypt cost
//	-o string    CORS origins, separated by ';'
//	-x bool      constant-time login for unknown emails
//	-l string    log level
//
// Args are filtered with flagx.FilterArgs first, so flags owned by other
// components (like -c) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "REST address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.StringVar(&config.PasswordHashAlgorithm, "H", config.PasswordHashAlgorithm, "password hash algorithm")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	origins := fs.String("o", strings.Join(config.CrossOrigins, ";"), "CORS origins separated by ';'")
	fs.BoolVar(&config.ConstantTimeLogin, "x", config.ConstantTimeLogin, "constant-time login")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	config.CrossOrigins = splitOrigins(*origins)
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ";") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
