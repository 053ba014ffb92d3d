package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds the server's runtime configuration.  Database settings are
// only required for the mysql driver; the sqlite driver needs a file path.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBDriver   string // "mysql" or "sqlite"
	DBUser     string
	DBPass     string // may be empty
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string // database file for the sqlite driver
	JWTSecret  string // HS256 secret shared with bookingctl issue-token
	TokenTTL   int    // default lifetime of issued access tokens in minutes
}

// Load reads configuration from the environment.  Missing required values
// stop the program with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:       envStr("APP_ENV", "dev"),
		Port:      strconv.Itoa(mustInt("APP_PORT")),
		DBDriver:  strings.ToLower(envStr("DB_DRIVER", "mysql")),
		JWTSecret: must("JWT_SECRET"),
		TokenTTL:  envInt("ACCESS_TOKEN_TTL_MIN", 60),
	}
	loadDB(&cfg)
	return cfg
}

// LoadDB reads only the database settings; used by operator commands
// that never serve HTTP.
func LoadDB() Config {
	cfg := Config{DBDriver: strings.ToLower(envStr("DB_DRIVER", "mysql"))}
	loadDB(&cfg)
	return cfg
}

func loadDB(cfg *Config) {
	switch cfg.DBDriver {
	case "sqlite":
		cfg.SQLitePath = envStr("SQLITE_PATH", "booking.db")
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
