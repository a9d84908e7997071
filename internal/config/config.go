package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
    "strconv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for counts and
// whole-second durations.
type Config struct {
    Env                string // application environment (e.g. "dev", "prod")
    Port               string // HTTP port to listen on
    DBUser             string // database username
    DBPass             string // database password (optional)
    DBHost             string // database host address
    DBPort             string // database port number
    DBName             string // database name
    JWTSecret          string // secret used to verify gateway-issued JWTs
    MaxPanels          int    // panel ceiling per owner
    RefreshCooldownSec int    // minimum seconds between refreshes of one panel
    FetchWorkers       int    // concurrent fetches across all owners
    FetchTimeoutSec    int    // upper bound for one provider fetch
    LoadMoreClicks     int    // result-page expansions per fetch
    ChromeBin          string // explicit browser binary path (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Panel and fetch
// knobs carry defaults so a minimal .env is enough to run.
func Load() Config {
    return Config{
        Env:                must("APP_ENV"),    // environment (dev/test/prod)
        Port:               must("APP_PORT"),   // port to bind the HTTP server
        DBUser:             must("DB_USER"),    // database user
        DBPass:             os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:             must("DB_HOST"),    // database host
        DBPort:             must("DB_PORT"),    // database port
        DBName:             must("DB_NAME"),    // database name
        JWTSecret:          must("JWT_SECRET"), // secret shared with the gateway
        MaxPanels:          envInt("MAX_PANELS", 6),
        RefreshCooldownSec: envInt("REFRESH_COOLDOWN_SEC", 30),
        FetchWorkers:       envInt("FETCH_WORKERS", 8),
        FetchTimeoutSec:    envInt("FETCH_TIMEOUT_SEC", 90),
        LoadMoreClicks:     envInt("LOAD_MORE_CLICKS", 2),
        ChromeBin:          os.Getenv("CHROME_BIN"), // empty lets the fetcher probe
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
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
