package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "time"

    "github.com/sirupsen/logrus" // logrus reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Sub-configs for the read-model cache, Redis,
// events and rate limiting are loaded by their own LoadXConfig functions.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    LogLevel  string // logrus level name
    LogFormat string // "text" or "json"

    RPCURL          string        // JSON-RPC endpoint of the ledger node
    ContractAddress string        // hex address of the ticketing contract
    ChainID         int64         // 0 means ask the node
    ScanConcurrency int           // parallel per-id reads during enumeration
    RPCTimeout      time.Duration // deadline applied to each read view

    WalletPrivateKey   string // hex private key; empty when unused
    WalletKeystorePath string // path to an encrypted keystore file
    WalletPassphrase   string // unlocks the keystore at boot when set

    TMDBAPIKey         string        // catalog API key
    TMDBBaseURL        string        // catalog API root
    TMDBImageBaseURL   string        // CDN prefix for posters
    TMDBBackdropURL    string        // CDN prefix for backdrops
    TMDBTimeout        time.Duration // HTTP client timeout for catalog calls

    SeatsPerRow int    // canonical seat grid width
    DisplayTZ   string // IANA zone used for date grouping and labels

    DBUser string // database username (mysql snapshot backend only)
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:       must("APP_ENV"),  // environment (dev/test/prod)
        Port:      must("APP_PORT"), // port to bind the HTTP server
        LogLevel:  getenv("LOG_LEVEL", "info"),
        LogFormat: getenv("LOG_FORMAT", "text"),

        RPCURL:          getenv("RPC_URL", "https://ethereum-sepolia-rpc.publicnode.com"),
        ContractAddress: must("CONTRACT_ADDRESS"),
        ChainID:         int64(envInt("CHAIN_ID", 0)),
        ScanConcurrency: envInt("LEDGER_SCAN_CONCURRENCY", 8),
        RPCTimeout:      envDur("RPC_TIMEOUT", 15*time.Second),

        WalletPrivateKey:   os.Getenv("WALLET_PRIVATE_KEY"),
        WalletKeystorePath: os.Getenv("WALLET_KEYSTORE_PATH"),
        WalletPassphrase:   os.Getenv("WALLET_PASSPHRASE"),

        TMDBAPIKey:       must("TMDB_API_KEY"),
        TMDBBaseURL:      getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
        TMDBImageBaseURL: getenv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
        TMDBBackdropURL:  getenv("TMDB_BACKDROP_BASE_URL", "https://image.tmdb.org/t/p/w780"),
        TMDBTimeout:      envDur("TMDB_TIMEOUT", 10*time.Second),

        SeatsPerRow: envInt("SEATS_PER_ROW", 10),
        DisplayTZ:   getenv("DISPLAY_TZ", "Asia/Jakarta"),

        DBUser: os.Getenv("DB_USER"),
        DBPass: os.Getenv("DB_PASS"),
        DBHost: getenv("DB_HOST", "localhost"),
        DBPort: getenv("DB_PORT", "3306"),
        DBName: os.Getenv("DB_NAME"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        logrus.Fatalf("missing required env var: %s", key)
    }
    return v
}
