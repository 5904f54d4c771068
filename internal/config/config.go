package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Logger    Logger    `mapstructure:"logger"`
	Database  Database  `mapstructure:"database"`
	PriceFeed PriceFeed `mapstructure:"pricefeed"`
	Trading   Trading   `mapstructure:"trading"`
	Auth      Auth      `mapstructure:"auth"`
	Admin     Admin     `mapstructure:"admin"`
}

// Server holds the configuration for the HTTP API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// PriceFeed selects and tunes the market data source.
type PriceFeed struct {
	Mode           string  `mapstructure:"mode"` // "coingecko" or "simulated"
	BaseURL        string  `mapstructure:"base_url"`
	VsCurrency     string  `mapstructure:"vs_currency"`
	PollInterval   int     `mapstructure:"poll_interval"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Payout binds a trade duration to the profit rate paid on a win.
type Payout struct {
	Seconds int     `mapstructure:"seconds"`
	Rate    float64 `mapstructure:"rate"`
}

// CoinSeed describes a coin to list on the ticker.
type CoinSeed struct {
	ID     string `mapstructure:"id"`
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
	Icon   string `mapstructure:"icon"`
}

// Trading holds the configuration for the trade engine.
type Trading struct {
	TickInterval   int        `mapstructure:"tick_interval"`
	OutcomePolicy  string     `mapstructure:"outcome_policy"` // "coinflip" or "pricedelta"
	WinProbability float64    `mapstructure:"win_probability"`
	Payouts        []Payout   `mapstructure:"payouts"`
	Coins          []CoinSeed `mapstructure:"coins"`
}

// Auth holds the configuration for registration and sessions.
type Auth struct {
	JWTSecret       string  `mapstructure:"jwt_secret"`
	TokenTTLMinutes int     `mapstructure:"token_ttl_minutes"`
	StartingBalance float64 `mapstructure:"starting_balance"`
}

// Admin holds the admin console credentials.
type Admin struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DefaultPayouts is the duration→rate table used when the config file
// does not override it. Shorter horizons pay a higher rate.
func DefaultPayouts() []Payout {
	return []Payout{
		{Seconds: 60, Rate: 0.5},
		{Seconds: 120, Rate: 0.4},
		{Seconds: 180, Rate: 0.3},
		{Seconds: 300, Rate: 0.2},
	}
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("pricefeed.mode", "simulated")
	viper.SetDefault("pricefeed.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("pricefeed.vs_currency", "usd")
	viper.SetDefault("pricefeed.poll_interval", 10)
	viper.SetDefault("pricefeed.rate_limit", 5) // requests per second
	viper.SetDefault("pricefeed.rate_limit_burst", 2)
	viper.SetDefault("trading.tick_interval", 1)
	viper.SetDefault("trading.outcome_policy", "coinflip")
	viper.SetDefault("trading.win_probability", 0.5)
	viper.SetDefault("auth.token_ttl_minutes", 720)
	viper.SetDefault("auth.starting_balance", 0)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if len(config.Trading.Payouts) == 0 {
		config.Trading.Payouts = DefaultPayouts()
	}
	return
}
