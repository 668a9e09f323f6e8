package config

import (
	"os"
	"strconv"
	"time"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the hermes service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the HTTP API and monitoring endpoints.
// - ProviderType: The geocoding provider to use (google, nominatim, postcodes).
// - APIKey: The API key for the geocoding provider (required for Google).
// - Workers: The number of concurrent geocoding workers.
// - Interval: The duration between geocoding rounds.
// - AddrSuffix: Text appended to every address before geocoding.
// - Depot: The location every route starts from.
// - Planning: Van capacity and route length limits.
// - Database: Configuration settings for the PostgreSQL database.
// - Cache: Configuration settings for the Redis geocode cache.
type Config struct {
	Env          string             `yaml:"env"`
	Port         int                `yaml:"port"`
	ProviderType string             `yaml:"provider.type"`
	APIKey       string             `yaml:"provider.api_key"`
	Workers      int                `yaml:"geocoder.workers"`
	Interval     time.Duration      `yaml:"geocoder.interval"`
	AddrSuffix   string             `yaml:"geocoder.address_suffix"`
	Depot        models.Coordinates `yaml:"depot"`
	Planning     PlanningConfig     `yaml:"planning"`
	Database     PostgresConfig     `yaml:"postgres"`
	Cache        RedisConfig        `yaml:"redis"`
}

// PlanningConfig holds the default limits used when choosing the number of routes.
type PlanningConfig struct {
	MaxBikesPerVan      int     `yaml:"max_bikes_per_van"`
	MaxDistancePerRoute float64 `yaml:"max_distance_per_route"` // miles
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// RedisConfig holds the geocode cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

var defaults = map[string]string{
	"HERMES_ENV":                    "production",
	"HERMES_PORT":                   "8080",
	"HERMES_PROVIDER_TYPE":          "google",
	"HERMES_WORKERS":                "10",
	"HERMES_INTERVAL":               "10m",
	"HERMES_ADDRESS_SUFFIX":         ", United Kingdom",
	"HERMES_DEPOT_LAT":              "52.4690",
	"HERMES_DEPOT_LON":              "-1.8758",
	"HERMES_MAX_BIKES_PER_VAN":      "10",
	"HERMES_MAX_DISTANCE_PER_ROUTE": "600",
	"DB_PORT":                       "5432",
	"REDIS_DB":                      "0",
	"REDIS_TTL":                     "720h",
}

// MustLoad reads the configuration from the environment, an optional .env file
// and an optional YAML file named by HERMES_CONFIG_FILE. Environment values win.
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv("HERMES_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	interval, err := time.ParseDuration(v.GetString("HERMES_INTERVAL"))
	if err != nil {
		panic("failed to parse interval from configuration")
	}

	port, err := strconv.Atoi(v.GetString("HERMES_PORT"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	workers, err := strconv.Atoi(v.GetString("HERMES_WORKERS"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	return &Config{
		Env:          v.GetString("HERMES_ENV"),
		Port:         port,
		ProviderType: v.GetString("HERMES_PROVIDER_TYPE"),
		APIKey:       v.GetString("HERMES_PROVIDER_KEY"),
		Workers:      workers,
		Interval:     interval,
		AddrSuffix:   v.GetString("HERMES_ADDRESS_SUFFIX"),
		Depot:        mustDepot(v),
		Planning:     mustPlanning(v),
		Database: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		Cache: mustRedis(v),
	}
}

func mustDepot(v *viper.Viper) models.Coordinates {
	lat, err := strconv.ParseFloat(v.GetString("HERMES_DEPOT_LAT"), 64)
	if err != nil {
		panic("failed to parse depot latitude from configuration")
	}

	lon, err := strconv.ParseFloat(v.GetString("HERMES_DEPOT_LON"), 64)
	if err != nil {
		panic("failed to parse depot longitude from configuration")
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		panic("depot coordinates are out of range")
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}
}

func mustPlanning(v *viper.Viper) PlanningConfig {
	bikes, err := strconv.Atoi(v.GetString("HERMES_MAX_BIKES_PER_VAN"))
	if err != nil || bikes <= 0 {
		panic("failed to parse max bikes per van from configuration, must be a positive integer")
	}

	miles, err := strconv.ParseFloat(v.GetString("HERMES_MAX_DISTANCE_PER_ROUTE"), 64)
	if err != nil || miles <= 0 {
		panic("failed to parse max distance per route from configuration, must be a positive number")
	}

	return PlanningConfig{MaxBikesPerVan: bikes, MaxDistancePerRoute: miles}
}

func mustRedis(v *viper.Viper) RedisConfig {
	db, err := strconv.Atoi(v.GetString("REDIS_DB"))
	if err != nil {
		panic("failed to parse redis database from configuration")
	}

	ttl, err := time.ParseDuration(v.GetString("REDIS_TTL"))
	if err != nil {
		panic("failed to parse redis ttl from configuration")
	}

	return RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       db,
		TTL:      ttl,
	}
}
