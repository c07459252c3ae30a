package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// Command-line flags override individual fields after Load.
type Config struct {
	OutDir     string
	DataDir    string
	RawDataDir string
	MapName    string

	NumGridlines int
	GridlinesOn  bool

	TilesURL         string
	TilesAttribution string
	CenterLat        float64
	CenterLon        float64
	Zoom             int

	HighlightColor   string
	SamplingInterval int
	FormatsFile      string

	MaxRetries int
	Workers    int
	ChromeBin  string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the given .env files (or ./.env when none are given) and returns
// a populated Config struct.
func Load(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		OutDir:     getEnv("CML_OUT_DIR", "."),
		DataDir:    getEnv("CML_DATA_DIR", "."),
		RawDataDir: getEnv("CML_RAWDATA_DIR", ""),
		MapName:    getEnv("CML_MAP_NAME", "link_map.html"),

		NumGridlines: getEnvInt("CML_GRIDLINES", 30),
		GridlinesOn:  getEnvBool("CML_GRIDLINES_ON", true),

		TilesURL:         getEnv("CML_TILES_URL", "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png"),
		TilesAttribution: getEnv("CML_TILES_ATTRIBUTION", "Map data: &copy; OpenStreetMap contributors, SRTM | Map style: &copy; OpenTopoMap (CC-BY-SA)"),
		CenterLat:        getEnvFloat("CML_CENTER_LAT", 32),
		CenterLon:        getEnvFloat("CML_CENTER_LON", 35),
		Zoom:             getEnvInt("CML_ZOOM", 8),

		HighlightColor:   getEnv("CML_HIGHLIGHT_COLOR", "pink"),
		SamplingInterval: getEnvInt("CML_INTERVAL", 15),
		FormatsFile:      getEnv("CML_FORMATS_FILE", ""),

		MaxRetries: getEnvInt("CML_MAX_RETRIES", 3),
		Workers:    getEnvInt("CML_WORKERS", 4),
		ChromeBin:  getEnv("CHROME_BIN", ""),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "cml"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "cml"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
