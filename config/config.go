package config

import "github.com/caarlos0/env/v6"

type Config struct {
	Server struct {
		// Port the API listens on
		Port int `env:"SERVER_PORT" envDefault:"5260"`

		// Path to the sqlite database file
		DBPath string `env:"DB_PATH" envDefault:"database/homeradar.db"`

		// Allowed CORS origins, comma separated
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	}

	Geocoding struct {
		// Nominatim-compatible endpoint
		BaseURL string `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`

		// Country restriction for all geocoding queries
		CountryCode string `env:"GEOCODER_COUNTRY" envDefault:"cz"`

		UserAgent string `env:"GEOCODER_USER_AGENT" envDefault:"HomeRadar Listing Search/1.0"`

		// Request timeout in seconds
		Timeout int `env:"GEOCODER_TIMEOUT" envDefault:"8"`

		// Minimum spacing between bulk geocoding calls in milliseconds.
		// Nominatim bans clients above 1 req/s.
		MinIntervalMs int `env:"GEOCODER_MIN_INTERVAL_MS" envDefault:"1000"`
	}

	Routing struct {
		// OSRM-compatible endpoint
		BaseURL string `env:"ROUTER_BASE_URL" envDefault:"https://router.project-osrm.org"`

		Profile string `env:"ROUTER_PROFILE" envDefault:"driving"`

		// Request timeout in seconds
		Timeout int `env:"ROUTER_TIMEOUT" envDefault:"8"`
	}

	Corridor struct {
		// Accepted buffer distance bounds in meters
		MinBufferMeters float64 `env:"CORRIDOR_MIN_BUFFER_M" envDefault:"100"`
		MaxBufferMeters float64 `env:"CORRIDOR_MAX_BUFFER_M" envDefault:"50000"`
	}

	Enrichment struct {
		// Run the bulk geocoder in the background
		Enabled bool `env:"ENRICH_ENABLED" envDefault:"true"`

		// Minutes between background enrichment runs
		IntervalMinutes int `env:"ENRICH_INTERVAL_MINUTES" envDefault:"30"`

		// Listings geocoded per background run
		BatchSize int `env:"ENRICH_BATCH_SIZE" envDefault:"50"`
	}

	BatchProcessing struct {
		// Maximum number of listings to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
