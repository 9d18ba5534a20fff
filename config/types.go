package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// BackendConfig contains the ERP backend REST API configuration
type BackendConfig struct {
	BaseURL    string `yaml:"baseURL" validate:"required,url"`
	TimeoutMS  int    `yaml:"timeoutMS" validate:"gte=0"`
	RetryCount int    `yaml:"retryCount" validate:"gte=0"`
}

// RedisConfig contains the optional live-position cache configuration
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr" validate:"omitempty,hostname_port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db" validate:"gte=0"`
	TTLSeconds int    `yaml:"ttlSeconds" validate:"gte=0"`
}

// PlacesConfig contains the place-autocomplete service configuration
type PlacesConfig struct {
	BaseURL   string `yaml:"baseURL" validate:"omitempty,url"`
	APIKey    string `yaml:"apiKey"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Backend BackendConfig `yaml:"backend" validate:"required"`
	Redis   RedisConfig   `yaml:"redis"`
	Places  PlacesConfig  `yaml:"places"`
}
