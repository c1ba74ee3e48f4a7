package config

import (
	"github.com/spf13/viper"

	"github.com/chemviz/equipment-api/internal/db"
	"github.com/chemviz/equipment-api/internal/domain"
)

// Config is the full application configuration.
type Config struct {
	DB     db.Config
	Server ServerConfig
	App    AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// AppConfig holds the ingestion and analytics settings.
type AppConfig struct {
	// RetentionLimit is the maximum number of datasets kept per owner.
	RetentionLimit int
	// HistogramBins is the flowrate histogram bin count.
	HistogramBins int
	// MaxUploadBytes bounds accepted upload size; zero disables the check.
	MaxUploadBytes int
	// Units maps each metric to its display unit label.
	Units map[string]string
}

// Load reads config.yaml from configPath with env overrides
// (EQVIS_DATABASE_HOST and friends). Missing files are fine; defaults
// plus environment apply.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		App: AppConfig{
			RetentionLimit: 5,
			HistogramBins:  10,
			MaxUploadBytes: 5 << 20,
			Units: map[string]string{
				domain.FieldFlowrate:    "m³/h",
				domain.FieldPressure:    "bar",
				domain.FieldTemperature: "°C",
			},
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("EQVIS")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("app.retention_limit")
	v.BindEnv("app.histogram_bins")
	v.BindEnv("app.max_upload_bytes")

	// Config file is optional; defaults and env vars cover everything.
	_ = v.ReadInConfig()

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("app.retention_limit") {
		cfg.App.RetentionLimit = v.GetInt("app.retention_limit")
	}
	if v.IsSet("app.histogram_bins") {
		cfg.App.HistogramBins = v.GetInt("app.histogram_bins")
	}
	if v.IsSet("app.max_upload_bytes") {
		cfg.App.MaxUploadBytes = v.GetInt("app.max_upload_bytes")
	}
	if v.IsSet("app.units") {
		for metric, label := range v.GetStringMapString("app.units") {
			cfg.App.Units[metric] = label
		}
	}

	return cfg, nil
}
