// Package config provides configuration management for the catalog manager.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file, with defaults supplied through struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, body limit)
//   - Database: MySQL connection details for the catalog store
//   - Cache: Redis connection details for the listing cache
//   - Storage: S3/MinIO credentials and bucket settings for import reports
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
