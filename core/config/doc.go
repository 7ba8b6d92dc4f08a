// Package config provides configuration management for the flight plan bridge.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file (loaded with godotenv). Defaults come from the `default`
// struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, API key and the automatic sync schedule
//   - Source: scheduling roster endpoint and credentials (SOURCE_*)
//   - Target: flight planning endpoint and credentials (TARGET_*)
//   - Sync: window, time zones, plan defaults and cache backend (SYNC_*)
//   - Database: optional MySQL run history
//   - Storage: S3/MinIO credentials and bucket for the object cache backend
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.LocalTZ)
package config
