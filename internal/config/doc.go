// Package config provides environment-based configuration.
//
// Loads from process environment (a .env file is applied by main via
// godotenv before Load runs). Validates required fields and secret length.
package config
