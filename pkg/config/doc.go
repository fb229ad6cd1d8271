// Package config loads typed configuration structs from environment
// variables, with optional .env bootstrap for local development.
package config
