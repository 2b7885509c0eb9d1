// Package config provides shared configuration utilities.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// the key, or fallback if the variable is not set or is not an integer.
func GetEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn("Invalid integer in environment, using default.", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return n
}

// GetEnvDuration returns the duration held by the environment variable
// named by the key, in time.ParseDuration syntax, or fallback.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("Invalid duration in environment, using default.", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

// GetEnvBool returns the boolean value of the environment variable named by
// the key, or fallback.
func GetEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn("Invalid boolean in environment, using default.", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return b
}
