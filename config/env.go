package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString looks up a string override from the environment.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt looks up an integer override from the environment.
func EnvInt(name string) (int, bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s=%q: %w", name, value, err)
	}
	return parsed, true, nil
}
