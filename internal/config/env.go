package config

import (
	"bufio"
	"os"
	"strings"
)

const (
	EnvListenAddr   = "SCORIA_LISTEN_ADDR"
	EnvStateBackend = "SCORIA_STATE_BACKEND"
	EnvPostgresDSN  = "SCORIA_POSTGRES_DSN"
	EnvLogLevel     = "SCORIA_LOG_LEVEL"
)

// LoadEnv reads a .env file and sets environment variables that are not
// already set. Missing files are ignored.
func LoadEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, val, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return scanner.Err()
}

func parseEnvLine(raw string) (string, string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		return key, val[1 : len(val)-1], true
	}
	// Unquoted values may carry a trailing comment.
	if idx := strings.Index(val, " #"); idx >= 0 {
		val = strings.TrimSpace(val[:idx])
	}
	return key, val, true
}

// applyEnv lets deployment secrets and endpoints override the YAML file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvListenAddr)); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStateBackend)); v != "" {
		cfg.State.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.State.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}
