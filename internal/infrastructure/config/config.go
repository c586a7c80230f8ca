package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel string
	// DevToolsURL is the browser debugger websocket endpoint for live
	// capture. When empty, events are read from InputFile instead.
	DevToolsURL string
	// InputFile is an NDJSON event log ("-" for stdin).
	InputFile string
	// OutputFile receives the archive JSON ("-" or "" for stdout).
	OutputFile string

	IncludeDiskCache      bool
	IncludeResponseBodies bool
	MimicChromeHAR        bool
	RedactSensitive       bool

	// BodyMaxBytes caps each response body fetched over the live
	// connection; larger bodies are skipped.
	BodyMaxBytes int
}

func FromEnv() Config {
	cfg := Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DevToolsURL: getEnv("DEVTOOLS_URL", ""),
		InputFile:   getEnv("INPUT", "-"),
		OutputFile:  getEnv("OUTPUT", "-"),
	}
	cfg.IncludeDiskCache = getEnvBool("INCLUDE_DISK_CACHE")
	cfg.IncludeResponseBodies = getEnvBool("INCLUDE_RESPONSE_BODIES")
	cfg.MimicChromeHAR = getEnvBool("MIMIC_CHROME_HAR")
	cfg.RedactSensitive = getEnvBool("REDACT_SENSITIVE")
	cfg.BodyMaxBytes = getEnvInt("BODY_MAX_BYTES", 8<<20) // 8MB
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true"
}
