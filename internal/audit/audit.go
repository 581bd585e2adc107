// Package audit records how each CLI invocation was configured: the command
// name, the config file in use, and the operational environment variables
// that shaped the run. Secret variables are reduced to set/unset before
// logging so key material never reaches the log stream.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// auditedEnv is the ordered list of environment variables recorded with
// every command start. Order matters only for log readability.
var auditedEnv = []string{
	"MODEL_PROVIDER",
	"OLLAMA_HOST",
	"OLLAMA_MODEL",
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_DEPLOYMENT",
	"GOOGLE_API_KEY",
	"GEMINI_MODEL",
	"AWS_REGION",
	"BEDROCK_MODEL_ID",
	"EMBEDDING_PROVIDER",
	"EMBEDDING_MODEL",
	"EMBEDDING_API_KEY",
	"QDRANT_HOST",
	"QDRANT_PORT",
	"QDRANT_API_KEY",
	"DESKAI_AGENTS_FILE",
	"DESKAI_DATA_DIR",
	"RETRIEVAL_THRESHOLD",
	"RETRIEVAL_TOP_K",
	"DESKAI_API_KEY",
	"DESKAI_HISTORY_DB",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LANGFUSE_PUBLIC_KEY",
	"LANGFUSE_SECRET_KEY",
}

// secretEnvKeys marks audited variables whose values are never logged.
// Anything not listed here is logged verbatim.
var secretEnvKeys = map[string]bool{
	"OPENAI_API_KEY":        true,
	"AZURE_OPENAI_API_KEY":  true,
	"GOOGLE_API_KEY":        true,
	"EMBEDDING_API_KEY":     true,
	"QDRANT_API_KEY":        true,
	"DESKAI_API_KEY":        true,
	"LANGFUSE_PUBLIC_KEY":   true,
	"LANGFUSE_SECRET_KEY":   true,
	"AWS_SECRET_ACCESS_KEY": true,
	"AWS_SESSION_TOKEN":     true,
}

// LogCommandStart writes one structured audit entry as a CLI command begins.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := make([]slog.Attr, 0, len(auditedEnv)+2)
	attrs = append(attrs,
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	)
	for _, key := range auditedEnv {
		attrs = append(attrs, slog.String(key, SanitiseKey(key, os.Getenv(key))))
	}

	log.LogAttrs(context.TODO(), slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns a loggable form of an environment variable: set/unset
// for secret keys, the raw value otherwise, with empty values shown as
// "unset" in both cases.
func SanitiseKey(key, value string) string {
	switch {
	case value == "":
		return "unset"
	case secretEnvKeys[key]:
		return "set"
	default:
		return value
	}
}

// sanitiseConfigPath rewrites paths under the home directory to a ~-prefixed
// form and maps the empty path to "none".
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(p, home) {
		return "~" + strings.TrimPrefix(p, home)
	}
	return p
}
