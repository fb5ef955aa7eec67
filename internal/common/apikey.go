package common

import (
	"context"
	"fmt"
	"os"

	"github.com/qiuyin/fundwatch/internal/interfaces"
)

// apiKeyEnvNames maps stored key names to their environment variables,
// checked in order.
var apiKeyEnvNames = map[string][]string{
	"gemini_api_key": {"GEMINI_API_KEY", "FUNDWATCH_GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// ResolveAPIKey resolves an API key from environment, the key-value
// store, or the config fallback, in that order.
func ResolveAPIKey(ctx context.Context, kv interfaces.KeyValueStore, name string, fallback string) (string, error) {
	if envNames, ok := apiKeyEnvNames[name]; ok {
		for _, envName := range envNames {
			if v := os.Getenv(envName); v != "" {
				return v, nil
			}
		}
	}

	if kv != nil {
		if v, err := kv.Get(ctx, name); err == nil && v != "" {
			return v, nil
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or store", name)
}
