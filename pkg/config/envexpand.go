package config

import "os"

// ExpandEnv expands environment variables in promptforge.yaml content using
// Go's standard library. Supports both ${VAR} and $VAR syntax (standard
// shell-style), so model API keys and similar secrets never need to live in
// the YAML file itself.
//
// Examples:
//   - ${OPENAI_API_KEY} → value of OPENAI_API_KEY environment variable
//   - $PROMPTFORGE_DATA_DIR → value of PROMPTFORGE_DATA_DIR environment variable
//   - ${DB_HOST}:${DB_PORT} → hostname:port with both variables expanded
//
// Missing variables expand to empty string. Validation should catch required fields that are empty.
func ExpandEnv(data []byte) []byte {
	expanded := os.ExpandEnv(string(data))
	return []byte(expanded)
}
