// Package config loads workmate settings.
//
// Sources, from highest to lowest precedence:
//  1. command-line flags that were explicitly set
//  2. environment variables (GOOGLE_CLIENT_ID, LLM_PROVIDER, ...)
//  3. the YAML file given with --config
//  4. built-in defaults
package config
