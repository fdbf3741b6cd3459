// Package config holds the checker configuration: defaults, functional
// options, YAML loading with environment substitution, and validation.
//
// The search credential has no default. It comes from SERPAPI_API_KEY
// (which the CLI may populate from a .env file) or from a ${VAR}
// reference in the YAML file.
package config
