// Package config loads, normalizes, and validates lectern configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file when present, and honours
// environment fallbacks such as XUNFEI_APPID and LLM_API_KEY. Always obtain
// settings through this package so downstream code receives sanitized paths
// and clear validation errors.
package config
