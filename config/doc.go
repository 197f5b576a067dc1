// Package config loads and validates the YAML application configuration:
// dataset declarations with their golden queries, chunking bounds, embedder
// endpoint, vector store selection and promotion policy.
package config
