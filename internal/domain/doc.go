// Package domain defines core data models and interfaces shared across the
// engine, the stores and the CLI. It contains plain types (keys, error codes,
// persisted records) and contracts (interfaces) only.
package domain
