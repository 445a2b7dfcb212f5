// Package store defines persistence interfaces and shared store errors.
// SQL implementations live in internal/platform/postgres.
package store
