// Package validation holds the built-in field validators, the per-field
// pipeline that decides what error a field stores, and the verdict type
// returned by whole-form validators.
package validation
