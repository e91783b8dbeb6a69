// Package config reads form definition files for the typeform CLI: initial
// values (declared or seeded from an OpenAPI operation), editor configuration
// per field, cross-field rules and the offline submit behaviour.
package config
