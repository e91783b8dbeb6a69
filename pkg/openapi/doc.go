// Package openapi seeds forms from OpenAPI documents. The request body schema
// of an operation becomes the form's initial values and editor configuration:
// required lists, enums, numeric bounds, string formats and lengths, nullable
// objects and an x-typeform extension for editor overrides.
//
// Documents are read from files, an fs.FS or (opt-in) HTTP and parsed with
// kin-openapi.
package openapi
