// Package rules compiles declarative cross-field rules into a form validator.
// Each rule pairs a condition written in the expr language with the message
// shown when the condition holds.
package rules
