// Package editor is the contract between the form core and the widgets that
// render it. It classifies values into editor kinds, selects widgets through
// a priority registry, derives validation rules from editor configuration,
// and provides the text buffers number and date editors keep while the user
// types.
package editor
