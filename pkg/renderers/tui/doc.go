// Package tui runs forms in the terminal. A Session prompts for every field of
// a form.Form through a PromptDriver (survey by default), commits each answer
// with Binding.Edit so the field pipeline runs, and submits at the end.
package tui
