// Package form is the form controller. A Form owns one object value tree and
// its parallel error tree; ObjectScope and ArrayScope hand out Bindings for
// the positions below it. Every write is re-expressed as "replace my
// position" on the parent and ends at the form's single updater, so sibling
// values and errors are never touched.
//
// Field validation runs through validation.Evaluate. Rules come from
// WithRules or are derived from an editor.Config passed with WithConfig.
// Submit runs the optional whole-form validator, refuses while any stored
// error is invalid and otherwise hands the values to the SubmitFunc.
package form
