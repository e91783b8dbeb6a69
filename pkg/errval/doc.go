// Package errval models validation state as a tree parallel to a value tree.
// Every position is absent, a flag (false valid, true invalid), a message, or
// an array/object of child errors. An object value selected as a single unit
// may carry a scalar error at the object position.
package errval
