package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

var (
	// ErrNotObject is returned when the root values are not an object.
	ErrNotObject = errors.New("form: values must be an object")
	// ErrShapeMismatch is returned when a scope's value no longer has the
	// shape the scope edits.
	ErrShapeMismatch = errors.New("form: value shape mismatch")
	// ErrUnknownField is returned for names outside a scope's key set.
	ErrUnknownField = errors.New("form: unknown field")

	errStale = errors.New("form: stale validation result")
)

// WholeScope is the reserved field name addressing a scope's whole value.
const WholeScope = "$"

// SubmitFunc receives the values of a valid form and returns the message to
// display, or "" for none.
type SubmitFunc func(ctx context.Context, values value.Value) string

// State is a snapshot of the aggregate form state.
type State struct {
	Values    value.Value
	Errors    errval.Error
	Message   string
	IsValid   bool
	IsChanged bool
}

// Form owns the root value and error trees. Every write funnels through one
// mutex; scopes and bindings only ever ask their parent to replace their own
// position.
type Form struct {
	mu      sync.Mutex
	initial value.Value
	values  value.Value
	errors  errval.Error
	message string

	// owned remembers the last error the field pipeline wrote per path, so
	// externally pushed errors can be told apart. Both maps are keyed by
	// pathKey.
	owned map[string]errval.Error
	seq   map[string]uint64
	tick  uint64

	rules            map[string]validation.Rules
	config           *editor.Config
	validator        validation.FormValidator
	validateOnChange bool
	validateOnSubmit bool
	onChange         func(State)
	submit           SubmitFunc
	logger           *slog.Logger

	root *ObjectScope
}

// New builds a form over initial, which must be an object.
func New(initial value.Value, submit SubmitFunc, opts ...Option) (*Form, error) {
	if initial.Kind() != value.KindObject {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, initial.Kind())
	}
	f := &Form{
		initial: initial,
		values:  initial,
		owned:   make(map[string]errval.Error),
		seq:     make(map[string]uint64),
		rules:   make(map[string]validation.Rules),
		submit:  submit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.config != nil {
		if err := f.config.Check(); err != nil {
			return nil, fmt.Errorf("form: config: %w", err)
		}
	}
	f.root = newObjectScope(f, nil, f.update)
	return f, nil
}

// Values returns the current value tree.
func (f *Form) Values() value.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Initial returns the declared initial values.
func (f *Form) Initial() value.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initial
}

// Errors returns the current error tree.
func (f *Form) Errors() errval.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors
}

// Message returns the form-level message ("" when none).
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// IsValid reports whether no error in the tree signals invalid.
func (f *Form) IsValid() bool {
	return errval.IsValid(f.Errors())
}

// IsChanged reports whether the values differ from the declared initial
// values.
func (f *Form) IsChanged() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !value.Equal(f.initial, f.values)
}

// State returns a consistent snapshot of the aggregate state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Form) stateLocked() State {
	return State{
		Values:    f.values,
		Errors:    f.errors,
		Message:   f.message,
		IsValid:   errval.IsValid(f.errors),
		IsChanged: !value.Equal(f.initial, f.values),
	}
}

// Config returns the editor configuration the form was built with.
func (f *Form) Config() editor.Config {
	if f.config == nil {
		return editor.Config{}
	}
	return *f.config
}

// Scope returns the root object scope.
func (f *Form) Scope() *ObjectScope { return f.root }

// Field resolves the binding at a dotted path ("owner.email", "items.0").
// Keys containing dots or surrounding spaces need FieldAt.
func (f *Form) Field(path string) (*Binding, error) {
	segments := value.SplitPath(path)
	if len(segments) == 1 {
		return f.root.Field(segments[0])
	}
	return f.FieldAt(segments...)
}

// FieldAt resolves the binding at a path given as raw keys and indices. No
// segment is trimmed, split or read as WholeScope.
func (f *Form) FieldAt(segments ...string) (*Binding, error) {
	if len(segments) == 0 {
		return f.root.Whole(), nil
	}
	b, err := f.root.field(segments[0])
	if err != nil {
		return nil, err
	}
	for _, segment := range segments[1:] {
		b, err = b.child(segment)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// SetInitial supplies a new initial-values snapshot. When its content differs
// from the current one the form resets: values, errors, message and
// validation bookkeeping. It reports whether a reset happened.
func (f *Form) SetInitial(initial value.Value) (bool, error) {
	if initial.Kind() != value.KindObject {
		return false, fmt.Errorf("%w: got %s", ErrNotObject, initial.Kind())
	}
	f.mu.Lock()
	if value.Equal(f.initial, initial) {
		f.mu.Unlock()
		return false, nil
	}
	f.initial = initial
	f.values = initial
	f.errors = errval.None()
	f.message = ""
	f.owned = make(map[string]errval.Error)
	// in-flight validations become stale
	for key := range f.seq {
		f.seq[key] = f.nextTicket()
	}
	state := f.stateLocked()
	f.mu.Unlock()

	f.logger.Debug("form reset", slog.Int("fields", initial.Len()))
	f.notify(state)
	return true, nil
}

// ApplyPayload merges a server error payload into the error tree and stores
// its form-level messages as the form message. It returns those messages.
func (f *Form) ApplyPayload(payload map[string][]string) []string {
	f.mu.Lock()
	mapped, formLevel := errval.MapPayload(f.values, payload)
	f.errors = errval.Merge(f.errors, mapped)
	f.message = strings.Join(formLevel, " ")
	state := f.stateLocked()
	f.mu.Unlock()

	f.logger.Debug("form payload applied",
		slog.Int("field_errors", len(errval.Paths(mapped))),
		slog.Int("form_errors", len(formLevel)),
	)
	f.notify(state)
	return formLevel
}

func (f *Form) notify(state State) {
	if f.onChange != nil {
		f.onChange(state)
	}
}

// operation describes a write travelling up to the root.
type operation struct {
	ctx          context.Context
	path         string
	valueChanged bool
	clearMessage bool
}

// mutation rewrites the value and error at one position.
type mutation func(v value.Value, e errval.Error) (value.Value, errval.Error, error)

// updater applies a mutation at a fixed position of the tree.
type updater func(op operation, fn mutation) error

// update is the root updater, the single serialization point for writes.
func (f *Form) update(op operation, fn mutation) error {
	f.mu.Lock()
	values, errs, err := fn(f.values, f.errors)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if values.Kind() != value.KindObject {
		f.mu.Unlock()
		return fmt.Errorf("%w: root write of %s", ErrNotObject, values.Kind())
	}
	f.values = values
	f.errors = errs
	if op.clearMessage {
		f.message = ""
	}
	state := f.stateLocked()
	f.mu.Unlock()

	if op.valueChanged {
		f.logger.Debug("form value set", slog.String("path", op.path))
		if f.validateOnChange && f.validator != nil {
			state = f.runChangeValidator(op.ctx)
		}
	}
	f.notify(state)
	return nil
}

// runChangeValidator runs the form validator after an edit. A rejection
// replaces the error tree; otherwise the advisory message (or none) becomes
// the form message.
func (f *Form) runChangeValidator(ctx context.Context) State {
	if ctx == nil {
		ctx = context.Background()
	}
	verdict := f.validator(ctx, f.Values())

	f.mu.Lock()
	defer f.mu.Unlock()
	if verdict.Rejected() {
		f.errors = verdict.Errors()
		f.message = ""
	} else {
		f.message = verdict.Message()
	}
	return f.stateLocked()
}

func keyUpdater(parent updater, key string) updater {
	return func(op operation, fn mutation) error {
		return parent(op, func(pv value.Value, pe errval.Error) (value.Value, errval.Error, error) {
			if pv.Kind() != value.KindObject {
				return pv, pe, fmt.Errorf("%w: %s is %s, not an object", ErrShapeMismatch, op.path, pv.Kind())
			}
			cv, _ := pv.Field(key)
			ce := pe.Child(key)
			nv, ne, err := fn(cv, ce)
			if err != nil {
				return pv, pe, err
			}
			next, err := pv.With(key, nv)
			if err != nil {
				return pv, pe, err
			}
			if !errval.Equal(ne, ce) && !shadowed(pe, ne) {
				pe = pe.WithChild(key, ne)
			}
			return next, pe, nil
		})
	}
}

func indexUpdater(parent updater, index int) updater {
	return func(op operation, fn mutation) error {
		return parent(op, func(pv value.Value, pe errval.Error) (value.Value, errval.Error, error) {
			if pv.Kind() != value.KindArray {
				return pv, pe, fmt.Errorf("%w: %s is %s, not an array", ErrShapeMismatch, op.path, pv.Kind())
			}
			cv, ok := pv.Index(index)
			if !ok {
				return pv, pe, fmt.Errorf("%w: %s: %w", ErrShapeMismatch, op.path, value.ErrIndexRange)
			}
			ce := pe.At(index)
			nv, ne, err := fn(cv, ce)
			if err != nil {
				return pv, pe, err
			}
			next, err := pv.WithIndex(index, nv)
			if err != nil {
				return pv, pe, err
			}
			if !errval.Equal(ne, ce) && !shadowed(pe, ne) {
				pe = pe.WithAt(index, ne)
			}
			return next, pe, nil
		})
	}
}

// shadowed reports whether writing child would only erase an invalid flag or
// message held by the whole parent.
func shadowed(parent, child errval.Error) bool {
	scalar := parent.Kind() == errval.KindFlag || parent.Kind() == errval.KindMessage
	return scalar && !errval.IsValid(parent) && errval.IsValid(child)
}
