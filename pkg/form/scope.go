package form

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/value"
)

// ObjectScope edits an object value field by field.
type ObjectScope struct {
	form     *Form
	segments []string
	path     string
	update   updater

	mu       sync.Mutex
	keys     []string
	bindings map[string]*Binding
	ordered  []*Binding
	whole    *Binding
}

func newObjectScope(f *Form, segments []string, update updater) *ObjectScope {
	return &ObjectScope{
		form:     f,
		segments: segments,
		path:     joinSegments(segments),
		update:   update,
		bindings: make(map[string]*Binding),
	}
}

// Path is the dotted path of the scope ("" for the root).
func (s *ObjectScope) Path() string { return s.path }

// Value returns the scope's current object value.
func (s *ObjectScope) Value() value.Value {
	v, _ := s.form.read(s.segments)
	return v
}

// Error returns the scope's current error.
func (s *ObjectScope) Error() errval.Error {
	_, e := s.form.read(s.segments)
	return e
}

// Fields returns one binding per key, in key order. The slice keeps its
// identity while the keys and their order are unchanged; otherwise it is
// rebuilt and surviving keys keep their binding.
func (s *ObjectScope) Fields() []*Binding {
	keys := s.Value().Keys()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ordered != nil && slices.Equal(s.keys, keys) {
		return s.ordered
	}
	next := make(map[string]*Binding, len(keys))
	ordered := make([]*Binding, 0, len(keys))
	for _, key := range keys {
		b, ok := s.bindings[key]
		if !ok {
			b = s.newBinding(key)
		}
		next[key] = b
		ordered = append(ordered, b)
	}
	s.keys = keys
	s.bindings = next
	s.ordered = ordered
	return ordered
}

// Field returns the binding for name. WholeScope returns Whole() unless the
// object has a key of that name.
func (s *ObjectScope) Field(name string) (*Binding, error) {
	if s.addressesWhole(name) {
		return s.Whole(), nil
	}
	return s.field(name)
}

func (s *ObjectScope) addressesWhole(name string) bool {
	if name != WholeScope {
		return false
	}
	_, ok := s.Value().Field(name)
	return !ok
}

// field resolves name as a key only.
func (s *ObjectScope) field(name string) (*Binding, error) {
	v := s.Value()
	if v.Kind() != value.KindObject {
		return nil, fmt.Errorf("%w: %s is %s, not an object", ErrShapeMismatch, displayPath(s.path), v.Kind())
	}
	if _, ok := v.Field(name); !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownField, name, displayPath(s.path))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[name]
	if !ok {
		b = s.newBinding(name)
		s.bindings[name] = b
	}
	return b, nil
}

// Whole returns the binding that reads and writes the scope value as a
// single unit, for selectors choosing a whole object.
func (s *ObjectScope) Whole() *Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.whole == nil {
		s.whole = &Binding{form: s.form, name: WholeScope, segments: s.segments, path: s.path, update: s.update}
	}
	return s.whole
}

// SetValue replaces exactly one key, or the whole value for WholeScope.
func (s *ObjectScope) SetValue(name string, v value.Value) error {
	b, err := s.writable(name)
	if err != nil {
		return err
	}
	return b.SetValue(v)
}

// SetError merges exactly one key into the scope error, or replaces the whole
// scope error for WholeScope.
func (s *ObjectScope) SetError(name string, e errval.Error) error {
	b, err := s.writable(name)
	if err != nil {
		return err
	}
	return b.SetError(e)
}

// writable resolves a binding for a write; unlike Field it accepts new keys.
func (s *ObjectScope) writable(name string) (*Binding, error) {
	if s.addressesWhole(name) {
		return s.Whole(), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bindings[name]; ok {
		return b, nil
	}
	return s.newBinding(name), nil
}

func (s *ObjectScope) newBinding(name string) *Binding {
	segments := childSegments(s.segments, name)
	return &Binding{
		form:     s.form,
		name:     name,
		segments: segments,
		path:     joinSegments(segments),
		update:   keyUpdater(s.update, name),
	}
}

// ArrayScope edits an array value item by item.
type ArrayScope struct {
	form     *Form
	segments []string
	path     string
	update   updater

	mu       sync.Mutex
	bindings []*Binding
}

func newArrayScope(f *Form, segments []string, update updater) *ArrayScope {
	return &ArrayScope{form: f, segments: segments, path: joinSegments(segments), update: update}
}

// Item is one array element as handed to an item editor.
type Item struct {
	Index   int
	IsFirst bool
	IsLast  bool
	Binding *Binding

	scope *ArrayScope
	value value.Value
}

// Value is the item value at the time Items was called.
func (it Item) Value() value.Value { return it.value }

// Remove removes every item structurally equal to this one.
func (it Item) Remove() error {
	return it.scope.Remove(it.value)
}

// Path is the dotted path of the scope.
func (s *ArrayScope) Path() string { return s.path }

// Value returns the scope's current array value.
func (s *ArrayScope) Value() value.Value {
	v, _ := s.form.read(s.segments)
	return v
}

// Error returns the scope's current error.
func (s *ArrayScope) Error() errval.Error {
	_, e := s.form.read(s.segments)
	return e
}

// Len returns the current number of items.
func (s *ArrayScope) Len() int { return s.Value().Len() }

// Items returns the items with their bindings. Bindings keep their identity
// while the length is unchanged; any length change rebuilds all of them so no
// editor state follows an item to another index.
func (s *ArrayScope) Items() []Item {
	items := s.Value().Items()
	bindings := s.resize(len(items))

	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = Item{
			Index:   i,
			IsFirst: i == 0,
			IsLast:  i == len(items)-1,
			Binding: bindings[i],
			scope:   s,
			value:   item,
		}
	}
	return out
}

func (s *ArrayScope) resize(n int) []*Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bindings) == n {
		return s.bindings
	}
	next := make([]*Binding, n)
	for i := range next {
		segments := childSegments(s.segments, strconv.Itoa(i))
		next[i] = &Binding{
			form:     s.form,
			name:     strconv.Itoa(i),
			segments: segments,
			path:     joinSegments(segments),
			update:   indexUpdater(s.update, i),
		}
	}
	s.bindings = next
	return next
}

func (s *ArrayScope) item(i int) (*Binding, error) {
	n := s.Len()
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: index %d in %s (len %d)", ErrUnknownField, i, displayPath(s.path), n)
	}
	return s.resize(n)[i], nil
}

// SetValue replaces exactly one item; every other item and its error slot is
// kept.
func (s *ArrayScope) SetValue(i int, v value.Value) error {
	b, err := s.item(i)
	if err != nil {
		return err
	}
	return b.SetValue(v)
}

// SetError replaces the error slot of one item. Slots may be left sparse.
func (s *ArrayScope) SetError(i int, e errval.Error) error {
	b, err := s.item(i)
	if err != nil {
		return err
	}
	return b.SetError(e)
}

// Add appends v.
func (s *ArrayScope) Add(v value.Value) error {
	return s.AddContext(context.Background(), v)
}

// AddContext is Add with a context for the on-change form validator.
func (s *ArrayScope) AddContext(ctx context.Context, v value.Value) error {
	op := operation{ctx: ctx, path: s.path, valueChanged: true, clearMessage: true}
	return s.update(op, func(cv value.Value, ce errval.Error) (value.Value, errval.Error, error) {
		next, err := cv.Append(v)
		if err != nil {
			return cv, ce, fmt.Errorf("%w: %s: %w", ErrShapeMismatch, displayPath(s.path), err)
		}
		s.form.invalidate(s.segments)
		return next, ce, nil
	})
}

// Remove removes every item structurally equal to v, together with its error
// slot. Removing a value that is not present changes nothing. Callers that
// need positional removal with duplicate values must track identity
// themselves.
func (s *ArrayScope) Remove(v value.Value) error {
	return s.RemoveContext(context.Background(), v)
}

// RemoveContext is Remove with a context for the on-change form validator.
func (s *ArrayScope) RemoveContext(ctx context.Context, v value.Value) error {
	current := s.Value()
	if current.Kind() != value.KindArray {
		return fmt.Errorf("%w: %s is %s, not an array", ErrShapeMismatch, displayPath(s.path), current.Kind())
	}
	if !containsEqual(current, v) {
		return nil
	}
	op := operation{ctx: ctx, path: s.path, valueChanged: true, clearMessage: true}
	return s.update(op, func(cv value.Value, ce errval.Error) (value.Value, errval.Error, error) {
		next, removed, err := cv.Without(func(item value.Value) bool {
			return value.Equal(item, v)
		})
		if err != nil {
			return cv, ce, fmt.Errorf("%w: %s: %w", ErrShapeMismatch, displayPath(s.path), err)
		}
		s.form.invalidate(s.segments)
		s.form.shiftRemoved(s.segments, removed)
		return next, ce.WithoutAt(removed...), nil
	})
}

func containsEqual(arr value.Value, v value.Value) bool {
	for _, item := range arr.Items() {
		if value.Equal(item, v) {
			return true
		}
	}
	return false
}

func childSegments(parent []string, name string) []string {
	out := make([]string, len(parent), len(parent)+1)
	copy(out, parent)
	return append(out, name)
}

func joinSegments(segments []string) string {
	return strings.Join(segments, ".")
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
