package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

// Binding is the accessor pair for one position of the value tree: it reads
// the value and error stored there and writes them back through the parent
// scope.
type Binding struct {
	form     *Form
	name     string
	segments []string
	path     string
	update   updater

	mu     sync.Mutex
	object *ObjectScope
	array  *ArrayScope
}

// Name is the key or index the binding was created for.
func (b *Binding) Name() string { return b.name }

// Path is the dotted path from the form root, for display. Keys containing
// dots make it ambiguous; Segments is exact.
func (b *Binding) Path() string { return b.path }

// Segments returns the keys and indices leading from the form root to the
// binding.
func (b *Binding) Segments() []string { return slices.Clone(b.segments) }

// Value returns the current value.
func (b *Binding) Value() value.Value {
	v, _ := b.form.read(b.segments)
	return v
}

// Error returns the current error.
func (b *Binding) Error() errval.Error {
	_, e := b.form.read(b.segments)
	return e
}

// Kind classifies the current value.
func (b *Binding) Kind() value.Kind { return b.Value().Kind() }

// SetValue replaces the value and clears the form message.
func (b *Binding) SetValue(v value.Value) error {
	return b.setValue(context.Background(), v)
}

func (b *Binding) setValue(ctx context.Context, v value.Value) error {
	op := operation{ctx: ctx, path: b.path, valueChanged: true, clearMessage: true}
	return b.update(op, func(_ value.Value, e errval.Error) (value.Value, errval.Error, error) {
		b.form.invalidate(b.segments)
		return v, e, nil
	})
}

// SetError replaces the error. The form message is left alone.
func (b *Binding) SetError(e errval.Error) error {
	op := operation{ctx: context.Background(), path: b.path}
	return b.update(op, func(v value.Value, _ errval.Error) (value.Value, errval.Error, error) {
		return v, e, nil
	})
}

// Validate runs the field pipeline against the current value and stores the
// outcome. A result computed against a value that was replaced or reset in
// the meantime is dropped.
func (b *Binding) Validate(ctx context.Context) validation.Result {
	f := b.form
	key := pathKey(b.segments)

	f.mu.Lock()
	ticket := f.nextTicket()
	f.seq[key] = ticket
	v, _ := value.GetAt(f.values, b.segments...)
	stored := errval.GetAt(f.errors, b.segments...)
	external := !stored.IsAbsent() && !errval.Equal(stored, f.owned[key])
	rules := f.rulesFor(b.segments, v)
	f.mu.Unlock()

	outcome := validation.Evaluate(ctx, v, stored, external, rules)
	if !outcome.Write {
		return outcome.Result
	}

	op := operation{ctx: ctx, path: b.path}
	err := b.update(op, func(cv value.Value, ce errval.Error) (value.Value, errval.Error, error) {
		// runs under the form lock
		if f.seq[key] != ticket {
			return cv, ce, errStale
		}
		f.owned[key] = outcome.Computed
		return cv, outcome.Computed, nil
	})
	switch {
	case errors.Is(err, errStale):
		f.logger.Debug("form validation dropped", slog.String("path", b.path), slog.Uint64("ticket", ticket))
	case err != nil:
		f.logger.Debug("form validation not stored", slog.String("path", b.path), slog.Any("error", err))
	default:
		f.logger.Debug("form field validated",
			slog.String("path", b.path),
			slog.Bool("valid", outcome.Result.Valid),
		)
	}
	return outcome.Result
}

// Edit sets the value and validates it, the way an editor commits a change.
func (b *Binding) Edit(ctx context.Context, v value.Value) (validation.Result, error) {
	if err := b.setValue(ctx, v); err != nil {
		return validation.Result{}, err
	}
	return b.Validate(ctx), nil
}

// Object returns the scope editing this binding's object value.
func (b *Binding) Object() (*ObjectScope, error) {
	if k := b.Kind(); k != value.KindObject {
		return nil, fmt.Errorf("%w: %s is %s, not an object", ErrShapeMismatch, displayPath(b.path), k)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.object == nil {
		b.object = newObjectScope(b.form, b.segments, b.update)
	}
	return b.object, nil
}

// Array returns the scope editing this binding's array value.
func (b *Binding) Array() (*ArrayScope, error) {
	if k := b.Kind(); k != value.KindArray {
		return nil, fmt.Errorf("%w: %s is %s, not an array", ErrShapeMismatch, displayPath(b.path), k)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.array == nil {
		b.array = newArrayScope(b.form, b.segments, b.update)
	}
	return b.array, nil
}

func (b *Binding) child(segment string) (*Binding, error) {
	switch b.Kind() {
	case value.KindObject:
		scope, err := b.Object()
		if err != nil {
			return nil, err
		}
		return scope.field(segment)
	case value.KindArray:
		i, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %q in array %s", ErrUnknownField, segment, displayPath(b.path))
		}
		scope, err := b.Array()
		if err != nil {
			return nil, err
		}
		return scope.item(i)
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrShapeMismatch, displayPath(b.path), b.Kind())
	}
}

// pathKey encodes segments for the bookkeeping maps. Each segment is quoted
// so keys holding dots, brackets or nothing at all stay distinct.
func pathKey(segments []string) string {
	var sb strings.Builder
	for i, segment := range segments {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Quote(segment))
	}
	return sb.String()
}

func keySegments(key string) []string {
	var out []string
	for key != "" {
		quoted, err := strconv.QuotedPrefix(key)
		if err != nil {
			return out
		}
		segment, _ := strconv.Unquote(quoted)
		out = append(out, segment)
		key = strings.TrimPrefix(key[len(quoted):], ".")
	}
	return out
}

// nextTicket returns a validation ticket unique across the whole form.
// Callers hold f.mu.
func (f *Form) nextTicket() uint64 {
	f.tick++
	return f.tick
}

// invalidate makes in-flight validations of segments, its ancestors and its
// descendants stale. Callers hold f.mu.
func (f *Form) invalidate(segments []string) {
	for key := range f.seq {
		if related(keySegments(key), segments) {
			f.seq[key] = f.nextTicket()
		}
	}
}

func related(a, b []string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	return slices.Equal(a, b[:len(a)])
}

// shiftRemoved re-keys the bookkeeping below the array at parent after the
// items at removed were dropped: entries of removed items go, later items
// move down. Callers hold f.mu.
func (f *Form) shiftRemoved(parent []string, removed []int) {
	f.owned = shiftKeys(f.owned, parent, removed)
	f.seq = shiftKeys(f.seq, parent, removed)
}

func shiftKeys[T any](m map[string]T, parent []string, removed []int) map[string]T {
	out := make(map[string]T, len(m))
	for key, v := range m {
		segments := keySegments(key)
		if len(segments) <= len(parent) || !slices.Equal(segments[:len(parent)], parent) {
			out[key] = v
			continue
		}
		index, err := strconv.Atoi(segments[len(parent)])
		if err != nil {
			out[key] = v
			continue
		}
		shift, dropped := 0, false
		for _, r := range removed {
			if r == index {
				dropped = true
				break
			}
			if r < index {
				shift++
			}
		}
		if dropped {
			continue
		}
		segments[len(parent)] = strconv.Itoa(index - shift)
		out[pathKey(segments)] = v
	}
	return out
}

// read returns the value and error at segments in one consistent snapshot.
func (f *Form) read(segments []string) (value.Value, errval.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, _ := value.GetAt(f.values, segments...)
	return v, errval.GetAt(f.errors, segments...)
}
