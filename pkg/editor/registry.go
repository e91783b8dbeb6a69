package editor

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-typeform/pkg/value"
)

// Built-in widget identifiers. A widget refines an editor kind for the
// presentation layer (a toggle is a boolean editor, a textarea a string one).
const (
	WidgetText     = "text"
	WidgetTextArea = "textarea"
	WidgetPassword = "password"
	WidgetMail     = "mail"
	WidgetNumber   = "number"
	WidgetToggle   = "toggle"
	WidgetDate     = "date"
	WidgetSelect   = "select"
	WidgetNull     = "null"
	WidgetList     = "list"
	WidgetGroup    = "group"
)

// Target is what a matcher inspects.
type Target struct {
	Name   string
	Value  value.Value
	Kind   Kind
	Config Config
}

// Matcher decides whether a widget should handle the target.
type Matcher func(target Target) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for targets based on explicit config or
// registered matchers. Higher priority wins; ties fall back to registration
// order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher. The latest registration of a duplicate name
// still competes by priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve classifies the target value (filling Target.Kind) and returns the
// widget for it. An explicit Config.Widget wins over matchers. Unknown shapes
// and the custom mode fail loudly.
func (r *Registry) Resolve(target Target) (Kind, string, error) {
	kind, err := Resolve(target.Value, target.Config.Mode())
	if err != nil {
		return "", "", err
	}
	target.Kind = kind

	if explicit := strings.TrimSpace(target.Config.Widget); explicit != "" {
		return kind, explicit, nil
	}
	if r == nil {
		return kind, string(kind), nil
	}

	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(target) {
			return kind, entry.name, nil
		}
	}
	return kind, string(kind), nil
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetSelect, 100, func(t Target) bool {
		return t.Kind == KindSelect
	})
	r.Register(WidgetTextArea, 90, func(t Target) bool {
		return t.Kind == KindString && t.Config.Text == TextArea
	})
	r.Register(WidgetPassword, 90, func(t Target) bool {
		return t.Kind == KindString && t.Config.Text == TextPassword
	})
	r.Register(WidgetMail, 90, func(t Target) bool {
		return t.Kind == KindString && t.Config.Text == TextMail
	})
	r.Register(WidgetText, 10, func(t Target) bool {
		return t.Kind == KindString
	})
	r.Register(WidgetNumber, 10, func(t Target) bool {
		return t.Kind == KindNumber
	})
	r.Register(WidgetToggle, 10, func(t Target) bool {
		return t.Kind == KindBoolean
	})
	r.Register(WidgetDate, 10, func(t Target) bool {
		return t.Kind == KindDate
	})
	r.Register(WidgetNull, 10, func(t Target) bool {
		return t.Kind == KindNull
	})
	r.Register(WidgetList, 10, func(t Target) bool {
		return t.Kind == KindArray
	})
	r.Register(WidgetGroup, 10, func(t Target) bool {
		return t.Kind == KindObject
	})
}
