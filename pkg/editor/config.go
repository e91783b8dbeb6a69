package editor

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

// TextType is the flavour of a string editor.
type TextType string

// String editor flavours.
const (
	TextPlain    TextType = "text"
	TextArea     TextType = "textarea"
	TextMail     TextType = "mail"
	TextPassword TextType = "password"
)

// NumberType decides how number text is parsed.
type NumberType string

// Number editor flavours. The zero NumberType behaves as NumberInt.
const (
	NumberInt   NumberType = "int"
	NumberFloat NumberType = "float"
)

// Option is one entry of a select editor.
type Option struct {
	Value value.Value `yaml:"value" json:"value"`
	Text  string      `yaml:"text" json:"text"`
}

// Config is the editor configuration of one field. Nested fields are
// configured through Fields (objects) and Item (array items).
type Config struct {
	// Label overrides the derived label; a pointer to "" hides it.
	Label  *string `yaml:"label,omitempty" json:"label,omitempty"`
	Help   string  `yaml:"help,omitempty" json:"help,omitempty"`
	Widget string  `yaml:"widget,omitempty" json:"widget,omitempty"`

	Select  bool     `yaml:"select,omitempty" json:"select,omitempty"`
	Options []Option `yaml:"options,omitempty" json:"options,omitempty"`

	Required        bool   `yaml:"required,omitempty" json:"required,omitempty"`
	RequiredMessage string `yaml:"requiredMessage,omitempty" json:"requiredMessage,omitempty"`
	ReadOnly        bool   `yaml:"readOnly,omitempty" json:"readOnly,omitempty"`

	Text        TextType `yaml:"text,omitempty" json:"text,omitempty"`
	StripMarkup bool     `yaml:"stripMarkup,omitempty" json:"stripMarkup,omitempty"`
	MinLength   *int     `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength   *int     `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Pattern     string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	Number NumberType `yaml:"number,omitempty" json:"number,omitempty"`
	Min    *float64   `yaml:"min,omitempty" json:"min,omitempty"`
	Max    *float64   `yaml:"max,omitempty" json:"max,omitempty"`

	FormatWrite string `yaml:"formatWrite,omitempty" json:"formatWrite,omitempty"`
	FormatRead  string `yaml:"formatRead,omitempty" json:"formatRead,omitempty"`

	// NotNull is the value a null editor switches to when enabled.
	NotNull value.Value `yaml:"notNull,omitempty" json:"notNull,omitempty"`
	// Template is the value a list editor appends.
	Template value.Value `yaml:"template,omitempty" json:"template,omitempty"`

	// OnValidate is the caller's own field validator.
	OnValidate validation.FieldValidator `yaml:"-" json:"-"`

	Item   *Config           `yaml:"item,omitempty" json:"item,omitempty"`
	Fields map[string]Config `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Mode reports the editing mode the config asks for.
func (c Config) Mode() Mode {
	switch {
	case c.Widget == string(ModeCustom):
		return ModeCustom
	case c.Select || len(c.Options) > 0:
		return ModeSelect
	default:
		return ModeInput
	}
}

// Child returns the config of a nested field. Decimal names address array
// items.
func (c Config) Child(name string) Config {
	if cfg, ok := c.Fields[name]; ok {
		return cfg
	}
	if _, err := strconv.Atoi(name); err == nil && c.Item != nil {
		return *c.Item
	}
	return Config{}
}

// Rules derives the validation rules for a field edited with kind.
func (c Config) Rules(kind Kind) validation.Rules {
	rules := validation.Rules{
		Required:        c.Required,
		RequiredMessage: c.RequiredMessage,
		OnValidate:      c.OnValidate,
	}

	switch kind {
	case KindString:
		if c.Text == TextMail {
			rules.Validators = append(rules.Validators, validation.Mail(""))
		}
		rules.Validators = append(rules.Validators, c.lengthValidators()...)
		if c.Pattern != "" {
			if re, err := regexp.Compile(c.Pattern); err == nil {
				rules.Validators = append(rules.Validators, validation.Pattern(re, ""))
			}
		}
	case KindNumber:
		if c.Number == "" || c.Number == NumberInt {
			rules.Validators = append(rules.Validators, validation.Int(""))
		}
		if c.Min != nil {
			rules.Validators = append(rules.Validators, validation.Min(*c.Min, ""))
		}
		if c.Max != nil {
			rules.Validators = append(rules.Validators, validation.Max(*c.Max, ""))
		}
	case KindDate:
		rules.Validators = append(rules.Validators, validation.Date(""))
	case KindArray:
		rules.Validators = append(rules.Validators, c.lengthValidators()...)
	}
	return rules
}

func (c Config) lengthValidators() []validation.FieldValidator {
	var out []validation.FieldValidator
	if c.MinLength != nil {
		out = append(out, validation.MinLength(*c.MinLength, ""))
	}
	if c.MaxLength != nil {
		out = append(out, validation.MaxLength(*c.MaxLength, ""))
	}
	return out
}

// Check reports configuration mistakes: bad patterns, inverted bounds and
// unknown text or number types. Nested configs are checked with their path.
func (c Config) Check() error {
	return c.check("")
}

func (c Config) check(path string) error {
	where := path
	if where == "" {
		where = "<root>"
	}
	if c.Mode() == ModeCustom {
		return fmt.Errorf("%w: %s", ErrCustomUnsupported, where)
	}
	if c.Pattern != "" {
		if _, err := regexp.Compile(c.Pattern); err != nil {
			return fmt.Errorf("editor: %s: pattern: %w", where, err)
		}
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("editor: %s: min %s above max %s", where, value.FormatNumber(*c.Min), value.FormatNumber(*c.Max))
	}
	switch c.Text {
	case "", TextPlain, TextArea, TextMail, TextPassword:
	default:
		return fmt.Errorf("editor: %s: unknown text type %q", where, c.Text)
	}
	switch c.Number {
	case "", NumberInt, NumberFloat:
	default:
		return fmt.Errorf("editor: %s: unknown number type %q", where, c.Number)
	}
	if c.Item != nil {
		if err := c.Item.check(value.JoinPath(path, "*")); err != nil {
			return err
		}
	}
	for name, child := range c.Fields {
		if err := child.check(value.JoinPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}
