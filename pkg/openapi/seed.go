package openapi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/value"
)

var (
	// ErrOperationNotFound is returned when the document has no operation with
	// the requested id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned when the operation has no object request
	// body to seed a form from.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// extensionKey holds per-schema editor overrides.
const extensionKey = "x-typeform"

// Seed is everything a form needs from an OpenAPI operation: initial values
// and editor configuration derived from the request body schema.
type Seed struct {
	Operation string
	Method    string
	Path      string
	Summary   string
	Values    value.Value
	Config    editor.Config
}

// Operation describes one operation of a document.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
}

// LoadSeed loads the document at src and seeds a form from operationID.
func LoadSeed(ctx context.Context, src Source, operationID string, opts ...LoaderOption) (Seed, error) {
	data, err := NewLoader(opts...).Load(ctx, src)
	if err != nil {
		return Seed{}, err
	}
	return SeedFromDocument(ctx, data, operationID)
}

// Operations lists the operations of a JSON or YAML document, sorted by id.
// Operations without an operationId get "method:path".
func Operations(ctx context.Context, data []byte) ([]Operation, error) {
	doc, err := loadDocument(ctx, data)
	if err != nil {
		return nil, err
	}
	var out []Operation
	for _, entry := range collectOperations(doc) {
		out = append(out, entry.Operation)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SeedFromDocument seeds a form from the request body of operationID. The
// JSON media type is preferred; form encodings are accepted as well.
func SeedFromDocument(ctx context.Context, data []byte, operationID string) (Seed, error) {
	doc, err := loadDocument(ctx, data)
	if err != nil {
		return Seed{}, err
	}

	var found *operationEntry
	for _, entry := range collectOperations(doc) {
		if entry.ID == operationID {
			e := entry
			found = &e
			break
		}
	}
	if found == nil {
		return Seed{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	schemaRef := requestSchema(found.op.RequestBody)
	if schemaRef == nil || schemaRef.Value == nil || !isObject(schemaRef.Value) {
		return Seed{}, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}

	b := &builder{visiting: map[*openapi3.Schema]bool{}}
	values, cfg := b.object(schemaRef.Value)
	if err := cfg.Check(); err != nil {
		return Seed{}, fmt.Errorf("openapi: %s: %w", operationID, err)
	}

	return Seed{
		Operation: found.ID,
		Method:    found.Method,
		Path:      found.Path,
		Summary:   found.Summary,
		Values:    values,
		Config:    cfg,
	}, nil
}

func loadDocument(ctx context.Context, data []byte) (*openapi3.T, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}
	return doc, nil
}

type operationEntry struct {
	Operation
	op *openapi3.Operation
}

func collectOperations(doc *openapi3.T) []operationEntry {
	var out []operationEntry
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, operationEntry{
				Operation: Operation{ID: id, Method: method, Path: path, Summary: op.Summary},
				op:        op,
			})
		}
	}
	return out
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

func isObject(s *openapi3.Schema) bool {
	t := firstSchemaType(s.Type)
	return t == openapi3.TypeObject || (t == "" && len(s.Properties) > 0)
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range types.Slice() {
		if t != openapi3.TypeNull {
			return t
		}
	}
	return ""
}

// builder turns schemas into initial values and editor config. visiting
// guards against recursive references.
type builder struct {
	visiting map[*openapi3.Schema]bool
}

func (b *builder) object(s *openapi3.Schema) (value.Value, editor.Config) {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	b.visiting[s] = true
	defer delete(b.visiting, s)

	fields := make([]value.Field, 0, len(names))
	var configs map[string]editor.Config
	for _, name := range names {
		ref := s.Properties[name]
		if ref == nil || ref.Value == nil || b.visiting[ref.Value] {
			continue
		}
		v, cfg := b.field(ref.Value)
		cfg.Required = cfg.Required || required[name]
		fields = append(fields, value.F(name, v))
		if !isZeroConfig(cfg) {
			if configs == nil {
				configs = make(map[string]editor.Config)
			}
			configs[name] = cfg
		}
	}
	return value.Object(fields...), editor.Config{Fields: configs}
}

func (b *builder) field(s *openapi3.Schema) (value.Value, editor.Config) {
	var (
		v   value.Value
		cfg editor.Config
	)

	switch firstSchemaType(s.Type) {
	case openapi3.TypeObject:
		v, cfg = b.object(s)
	case "":
		if !isObject(s) {
			v = value.Null()
			break
		}
		v, cfg = b.object(s)
	case openapi3.TypeArray:
		v = value.Array()
		if s.Items != nil && s.Items.Value != nil && !b.visiting[s.Items.Value] {
			b.visiting[s] = true
			template, item := b.field(s.Items.Value)
			delete(b.visiting, s)
			if !isZeroConfig(item) {
				cfg.Item = &item
			}
			cfg.Template = template
		}
		cfg.MinLength = intPtr(s.MinItems)
		cfg.MaxLength = uintPtr(s.MaxItems)
	case openapi3.TypeInteger, openapi3.TypeNumber:
		cfg.Number = editor.NumberFloat
		if firstSchemaType(s.Type) == openapi3.TypeInteger {
			cfg.Number = editor.NumberInt
		}
		cfg.Min = copyFloat(s.Min)
		cfg.Max = copyFloat(s.Max)
		start := 0.0
		if cfg.Min != nil && *cfg.Min > start {
			start = *cfg.Min
		}
		if cfg.Max != nil && *cfg.Max < start {
			start = *cfg.Max
		}
		v = value.Number(start)
	case openapi3.TypeBoolean:
		v = value.Bool(false)
	case openapi3.TypeString:
		switch s.Format {
		case "date", "date-time":
			v = value.Date(time.Time{})
		default:
			v = value.String("")
		}
		switch s.Format {
		case "email":
			cfg.Text = editor.TextMail
		case "password":
			cfg.Text = editor.TextPassword
		}
		cfg.MinLength = intPtr(s.MinLength)
		cfg.MaxLength = uintPtr(s.MaxLength)
		// ECMA-only syntax is dropped rather than failing the seed
		if _, err := regexp.Compile(s.Pattern); err == nil {
			cfg.Pattern = s.Pattern
		}
	default:
		v = value.Null()
	}

	if s.Default != nil {
		if d, ok := convertDefault(s.Default, v.Kind()); ok {
			v = d
		}
	}
	if len(s.Enum) > 0 {
		cfg.Options = enumOptions(s.Enum)
	}
	if s.Nullable && s.Default == nil && !v.IsNull() {
		cfg.NotNull = v
		v = value.Null()
	}

	if s.Title != "" {
		title := s.Title
		cfg.Label = &title
	}
	cfg.Help = s.Description
	cfg.ReadOnly = s.ReadOnly
	applyExtension(&cfg, s.Extensions)
	return v, cfg
}

// convertDefault converts a schema default to the kind the schema implies.
// Date strings are parsed as RFC 3339 or YYYY-MM-DD.
func convertDefault(raw any, kind value.Kind) (value.Value, bool) {
	if kind == value.KindDate {
		s, ok := raw.(string)
		if !ok {
			return value.Null(), false
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return value.Date(t), true
			}
		}
		return value.Null(), false
	}
	v, err := value.FromAny(raw)
	if err != nil {
		return value.Null(), false
	}
	return v, true
}

func enumOptions(enum []any) []editor.Option {
	out := make([]editor.Option, 0, len(enum))
	for _, raw := range enum {
		v, err := value.FromAny(raw)
		if err != nil {
			continue
		}
		text := v.String()
		if v.Kind() == value.KindString {
			text = v.AsString()
		}
		out = append(out, editor.Option{Value: v, Text: text})
	}
	return out
}

// extension is the subset of editor config a schema may override through
// x-typeform.
type extension struct {
	Label           *string `json:"label"`
	Widget          string  `json:"widget"`
	Text            string  `json:"text"`
	Number          string  `json:"number"`
	FormatWrite     string  `json:"formatWrite"`
	FormatRead      string  `json:"formatRead"`
	StripMarkup     bool    `json:"stripMarkup"`
	Select          bool    `json:"select"`
	RequiredMessage string  `json:"requiredMessage"`
}

func applyExtension(cfg *editor.Config, extensions map[string]any) {
	raw, ok := extensions[extensionKey]
	if !ok {
		return
	}
	v, err := value.FromAny(raw)
	if err != nil || v.Kind() != value.KindObject {
		return
	}
	var ext extension
	if err := value.Decode(v, &ext); err != nil {
		return
	}
	if ext.Label != nil {
		cfg.Label = ext.Label
	}
	if ext.Widget != "" {
		cfg.Widget = ext.Widget
	}
	if ext.Text != "" {
		cfg.Text = editor.TextType(ext.Text)
	}
	if ext.Number != "" {
		cfg.Number = editor.NumberType(ext.Number)
	}
	if ext.FormatWrite != "" {
		cfg.FormatWrite = ext.FormatWrite
	}
	if ext.FormatRead != "" {
		cfg.FormatRead = ext.FormatRead
	}
	if ext.RequiredMessage != "" {
		cfg.RequiredMessage = ext.RequiredMessage
	}
	cfg.StripMarkup = cfg.StripMarkup || ext.StripMarkup
	cfg.Select = cfg.Select || ext.Select
}

func isZeroConfig(cfg editor.Config) bool {
	return cfg.Label == nil && cfg.Help == "" && cfg.Widget == "" && !cfg.Select &&
		len(cfg.Options) == 0 && !cfg.Required && cfg.RequiredMessage == "" && !cfg.ReadOnly &&
		cfg.Text == "" && !cfg.StripMarkup && cfg.MinLength == nil && cfg.MaxLength == nil &&
		cfg.Pattern == "" && cfg.Number == "" && cfg.Min == nil && cfg.Max == nil &&
		cfg.FormatWrite == "" && cfg.FormatRead == "" && cfg.NotNull.IsNull() && cfg.Template.IsNull() &&
		cfg.Item == nil && len(cfg.Fields) == 0
}

func intPtr(n uint64) *int {
	if n == 0 {
		return nil
	}
	v := int(n)
	return &v
}

func uintPtr(n *uint64) *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func copyFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
