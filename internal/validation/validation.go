// Package validation evaluates declarative per-field rules against form
// values. Failures are returned as data, never as errors.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule is a predicate over a field value and the whole form, paired with
// the message recorded when it fails.
type Rule struct {
	Check   func(value any, all map[string]any) bool
	Message string
}

// WithMessage returns a copy of r with a custom message.
func (r Rule) WithMessage(msg string) Rule {
	r.Message = msg
	return r
}

// Schema maps a field name to its rules, evaluated in order.
type Schema map[string][]Rule

// Result is the outcome of validating a whole form.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Validate checks every field in schema independently. Within a field the
// first failing rule wins and the remaining rules are skipped.
func Validate(values map[string]any, schema Schema) Result {
	res := Result{Valid: true, Errors: make(map[string]string)}
	for field := range schema {
		if msg, ok := ValidateField(field, values, schema); !ok {
			res.Errors[field] = msg
			res.Valid = false
		}
	}
	return res
}

// ValidateField checks one field. Fields without rules are valid.
func ValidateField(field string, values map[string]any, schema Schema) (string, bool) {
	value := values[field]
	for _, rule := range schema[field] {
		if !rule.Check(value, values) {
			return rule.Message, false
		}
	}
	return "", true
}

// Form tracks per-field errors across incremental validations so a field
// can be re-checked on change without touching the others.
type Form struct {
	schema Schema

	mu     sync.Mutex
	errors map[string]string
}

func NewForm(schema Schema) *Form {
	return &Form{schema: schema, errors: make(map[string]string)}
}

// Validate re-checks every field and replaces the tracked errors.
func (f *Form) Validate(values map[string]any) Result {
	res := Validate(values, f.schema)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = make(map[string]string, len(res.Errors))
	for k, v := range res.Errors {
		f.errors[k] = v
	}
	return res
}

// ValidateField re-checks one field, updating only its tracked error.
func (f *Form) ValidateField(field string, values map[string]any) bool {
	msg, ok := ValidateField(field, values, f.schema)

	f.mu.Lock()
	defer f.mu.Unlock()
	if ok {
		delete(f.errors, field)
	} else {
		f.errors[field] = msg
	}
	return ok
}

// Errors returns a copy of the tracked errors.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Built-in rules. Except for Required, every rule passes an empty value so
// that emptiness is reported once, by Required.

var validate = validator.New()

// Required fails for nil, blank strings and empty collections. Zero numbers
// and false pass.
func Required() Rule {
	return Rule{
		Message: "This field is required",
		Check: func(v any, _ map[string]any) bool {
			rv, ok := deref(v)
			if !ok {
				return false
			}
			switch rv.Kind() {
			case reflect.String:
				return strings.TrimSpace(rv.String()) != ""
			case reflect.Slice, reflect.Array, reflect.Map:
				return rv.Len() > 0
			}
			return true
		},
	}
}

// Email checks the address format.
func Email() Rule {
	return Rule{
		Message: "Please enter a valid email address",
		Check: func(v any, _ map[string]any) bool {
			s, ok := v.(string)
			if !ok || s == "" {
				return isEmpty(v)
			}
			return validate.Var(s, "required,email") == nil
		},
	}
}

// MinLength checks the length of a string (in runes) or a collection.
func MinLength(n int) Rule {
	return Rule{
		Message: fmt.Sprintf("Must be at least %d characters", n),
		Check: func(v any, _ map[string]any) bool {
			if isEmpty(v) {
				return true
			}
			l, ok := length(v)
			return ok && l >= n
		},
	}
}

func MaxLength(n int) Rule {
	return Rule{
		Message: fmt.Sprintf("Cannot be longer than %d characters", n),
		Check: func(v any, _ map[string]any) bool {
			if isEmpty(v) {
				return true
			}
			l, ok := length(v)
			return ok && l <= n
		},
	}
}

// Min checks a numeric lower bound. Numeric strings are parsed; anything
// else non-numeric fails.
func Min(min float64) Rule {
	return Rule{
		Message: fmt.Sprintf("Must be at least %s", formatNumber(min)),
		Check: func(v any, _ map[string]any) bool {
			if _, ok := deref(v); !ok {
				return true
			}
			n, ok := number(v)
			return ok && n >= min
		},
	}
}

func Max(max float64) Rule {
	return Rule{
		Message: fmt.Sprintf("Cannot be more than %s", formatNumber(max)),
		Check: func(v any, _ map[string]any) bool {
			if _, ok := deref(v); !ok {
				return true
			}
			n, ok := number(v)
			return ok && n <= max
		},
	}
}

// Pattern checks the string form of the value against re.
func Pattern(re *regexp.Regexp) Rule {
	return Rule{
		Message: "Invalid format",
		Check: func(v any, _ map[string]any) bool {
			if isEmpty(v) {
				return true
			}
			rv, _ := deref(v)
			return re.MatchString(fmt.Sprint(rv.Interface()))
		},
	}
}

// Match requires the value to equal another field's value.
func Match(field string) Rule {
	return Rule{
		Message: "Fields do not match",
		Check: func(v any, all map[string]any) bool {
			return reflect.DeepEqual(v, all[field])
		},
	}
}

// OneOf requires a string value from allowed.
func OneOf(allowed ...string) Rule {
	return Rule{
		Message: "Please choose one of: " + strings.Join(allowed, ", "),
		Check: func(v any, _ map[string]any) bool {
			if isEmpty(v) {
				return true
			}
			rv, _ := deref(v)
			return rv.Kind() == reflect.String && slices.Contains(allowed, rv.String())
		},
	}
}

// deref unwraps pointers and interfaces. ok is false for nil.
func deref(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func isEmpty(v any) bool {
	rv, ok := deref(v)
	if !ok {
		return true
	}
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

func length(v any) (int, bool) {
	rv, ok := deref(v)
	if !ok {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	rv, ok := deref(v)
	if !ok {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return n, err == nil
	}
	return 0, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
