package internal

import (
	"fmt"
	"reflect"
	"strconv"
)

// TextValue reports whether v embeds directly as template text (strings and
// numbers) and returns its text form.
func TextValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Coerce converts a plugin result to the text that replaces its placeholder.
// nil becomes "null", booleans "true"/"false", slices and other values their
// fmt form.
func Coerce(v any) string {
	if s, ok := TextValue(v); ok {
		return s
	}
	if isNil(v) {
		return NullLiteral
	}
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	default:
		return fmt.Sprint(v)
	}
}

// FormatEcho converts a value written by a code block echo statement.
// Unlike Coerce, nil writes nothing.
func FormatEcho(v any) string {
	if isNil(v) {
		return ""
	}
	return Coerce(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
