package log

import "time"

// Field is a single structured key/value pair attached to a log call.
type Field struct {
	Key   string
	Value interface{}
}

// Str creates a string field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 creates an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Bool creates a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Any creates a field from an arbitrary value.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Err creates an "error" field from an error value. A nil error is recorded
// as the literal string "nil" so callers never need to guard the call site.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "nil"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component creates a field under the well-known component key, matching
// ComponentKey used for context propagation.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

func fieldsFrom(base Fields, fields []Field) Fields {
	if len(base) == 0 && len(fields) == 0 {
		return Fields{}
	}
	out := make(Fields, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
