package host

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// FieldType is the storage type of a field as reported by the data provider.
type FieldType int

const (
	FieldOther FieldType = iota
	FieldBool
	FieldInt
	FieldLongLong
	FieldDouble
	FieldString
	FieldDate
	FieldTime
	FieldDateTime
)

// IsNumeric reports whether t is an integer or floating point type.
func (t FieldType) IsNumeric() bool {
	return t == FieldInt || t == FieldLongLong || t == FieldDouble
}

// Field describes a single attribute column of a vector layer.
type Field struct {
	Name string
	// TypeName is the provider specific spelling of the field type ("int4", "varchar", "Real", ...)
	TypeName string
	Type     FieldType
	Length   int
}

// FieldIndex returns the index of the field named name, or -1.
func FieldIndex(fields []Field, name string) int {

	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// Feature is a geometry plus attribute values aligned positionally with a layer's fields.
type Feature struct {
	ID         int64
	Geometry   orb.Geometry
	Attributes []any
}

// Attribute returns the value of the named attribute given the fields the feature is aligned with.
func (f *Feature) Attribute(fields []Field, name string) (any, bool) {

	idx := FieldIndex(fields, name)

	if idx == -1 || idx >= len(f.Attributes) {
		return nil, false
	}

	return f.Attributes[idx], true
}

// Null is an explicit, typed null value.
type Null struct {
	TypeName string
}

// Invalid is a value the provider could not read.
type Invalid struct {
	TypeName string
}

// Date is a calendar date attribute value.
type Date struct {
	time.Time
}

// Time is a time-of-day attribute value.
type Time struct {
	time.Time
}

// DateTime is a timestamp attribute value.
type DateTime struct {
	time.Time
}

func (d Date) ISO8601() string     { return d.Format("2006-01-02") }
func (t Time) ISO8601() string     { return t.Format("15:04:05") }
func (d DateTime) ISO8601() string { return d.Format("2006-01-02T15:04:05") }

// IsNull reports whether v is a null or invalid value.
func IsNull(v any) bool {

	switch v.(type) {
	case nil, Null, *Null, Invalid, *Invalid:
		return true
	default:
		return false
	}
}

// ValueString renders v as text. Null and invalid values return ok=false; values that have no
// meaningful text representation return a typed placeholder.
func ValueString(v any) (string, bool) {

	if IsNull(v) {
		return "", false
	}

	switch t := v.(type) {
	case Date:
		return t.ISO8601(), true
	case Time:
		return t.ISO8601(), true
	case DateTime:
		return t.ISO8601(), true
	case time.Time:
		return t.Format(time.RFC3339), true
	case string:
		return t, true
	case []byte:
		return string(t), true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", t), true
	case float32:
		return fmt.Sprintf("%v", t), true
	case float64:
		return fmt.Sprintf("%v", t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprintf("Unsupported type: %T", v), true
	}
}

// ValueFloat returns v as a float64 if it is numeric.
func ValueFloat(v any) (float64, bool) {

	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
