// Package fields classifies vector layer fields and derives the attribute domains used by web map filters.
package fields

import (
	"strings"
)

// Type is the canonical type of a field, independent of how the data provider spells it.
type Type string

const (
	Bool     Type = "bool"
	Real     Type = "real"
	Int      Type = "int"
	Str      Type = "str"
	Date     Type = "date"
	DateTime Type = "datetime"
	Time     Type = "time"
)

var synonyms = map[string]Type{
	"boolean":                     Bool,
	"bool":                        Bool,
	"double":                      Real,
	"real":                        Real,
	"decimal":                     Real,
	"numeric":                     Real,
	"integer":                     Int,
	"integer64":                   Int,
	"uint":                        Int,
	"int":                         Int,
	"longlong":                    Int,
	"int4":                        Int,
	"ulonglong":                   Int,
	"char":                        Str,
	"string":                      Str,
	"text":                        Str,
	"varchar":                     Str,
	"nchar":                       Str,
	"nvarchar":                    Str,
	"date":                        Date,
	"datetime":                    DateTime,
	"timestamp":                   DateTime,
	"timestamp without time zone": DateTime,
	"time":                        Time,
}

// Classify maps a provider type name to its canonical Type. Matching is case-insensitive and
// unknown type names are not classified.
func Classify(type_name string) (Type, bool) {
	t, ok := synonyms[strings.ToLower(strings.TrimSpace(type_name))]
	return t, ok
}
