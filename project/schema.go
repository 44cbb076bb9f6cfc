package project

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sfomuseum/go-webmap-layers/host"
)

func fieldType(type_name string) host.FieldType {

	switch strings.ToLower(strings.TrimSpace(type_name)) {
	case "bool", "boolean":
		return host.FieldBool
	case "int", "int4", "integer", "smallint", "mediumint", "tinyint", "uint":
		return host.FieldInt
	case "integer64", "int8", "bigint", "longlong", "ulonglong":
		return host.FieldLongLong
	case "real", "double", "float", "decimal", "numeric":
		return host.FieldDouble
	case "date":
		return host.FieldDate
	case "time":
		return host.FieldTime
	case "datetime", "timestamp", "timestamp without time zone":
		return host.FieldDateTime
	case "string", "text", "char", "varchar", "nchar", "nvarchar":
		return host.FieldString
	default:

		// GeoPackage declarations like TEXT(32)
		if strings.HasPrefix(strings.ToLower(type_name), "text(") || strings.HasPrefix(strings.ToLower(type_name), "varchar(") {
			return host.FieldString
		}

		return host.FieldOther
	}
}

func newFields(cfg []*FieldConfig) []host.Field {

	fields := make([]host.Field, len(cfg))

	for i, f := range cfg {

		fields[i] = host.Field{
			Name:     f.Name,
			TypeName: f.Type,
			Type:     fieldType(f.Type),
			Length:   f.Length,
		}
	}

	return fields
}

// inferFields derives a schema from property maps. Fields are sorted by name for a stable order.
func inferFields(props []map[string]any) []host.Field {

	types := make(map[string]string)

	for _, p := range props {

		for k, v := range p {

			t := inferType(v)

			if t == "" {
				if _, ok := types[k]; !ok {
					types[k] = ""
				}
				continue
			}

			current := types[k]

			switch {
			case current == "":
				types[k] = t
			case current == t:
				// pass
			case current == "Integer64" && t == "Real", current == "Real" && t == "Integer64":
				types[k] = "Real"
			default:
				types[k] = "String"
			}
		}
	}

	names := make([]string, 0, len(types))

	for k := range types {
		names = append(names, k)
	}

	sort.Strings(names)

	fields := make([]host.Field, len(names))

	for i, name := range names {

		t := types[name]

		if t == "" {
			t = "String"
		}

		fields[i] = host.Field{
			Name:     name,
			TypeName: t,
			Type:     fieldType(t),
		}
	}

	return fields
}

func inferType(v any) string {

	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return "Boolean"
	case float64:

		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return "Integer64"
		}

		return "Real"

	case int, int64:
		return "Integer64"
	case string:
		return "String"
	default:
		return "String"
	}
}

// convertValue coerces a decoded value to the representation expected for f.
func convertValue(v any, f host.Field) any {

	if v == nil {
		return host.Null{TypeName: f.TypeName}
	}

	switch f.Type {
	case host.FieldInt, host.FieldLongLong:

		fl, ok := host.ValueFloat(v)

		if ok {
			return int64(fl)
		}

	case host.FieldDouble:

		fl, ok := host.ValueFloat(v)

		if ok {
			return fl
		}

	case host.FieldDate, host.FieldTime, host.FieldDateTime:

		switch t := v.(type) {
		case string:
			return parseTemporal(t, f)
		case time.Time:
			return wrapTemporal(t, f)
		default:
			return v
		}

	case host.FieldString:

		switch t := v.(type) {
		case []byte:
			return string(t)
		case map[string]any, []any:
			return v
		}

		str, ok := host.ValueString(v)

		if ok {
			return str
		}
	}

	return v
}

func parseTemporal(str string, f host.Field) any {

	switch f.Type {
	case host.FieldDate:

		t, err := time.Parse("2006-01-02", str)

		if err == nil {
			return host.Date{Time: t}
		}

	case host.FieldTime:

		t, err := time.Parse("15:04:05", str)

		if err == nil {
			return host.Time{Time: t}
		}

	case host.FieldDateTime:

		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {

			t, err := time.Parse(layout, str)

			if err == nil {
				return host.DateTime{Time: t}
			}
		}
	}

	return host.Invalid{TypeName: f.TypeName}
}

func wrapTemporal(t time.Time, f host.Field) any {

	switch f.Type {
	case host.FieldDate:
		return host.Date{Time: t}
	case host.FieldTime:
		return host.Time{Time: t}
	default:
		return host.DateTime{Time: t}
	}
}
