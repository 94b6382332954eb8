package transform

import "strings"

// SuppressFields removes or masks the named top-level fields of a record.
// Masking replaces a string with asterisks matching its length; non-string
// values get a fixed-width mask so the original size leaks nothing.
func SuppressFields(record Record, fields []string, mode SuppressMode) Record {
	targets := fieldSet(fields)

	out := make(Record, len(record))
	for field, value := range record {
		if !targets[field] {
			out[field] = value
			continue
		}
		if mode == SuppressMask {
			out[field] = maskValue(value)
		}
		// SuppressRemove drops the key.
	}
	return out
}

// SuppressFieldsDeep suppresses matching field names at any nesting depth,
// recursing through maps and slices.
func SuppressFieldsDeep(record Record, fields []string, mode SuppressMode) Record {
	targets := fieldSet(fields)
	return suppressMap(record, targets, mode)
}

// SuppressFieldsInSlice applies SuppressFields to each record of a slice.
func SuppressFieldsInSlice(records []Record, fields []string, mode SuppressMode) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = SuppressFields(r, fields, mode)
	}
	return out
}

func suppressMap(m Record, targets map[string]bool, mode SuppressMode) Record {
	out := make(Record, len(m))
	for field, value := range m {
		if targets[field] {
			if mode == SuppressMask {
				out[field] = maskValue(value)
			}
			continue
		}
		out[field] = suppressValue(value, targets, mode)
	}
	return out
}

func suppressValue(value interface{}, targets map[string]bool, mode SuppressMode) interface{} {
	switch v := value.(type) {
	case Record:
		return suppressMap(v, targets, mode)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = suppressValue(item, targets, mode)
		}
		return out
	case []Record:
		out := make([]Record, len(v))
		for i, item := range v {
			out[i] = suppressMap(item, targets, mode)
		}
		return out
	default:
		return value
	}
}

func maskValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", maskFixedLength)
}

func fieldSet(fields []string) map[string]bool {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
