package transform

import "fmt"

// SelectFields keeps only the named fields. With deep set, nested maps and
// slices are projected recursively against the same field set.
func SelectFields(record Record, fields []string, deep bool) Record {
	keep := fieldSet(fields)

	out := make(Record, len(keep))
	for field, value := range record {
		if !keep[field] {
			continue
		}
		if deep {
			out[field] = projectValue(value, keep, true)
		} else {
			out[field] = value
		}
	}
	return out
}

// ExcludeFields drops the named fields, recursing when deep is set.
func ExcludeFields(record Record, fields []string, deep bool) Record {
	drop := fieldSet(fields)

	out := make(Record, len(record))
	for field, value := range record {
		if drop[field] {
			continue
		}
		if deep {
			out[field] = projectValue(value, drop, false)
		} else {
			out[field] = value
		}
	}
	return out
}

func projectValue(value interface{}, set map[string]bool, include bool) interface{} {
	switch v := value.(type) {
	case Record:
		out := make(Record)
		for field, inner := range v {
			if set[field] != include {
				continue
			}
			out[field] = projectValue(inner, set, include)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = projectValue(item, set, include)
		}
		return out
	default:
		return value
	}
}

// CleanRecord removes empty strings, nils, and slice duplicates per the
// options, recursing through nested maps and slices.
func CleanRecord(record Record, opts CleanOptions) Record {
	out := make(Record, len(record))
	for field, value := range record {
		cleaned, keep := cleanValue(value, opts)
		if keep {
			out[field] = cleaned
		}
	}
	return out
}

// CleanSlice applies CleanRecord to each record of a slice.
func CleanSlice(records []Record, opts CleanOptions) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = CleanRecord(r, opts)
	}
	return out
}

// cleanValue returns the cleaned value and whether it should be kept at all.
func cleanValue(value interface{}, opts CleanOptions) (interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, !opts.RemoveNils
	case string:
		if opts.RemoveEmptyStrings && v == "" {
			return nil, false
		}
		return v, true
	case Record:
		return CleanRecord(v, opts), true
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		seen := make(map[string]bool)
		for _, item := range v {
			cleaned, keep := cleanValue(item, opts)
			if !keep {
				continue
			}
			if opts.RemoveDuplicates {
				key := fmt.Sprintf("%v", cleaned)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			out = append(out, cleaned)
		}
		return out, true
	default:
		return value, true
	}
}
