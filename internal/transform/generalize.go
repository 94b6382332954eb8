package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// macroRegions maps provinces and municipalities to coarse geographic
// regions for partial generalization.
var macroRegions = map[string]string{
	"beijing": "north", "tianjin": "north", "hebei": "north", "shanxi": "north", "neimenggu": "north",
	"shanghai": "east", "jiangsu": "east", "zhejiang": "east", "anhui": "east", "fujian": "east", "jiangxi": "east", "shandong": "east",
	"guangdong": "south", "guangxi": "south", "hainan": "south", "henan": "central", "hubei": "central", "hunan": "central",
	"chongqing": "southwest", "sichuan": "southwest", "guizhou": "southwest", "yunnan": "southwest", "xizang": "southwest",
	"liaoning": "northeast", "jilin": "northeast", "heilongjiang": "northeast",
	"shaanxi": "northwest", "gansu": "northwest", "qinghai": "northwest", "ningxia": "northwest", "xinjiang": "northwest",
}

// GeneralizeValue maps a raw value to a coarser representation. A custom
// rule function always wins; otherwise the handler is picked from the field
// name (age, date/birth, region/province/city), falling back to numeric
// bucketing and finally passthrough for values nothing applies to.
func GeneralizeValue(field string, value interface{}, rule Rule) interface{} {
	if rule.Custom != nil {
		return rule.Custom(value)
	}

	level := rule.Level
	if level == "" {
		level = LevelPartial
	}

	name := strings.ToLower(field)
	switch {
	case strings.Contains(name, "age"):
		return generalizeAge(value, level)
	case strings.Contains(name, "date") || strings.Contains(name, "birth"):
		return generalizeDate(value, level)
	case strings.Contains(name, "region") || strings.Contains(name, "province") || strings.Contains(name, "city"):
		return generalizeRegion(value, level)
	default:
		return generalizeNumeric(value, level)
	}
}

// GeneralizeRecord applies the matching rule to each field of a record.
// Fields without a rule are copied unchanged.
func GeneralizeRecord(record Record, rules []Rule) Record {
	byField := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byField[r.Field] = r
	}

	out := make(Record, len(record))
	for field, value := range record {
		if rule, ok := byField[field]; ok {
			out[field] = GeneralizeValue(field, value, rule)
		} else {
			out[field] = value
		}
	}
	return out
}

// GeneralizeRecords applies GeneralizeRecord across a slice.
func GeneralizeRecords(records []Record, rules []Rule) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = GeneralizeRecord(r, rules)
	}
	return out
}

func generalizeAge(value interface{}, level Level) interface{} {
	age, ok := toFloat(value)
	if !ok {
		return value
	}

	var width int
	switch level {
	case LevelMinimal:
		width = 5
	case LevelFull:
		width = 20
	default:
		width = 10
	}
	return bucketLabel(age, width)
}

func generalizeDate(value interface{}, level Level) interface{} {
	t, ok := toTime(value)
	if !ok {
		return value
	}

	switch level {
	case LevelMinimal:
		return t.Format("2006-01")
	case LevelFull:
		return t.Format("2006")
	default:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
	}
}

func generalizeRegion(value interface{}, level Level) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}

	switch level {
	case LevelMinimal:
		return s
	case LevelFull:
		return "*"
	default:
		if region, ok := macroRegions[strings.ToLower(strings.TrimSpace(s))]; ok {
			return region
		}
		return "other"
	}
}

func generalizeNumeric(value interface{}, level Level) interface{} {
	n, ok := toFloat(value)
	if !ok {
		// Passthrough for non-numeric fields with no dedicated handler.
		return value
	}

	var width int
	switch level {
	case LevelMinimal:
		width = 10
	case LevelFull:
		width = 1000
	default:
		width = 100
	}
	return bucketLabel(n, width)
}

func bucketLabel(n float64, width int) string {
	lo := int(math.Floor(n/float64(width))) * width
	return fmt.Sprintf("%d-%d", lo, lo+width-1)
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02", "2006-01"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
