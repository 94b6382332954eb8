package pii

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
)

// Detector scans text and structured values for PII using a pattern catalog.
// Detection is stateless; a Detector is safe for concurrent use.
type Detector struct {
	catalog *Catalog
	logger  *logger.Logger
}

// NewDetector creates a detector over the given catalog. A nil catalog
// selects DefaultCatalog; a nil logger discards output.
func NewDetector(catalog *Catalog, log *logger.Logger) *Detector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Detector{
		catalog: catalog,
		logger:  log.WithComponent("pii-detector"),
	}
}

// Detect scans text against the catalog and returns classified entities in
// first-match order (catalog order, then offset within a pattern). Matches
// sharing (type, value, offset) are deduplicated. A match whose validator
// fails has its confidence halved before the MinConfidence cutoff.
func (d *Detector) Detect(text string, opts Options) []Entity {
	minConfidence := opts.MinConfidence
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}

	var wanted map[EntityType]bool
	if len(opts.Types) > 0 {
		wanted = make(map[EntityType]bool, len(opts.Types))
		for _, t := range opts.Types {
			wanted[t] = true
		}
	}

	entities := make([]Entity, 0)
	seen := make(map[string]bool)

	for _, pattern := range d.catalog.Patterns() {
		if wanted != nil && !wanted[pattern.Type] {
			continue
		}

		for _, loc := range pattern.Regexp.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			value := text[start:end]

			confidence := pattern.BaseConfidence
			if pattern.Validator != nil && !pattern.Validator(value) {
				confidence /= 2
			}
			if confidence < minConfidence {
				continue
			}

			key := fmt.Sprintf("%s|%s|%d", pattern.Type, value, start)
			if seen[key] {
				continue
			}
			seen[key] = true

			entity := Entity{
				Type:  pattern.Type,
				Tier:  TierFor(pattern.Type),
				Value: value,
			}
			if opts.Detailed {
				entity.Start = start
				entity.End = end
				entity.Confidence = confidence
			}
			entities = append(entities, entity)
		}
	}

	if len(entities) > 0 {
		d.logger.Debug("PII detected",
			zap.Int("entities", len(entities)),
			zap.Int("text_bytes", len(text)),
		)
	}

	return entities
}

// DetectInValue recursively scans maps, slices, arrays, structs, and pointers
// for string leaves and runs Detect over each, annotating results with the
// field path (e.g. "user.contact.email", "contacts[0]"). Cycles are broken
// with a visited set keyed by reference identity and a depth cap; non-string
// leaves are skipped silently.
func (d *Detector) DetectInValue(v interface{}, opts Options) []FieldEntity {
	results := make([]FieldEntity, 0)
	visited := make(map[visitKey]bool)
	d.walk(reflect.ValueOf(v), "", 0, visited, opts, &results)
	return results
}

// visitKey identifies a traversed reference. Slices carry their length so
// two slices over the same backing array are walked independently.
type visitKey struct {
	ptr uintptr
	len int
}

func (d *Detector) walk(v reflect.Value, path string, depth int, visited map[visitKey]bool, opts Options, out *[]FieldEntity) {
	if !v.IsValid() || depth > maxWalkDepth {
		return
	}

	switch v.Kind() {
	case reflect.String:
		for _, e := range d.Detect(v.String(), opts) {
			*out = append(*out, FieldEntity{Entity: e, FieldPath: path})
		}

	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return
		}
		if v.Kind() == reflect.Ptr {
			key := visitKey{ptr: v.Pointer()}
			if visited[key] {
				return
			}
			visited[key] = true
		}
		d.walk(v.Elem(), path, depth+1, visited, opts, out)

	case reflect.Map:
		if v.IsNil() {
			return
		}
		mapKey := visitKey{ptr: v.Pointer()}
		if visited[mapKey] {
			return
		}
		visited[mapKey] = true
		for _, key := range v.MapKeys() {
			if key.Kind() != reflect.String {
				continue
			}
			d.walk(v.MapIndex(key), joinPath(path, key.String()), depth+1, visited, opts, out)
		}

	case reflect.Slice:
		if v.IsNil() {
			return
		}
		key := visitKey{ptr: v.Pointer(), len: v.Len()}
		if visited[key] {
			return
		}
		visited[key] = true
		for i := 0; i < v.Len(); i++ {
			d.walk(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1, visited, opts, out)
		}

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			d.walk(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1, visited, opts, out)
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			d.walk(v.Field(i), joinPath(path, t.Field(i).Name), depth+1, visited, opts, out)
		}
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

// HasPII reports whether text contains at least one entity above the cutoff.
func (d *Detector) HasPII(text string, opts Options) bool {
	return len(d.Detect(text, opts)) > 0
}

// CountPII returns per-type counts of detected entities.
func (d *Detector) CountPII(text string, opts Options) map[EntityType]int {
	counts := make(map[EntityType]int)
	for _, e := range d.Detect(text, opts) {
		counts[e.Type]++
	}
	return counts
}
