package pii

import "regexp"

// EntityType identifies a category of personally identifiable information.
type EntityType string

const (
	TypeEmail         EntityType = "email"
	TypePhone         EntityType = "phone"
	TypeIDNumber      EntityType = "id_number"
	TypePassport      EntityType = "passport"
	TypeDriverLicense EntityType = "driver_license"
	TypeBankCard      EntityType = "bank_card"
	TypeIP            EntityType = "ip"
	TypeName          EntityType = "name"
	TypeAddress       EntityType = "address"
	TypeDateOfBirth   EntityType = "date_of_birth"
)

// Tier is the sensitivity classification of an entity type.
type Tier string

const (
	// TierDirect identifies a person on its own.
	TierDirect Tier = "direct_identifier"
	// TierQuasi identifies a person only in combination with other attributes.
	TierQuasi Tier = "quasi_identifier"
	// TierSensitive is data that must be protected regardless of identifiability.
	TierSensitive Tier = "sensitive_attribute"
)

// Entity represents a single PII detection result
type Entity struct {
	Type       EntityType `json:"type"`
	Tier       Tier       `json:"tier"`
	Value      string     `json:"value"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Confidence float64    `json:"confidence"`
}

// FieldEntity is an Entity found inside a structured value, annotated with
// the dotted/bracketed path of the field it was found in.
type FieldEntity struct {
	Entity
	FieldPath string `json:"fieldPath"`
}

// Pattern represents a single PII detection pattern
type Pattern struct {
	Type           EntityType
	Regexp         *regexp.Regexp
	BaseConfidence float64
	// Validator performs a format/checksum check on a raw match. A failing
	// validator halves the match confidence rather than discarding it.
	Validator func(string) bool
}

// Options controls a detection pass.
type Options struct {
	// Types restricts detection to the listed entity types. Empty means all.
	Types []EntityType
	// MinConfidence is the cutoff applied after validation. The zero value
	// selects DefaultMinConfidence; pass a negative value to disable the cutoff.
	MinConfidence float64
	// Detailed includes offsets and confidence on returned entities.
	Detailed bool
}

// DefaultMinConfidence is the confidence cutoff used when Options leaves it unset.
const DefaultMinConfidence = 0.5

// maxWalkDepth caps structural recursion in DetectInValue.
const maxWalkDepth = 64
