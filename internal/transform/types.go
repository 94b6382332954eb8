package transform

import "errors"

// Record is a generic field/value document, the unit every transform
// operates on. Transforms never mutate their input; they return copies.
type Record = map[string]interface{}

// Level selects how coarse a generalized value becomes.
type Level string

const (
	// LevelMinimal keeps the most detail (narrow buckets, month precision).
	LevelMinimal Level = "minimal"
	// LevelPartial is the middle ground and the default for k-anonymity passes.
	LevelPartial Level = "partial"
	// LevelFull keeps the least detail.
	LevelFull Level = "full"
)

// Rule declares how one field is generalized. Rules are owned by the caller
// and passed into every generalize/anonymize call; Custom overrides the
// built-in handlers when set.
type Rule struct {
	Field  string
	Level  Level
	Custom func(interface{}) interface{}
}

// SuppressMode selects between dropping a field and masking its value.
type SuppressMode string

const (
	SuppressRemove SuppressMode = "remove"
	SuppressMask   SuppressMode = "mask"
)

// TokenFormat is the closed set of irreversible token shapes.
type TokenFormat string

const (
	FormatHash    TokenFormat = "hash"
	FormatUUID    TokenFormat = "uuid"
	FormatNumeric TokenFormat = "numeric"
)

// TokenizeOptions controls Tokenize. Reversible mode requires EncryptionKey.
type TokenizeOptions struct {
	Format        TokenFormat // default hash
	Reversible    bool
	EncryptionKey string
}

// PseudonymizeOptions controls Pseudonymize. Reversible mode requires
// EncryptionKey; Prefix/Suffix decorate the output either way.
type PseudonymizeOptions struct {
	Reversible    bool
	EncryptionKey string
	Prefix        string
	Suffix        string
}

// CleanOptions selects which values CleanRecord strips.
type CleanOptions struct {
	RemoveEmptyStrings bool
	RemoveNils         bool
	RemoveDuplicates   bool // applies within slices
}

var (
	// ErrEncryptionKeyRequired rejects a reversible transform called without a key.
	ErrEncryptionKeyRequired = errors.New("encryption key required for reversible transform")
	// ErrUnknownFormat rejects a token format outside the closed set.
	ErrUnknownFormat = errors.New("unknown token format")
	// ErrInvalidToken rejects ciphertext that is malformed or was produced
	// with a different key.
	ErrInvalidToken = errors.New("invalid or corrupted token")
)

const (
	// tokenPrefix marks reversible tokens so they are recognizable in stored data.
	tokenPrefix = "tok_"
	// maskFixedLength is the mask width used for non-string values.
	maskFixedLength = 10
	// pseudonymLength is the hex length of an irreversible pseudonym.
	pseudonymLength = 16
	// numericTokenLength is the digit count of a numeric-format token.
	numericTokenLength = 16
)
