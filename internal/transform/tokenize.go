package transform

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Tokenize replaces a value with a surrogate token. Irreversible tokens are
// deterministic: the same input and options always produce the same token.
// Reversible mode encrypts under the caller's key and is rejected without one.
func Tokenize(value string, opts TokenizeOptions) (string, error) {
	if opts.Reversible {
		if opts.EncryptionKey == "" {
			return "", ErrEncryptionKeyRequired
		}
		sealed, err := encryptString(value, opts.EncryptionKey)
		if err != nil {
			return "", err
		}
		return tokenPrefix + sealed, nil
	}

	format := opts.Format
	if format == "" {
		format = FormatHash
	}

	switch format {
	case FormatHash:
		sum := digest(value)
		return hex.EncodeToString(sum[:]), nil
	case FormatUUID:
		// Name-based UUID: deterministic, UUID-shaped.
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(value)).String(), nil
	case FormatNumeric:
		return numericToken(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// numericToken maps digest bytes onto decimal digits, padding from the
// digest itself so the token is always numericTokenLength digits.
func numericToken(value string) string {
	sum := digest(value)
	out := make([]byte, numericTokenLength)
	for i := range out {
		out[i] = '0' + sum[i%len(sum)]%10
	}
	return string(out)
}

// Detokenize recovers the original value from a reversible token.
func Detokenize(token, encryptionKey string) (string, error) {
	if encryptionKey == "" {
		return "", ErrEncryptionKeyRequired
	}
	if len(token) < len(tokenPrefix) || token[:len(tokenPrefix)] != tokenPrefix {
		return "", ErrInvalidToken
	}
	return decryptString(token[len(tokenPrefix):], encryptionKey)
}

// TokenizeFields tokenizes the named fields of a record, converting
// non-string values through their default formatting first. Fields absent
// from the record are skipped.
func TokenizeFields(record Record, fields []string, opts TokenizeOptions) (Record, error) {
	targets := fieldSet(fields)

	out := make(Record, len(record))
	for field, value := range record {
		if !targets[field] {
			out[field] = value
			continue
		}
		token, err := Tokenize(stringify(value), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize field %q: %w", field, err)
		}
		out[field] = token
	}
	return out, nil
}

// TokenizeFieldsInSlice applies TokenizeFields across a slice of records.
func TokenizeFieldsInSlice(records []Record, fields []string, opts TokenizeOptions) ([]Record, error) {
	out := make([]Record, len(records))
	for i, r := range records {
		tokenized, err := TokenizeFields(r, fields, opts)
		if err != nil {
			return nil, err
		}
		out[i] = tokenized
	}
	return out, nil
}

func stringify(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
