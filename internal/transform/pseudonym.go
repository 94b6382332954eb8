package transform

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Pseudonymize replaces an identifier with a shorter surrogate. The
// irreversible form is a truncated deterministic digest; the reversible form
// encrypts under the caller's key. Prefix and suffix decorate either form.
func Pseudonymize(value string, opts PseudonymizeOptions) (string, error) {
	var core string
	if opts.Reversible {
		if opts.EncryptionKey == "" {
			return "", ErrEncryptionKeyRequired
		}
		sealed, err := encryptString(value, opts.EncryptionKey)
		if err != nil {
			return "", err
		}
		core = sealed
	} else {
		sum := digest(value)
		core = hex.EncodeToString(sum[:])[:pseudonymLength]
	}
	return opts.Prefix + core + opts.Suffix, nil
}

// Depseudonymize strips the prefix/suffix and decrypts a reversible
// pseudonym. Irreversible pseudonyms cannot be recovered.
func Depseudonymize(pseudonym string, opts PseudonymizeOptions) (string, error) {
	if opts.EncryptionKey == "" {
		return "", ErrEncryptionKeyRequired
	}

	core := pseudonym
	if opts.Prefix != "" {
		if !strings.HasPrefix(core, opts.Prefix) {
			return "", ErrInvalidToken
		}
		core = core[len(opts.Prefix):]
	}
	if opts.Suffix != "" {
		if !strings.HasSuffix(core, opts.Suffix) {
			return "", ErrInvalidToken
		}
		core = core[:len(core)-len(opts.Suffix)]
	}

	return decryptString(core, opts.EncryptionKey)
}

// PseudonymizeFields pseudonymizes the named fields of a record.
func PseudonymizeFields(record Record, fields []string, opts PseudonymizeOptions) (Record, error) {
	targets := fieldSet(fields)

	out := make(Record, len(record))
	for field, value := range record {
		if !targets[field] {
			out[field] = value
			continue
		}
		p, err := Pseudonymize(stringify(value), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to pseudonymize field %q: %w", field, err)
		}
		out[field] = p
	}
	return out, nil
}

// PseudonymizeFieldsInSlice applies PseudonymizeFields across a slice.
func PseudonymizeFieldsInSlice(records []Record, fields []string, opts PseudonymizeOptions) ([]Record, error) {
	out := make([]Record, len(records))
	for i, r := range records {
		p, err := PseudonymizeFields(r, fields, opts)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
