package rf2

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
)

// DecodeSctID parses an SCTID field. Empty strings and the reserved value
// zero are rejected.
func DecodeSctID(value string) (snomed.SctID, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidSctID, value)
	}
	return id, nil
}

// DecodeSctIDWithTerm parses an SCTID that may carry the term in pipe
// notation, e.g. "71388002 |Procedure (procedure)|". Only the leading
// numeric token is consumed.
func DecodeSctIDWithTerm(value string) (snomed.SctID, error) {
	numeric, _, _ := strings.Cut(strings.TrimSpace(value), " ")
	if numeric == "" {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidSctID, value)
	}
	return DecodeSctID(numeric)
}

// DecodeOptionalSctID parses an SCTID field that may legitimately be empty
// (e.g. MRCM parentDomain). Empty yields zero, which no real component uses.
func DecodeOptionalSctID(value string) (snomed.SctID, error) {
	if value == "" {
		return 0, nil
	}
	return DecodeSctIDWithTerm(value)
}

// DecodeBool parses an RF2 boolean: "1" is true, "0" is false, anything
// else is an error.
func DecodeBool(value string) (bool, error) {
	switch value {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q (expected 0 or 1)", errors.ErrInvalidBoolean, value)
	}
}

// DecodeEffectiveTime parses an 8-digit YYYYMMDD date. Only length and
// digits are checked; semantic calendar validity is not enforced.
func DecodeEffectiveTime(value string) (uint32, error) {
	if len(value) != 8 {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidDate, value)
	}
	t, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidDate, value)
	}
	return uint32(t), nil
}

// DecodeGroup parses a role group number.
func DecodeGroup(value string) (uint16, error) {
	g, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidInteger, value)
	}
	return uint16(g), nil
}
