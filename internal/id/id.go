package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatVerificationID returns a verification number like "A2024-0001".
func FormatVerificationID(series string, year, seq int) string {
	return fmt.Sprintf("%s%04d-%04d", series, year, seq)
}

// ParseVerificationID parses "A2024-0001" into series, year and sequence.
// The series is the leading run of letters and may be empty.
func ParseVerificationID(id string) (series string, year, seq int, err error) {
	i := 0
	for i < len(id) && isLetter(id[i]) {
		i++
	}
	series = id[:i]

	yearPart, seqPart, ok := strings.Cut(id[i:], "-")
	if !ok || len(yearPart) != 4 || seqPart == "" {
		return "", 0, 0, fmt.Errorf("invalid verification ID format: %q", id)
	}

	year, err = strconv.Atoi(yearPart)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid year in verification ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(seqPart)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid sequence in verification ID %q: %w", id, err)
	}
	if seq <= 0 {
		return "", 0, 0, fmt.Errorf("invalid sequence in verification ID %q: must be positive", id)
	}

	return series, year, seq, nil
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}
