package dataset

import (
	"fmt"
	"strings"
)

// Split is the partition a record belongs to.
type Split string

const (
	Train Split = "train"
	Dev   Split = "dev"
	Test  Split = "test"
)

// Splits lists every split in canonical order.
var Splits = []Split{Train, Dev, Test}

func (split Split) String() string {
	return string(split)
}

// Valid reports whether split is one of train, dev or test.
func (split Split) Valid() bool {
	switch split {
	case Train, Dev, Test:
		return true
	default:
		return false
	}
}

// ParseSplit accepts the canonical names case-insensitively.
func ParseSplit(raw string) (Split, error) {
	split := Split(strings.ToLower(strings.TrimSpace(raw)))
	if !split.Valid() {
		return "", fmt.Errorf("unknown split %q", raw)
	}
	return split, nil
}
