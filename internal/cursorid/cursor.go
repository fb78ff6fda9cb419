package cursorid

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// stampLen is the length of the embedded YYYYMMDDHHmmssSSS timestamp
const stampLen = 17

// ErrInvalid is returned for ids that don't carry a <model>-<timestamp> suffix
var ErrInvalid = errors.New("invalid cursor id")

// ID is a parsed Civitai generation cursor
// Format: "<model-id>-<YYYYMMDDHHmmssSSS>"
// The embedded timestamp orders pages newest-first
type ID struct {
	Raw   string    // Full token as issued upstream
	Model string    // Everything before the last '-'
	Stamp string    // 17-digit timestamp suffix
	Time  time.Time // Stamp decoded as UTC with millisecond precision
}

// Parse decodes a cursor token
// Splits on the last '-' so model ids containing dashes still parse
func Parse(s string) (ID, error) {
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	stamp := s[i+1:]
	if len(stamp) != stampLen || !allDigits(stamp) {
		return ID{}, fmt.Errorf("%w: %q: timestamp must be %d digits", ErrInvalid, s, stampLen)
	}

	t, err := time.ParseInLocation("20060102150405", stamp[:14], time.UTC)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}

	var ms int
	for _, c := range stamp[14:] {
		ms = ms*10 + int(c-'0')
	}

	return ID{
		Raw:   s,
		Model: s[:i],
		Stamp: stamp,
		Time:  t.Add(time.Duration(ms) * time.Millisecond),
	}, nil
}

// Timestamp returns the time embedded in a cursor token
func Timestamp(s string) (time.Time, error) {
	id, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return id.Time, nil
}

// Newer reports whether id sorts ahead of other in a newest-first chain
// Ties on the timestamp fall back to the raw token so ordering stays total
func (id ID) Newer(other ID) bool {
	if id.Stamp != other.Stamp {
		return id.Stamp > other.Stamp
	}
	return id.Raw > other.Raw
}

// String returns the raw token
func (id ID) String() string {
	return id.Raw
}

// Newer compares two raw tokens, see ID.Newer
// Unparsable tokens always sort after parsable ones
func Newer(a, b string) bool {
	pa, errA := Parse(a)
	pb, errB := Parse(b)
	switch {
	case errA == nil && errB == nil:
		return pa.Newer(pb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a > b
	}
}

// Sort orders raw tokens newest-first in place
func Sort(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return Newer(ids[i], ids[j])
	})
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
