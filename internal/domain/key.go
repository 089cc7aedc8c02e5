package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedKey is returned when an id_year value has no numeric year part.
var ErrMalformedKey = errors.New("malformed id_year key")

// Key identifies one tracked subject within one calendar year.
type Key struct {
	ID   string
	Year int
}

// ParseKey splits "<id>_<year>" on the first underscore. The year part must be
// a non-empty run of ASCII digits.
func ParseKey(s string) (Key, error) {
	id, year, ok := strings.Cut(s, "_")
	if !ok || id == "" || !isDigits(year) {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	return Key{ID: id, Year: y}, nil
}

// ParseKeys parses every value, failing on the first malformed one.
func ParseKeys(values []string) ([]Key, error) {
	keys := make([]Key, 0, len(values))
	for _, v := range values {
		k, err := ParseKey(v)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// String returns the "<id>_<year>" text form.
func (k Key) String() string {
	return k.ID + "_" + strconv.Itoa(k.Year)
}

// MarshalText lets keys serialize as their text form in JSON.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the text form, rejecting malformed keys.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
