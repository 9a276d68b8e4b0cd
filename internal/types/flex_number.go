package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexInt is an int that can be unmarshaled from either a JSON number or a JSON string.
// Form posts send numeric fields as strings.
type FlexInt int

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		val, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("FlexInt: invalid integer string %q: %w", s, err)
		}
		*f = FlexInt(val)
		return nil
	}

	return fmt.Errorf("FlexInt: unexpected type, expected number or string")
}

// Int converts FlexInt back to int.
func (f FlexInt) Int() int {
	return int(f)
}

// FlexDuration decodes a duration from a JSON number of milliseconds, a numeric string of
// milliseconds, or a Go duration string such as "24h". Millisecond values are kept as sent
// so the caller decides what counts as a valid window.
type FlexDuration struct {
	millis   float64
	d        time.Duration
	isString bool
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexDuration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		*f = FlexDuration{millis: ms}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("FlexDuration: unexpected type, expected number or string")
	}
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexDuration{millis: v}
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("FlexDuration: invalid duration %q: %w", s, err)
	}
	*f = FlexDuration{d: d, isString: true}
	return nil
}

// Millis returns the millisecond count as sent. ok is false for duration strings.
func (f FlexDuration) Millis() (ms float64, ok bool) {
	return f.millis, !f.isString
}

// Duration returns the value of a duration string. ok is false for millisecond values.
func (f FlexDuration) Duration() (d time.Duration, ok bool) {
	return f.d, f.isString
}
