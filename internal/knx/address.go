package knx

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupAddressStyle selects how a 16-bit group address is rendered.
type GroupAddressStyle int

const (
	// StyleThreeLevel renders Main/Middle/Sub (5/3/8 bits). It is the default.
	StyleThreeLevel GroupAddressStyle = iota

	// StyleTwoLevel renders Main/Sub (5/11 bits).
	StyleTwoLevel

	// StyleFree renders the raw decimal value.
	StyleFree
)

// Group address part limits.
const (
	maxMain      = 31
	maxMiddle    = 7
	maxSub       = 255
	maxTwoLevel  = 2047
	gaMainMask   = 0x1F  // 5 bits
	gaMiddleMask = 0x07  // 3 bits
	gaSubMask    = 0xFF  // 8 bits
	gaTwoSubMask = 0x7FF // 11 bits
)

// String returns the style name as used in configuration files.
func (s GroupAddressStyle) String() string {
	switch s {
	case StyleTwoLevel:
		return "two_level"
	case StyleFree:
		return "free"
	default:
		return "three_level"
	}
}

// ParseGroupAddressStyle maps a style name to a GroupAddressStyle.
//
// Anything mentioning "two" or "2" selects the 2-level style, anything
// mentioning "free" or "16" selects the free style. Everything else,
// including the empty string, falls back to 3-level.
func ParseGroupAddressStyle(value string) GroupAddressStyle {
	raw := strings.ToLower(strings.TrimSpace(value))
	if strings.Contains(raw, "two") || strings.Contains(raw, "2") {
		return StyleTwoLevel
	}
	if strings.Contains(raw, "free") || strings.Contains(raw, "16") {
		return StyleFree
	}
	return StyleThreeLevel
}

// GroupAddress is a raw 16-bit KNX group address plus the style used to
// render it.
type GroupAddress struct {
	Value uint16
	Style GroupAddressStyle
}

// Main returns the main group (bits 15-11).
func (ga GroupAddress) Main() uint16 {
	return (ga.Value >> 11) & gaMainMask
}

// String renders the address in its style.
//
// Examples for value 2305: "1/1/1" (3-level), "1/257" (2-level), "2305" (free).
func (ga GroupAddress) String() string {
	switch ga.Style {
	case StyleTwoLevel:
		return fmt.Sprintf("%d/%d", ga.Main(), ga.Value&gaTwoSubMask)
	case StyleFree:
		return strconv.FormatUint(uint64(ga.Value), 10)
	default:
		return fmt.Sprintf("%d/%d/%d", ga.Main(), (ga.Value>>8)&gaMiddleMask, ga.Value&gaSubMask)
	}
}

// FormatGroupAddress renders a raw value in the given style.
func FormatGroupAddress(value uint16, style GroupAddressStyle) string {
	return GroupAddress{Value: value, Style: style}.String()
}

// ParseGroupAddress parses a rendered group address back into its raw value.
//
// Accepts formats:
//   - "1/2/3" for 3-level
//   - "1/515" for 2-level
//   - "2563" for free
//
// Returns ErrInvalidGroupAddress when a part is not numeric or out of range.
func ParseGroupAddress(s string) (GroupAddress, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")

	switch len(parts) {
	case 1:
		v, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return GroupAddress{}, fmt.Errorf("%w: free address must be 0-65535, got %q", ErrInvalidGroupAddress, s)
		}
		return GroupAddress{Value: uint16(v), Style: StyleFree}, nil

	case 2:
		main, err := parsePart(parts[0], maxMain)
		if err != nil {
			return GroupAddress{}, fmt.Errorf("%w: main group must be 0-%d, got %q", ErrInvalidGroupAddress, maxMain, parts[0])
		}
		sub, err := parsePart(parts[1], maxTwoLevel)
		if err != nil {
			return GroupAddress{}, fmt.Errorf("%w: sub group must be 0-%d, got %q", ErrInvalidGroupAddress, maxTwoLevel, parts[1])
		}
		return GroupAddress{Value: main<<11 | sub, Style: StyleTwoLevel}, nil

	case 3:
		main, err := parsePart(parts[0], maxMain)
		if err != nil {
			return GroupAddress{}, fmt.Errorf("%w: main group must be 0-%d, got %q", ErrInvalidGroupAddress, maxMain, parts[0])
		}
		middle, err := parsePart(parts[1], maxMiddle)
		if err != nil {
			return GroupAddress{}, fmt.Errorf("%w: middle group must be 0-%d, got %q", ErrInvalidGroupAddress, maxMiddle, parts[1])
		}
		sub, err := parsePart(parts[2], maxSub)
		if err != nil {
			return GroupAddress{}, fmt.Errorf("%w: sub group must be 0-%d, got %q", ErrInvalidGroupAddress, maxSub, parts[2])
		}
		return GroupAddress{Value: main<<11 | middle<<8 | sub, Style: StyleThreeLevel}, nil
	}

	return GroupAddress{}, fmt.Errorf("%w: unexpected format %q", ErrInvalidGroupAddress, s)
}

func parsePart(s string, limit uint64) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, err
	}
	if v > limit {
		return 0, ErrInvalidGroupAddress
	}
	return uint16(v), nil //nolint:gosec // bounded by limit above
}
