package knx

import (
	"fmt"
	"strconv"
	"strings"
)

// Coupler kinds derived from an individual address ending in device 0.
const (
	CouplerBackbone = "backbone"
	CouplerArea     = "area"
	CouplerLine     = "line"
)

// ShortID returns the last "_"-separated segment of an ETS identifier.
//
// Example: "P-0123-0_DI-7" → "DI-7"
func ShortID(fullID string) string {
	if i := strings.LastIndex(fullID, "_"); i >= 0 {
		return fullID[i+1:]
	}
	return fullID
}

// FormatIndividualAddress builds the display form of a device address from
// its topology parts. Empty parts are treated as missing.
//
// A device part that already contains a dot is returned unchanged. When
// parts are missing a placeholder is produced so the device stays
// addressable:
//
//	area line device   → "1.2.3"
//	area line -        → "1.2.- (DI-7)"
//	area -    device   → "1.-.3"
//	-    line device   → "-.2.3"
//	area -    -        → "1.-.- (DI-7)"
//	-    line -        → "-.2.- (DI-7)"
//	-    -    device   → "3"
//	-    -    -        → "DI-7"
func FormatIndividualAddress(area, line, device, instanceID string) string {
	area = strings.TrimSpace(area)
	line = strings.TrimSpace(line)
	device = strings.TrimSpace(device)

	if strings.Contains(device, ".") {
		return device
	}

	short := ShortID(instanceID)
	hasArea, hasLine, hasDevice := area != "", line != "", device != ""

	switch {
	case hasArea && hasLine && hasDevice:
		return fmt.Sprintf("%s.%s.%s", area, line, device)
	case hasArea && hasLine:
		return fmt.Sprintf("%s.%s.- (%s)", area, line, short)
	case hasArea && hasDevice:
		return fmt.Sprintf("%s.-.%s", area, device)
	case hasLine && hasDevice:
		return fmt.Sprintf("-.%s.%s", line, device)
	case hasArea:
		return fmt.Sprintf("%s.-.- (%s)", area, short)
	case hasLine:
		return fmt.Sprintf("-.%s.- (%s)", line, short)
	case hasDevice:
		return device
	default:
		return short
	}
}

// AreaLine extracts the purely numeric area and line parts of a formatted
// individual address. A part that is missing or not all digits is returned
// as the empty string.
func AreaLine(address string) (area, line string) {
	parts := strings.Split(strings.TrimSpace(address), ".")
	if len(parts) > 0 {
		area = digitsOnly(parts[0])
	}
	if len(parts) > 1 {
		line = digitsOnly(parts[1])
	}
	return area, line
}

// CouplerKind reports which coupler an address denotes, or "" when the
// address is not a coupler address (device part 0).
func CouplerKind(address string) string {
	parts := strings.Split(address, ".")
	if len(parts) < 3 {
		return ""
	}
	area, okA := leadingNumber(parts[0])
	line, okL := leadingNumber(parts[1])
	device, okD := leadingNumber(parts[2])
	if !okD || device != 0 || !okA || !okL {
		return ""
	}
	switch {
	case line == 0 && area == 0:
		return CouplerBackbone
	case line == 0:
		return CouplerArea
	default:
		return CouplerLine
	}
}

func digitsOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// leadingNumber parses the leading run of ASCII digits, so "0 (DI-1)" → 0.
func leadingNumber(s string) (uint16, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:end], 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
