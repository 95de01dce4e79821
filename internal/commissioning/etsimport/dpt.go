package etsimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDPTComplete = regexp.MustCompile(`^\d+\.\d{3}$`)
	reDPST        = regexp.MustCompile(`^DPST-(\d+)-(\d+)$`)
	reDPT         = regexp.MustCompile(`^DPT-(\d+)$`)
	reDPTPartial  = regexp.MustCompile(`^(\d+)\.(\d+)$`)
)

// normaliseDPT converts an ETS datapoint reference to "main.sub" form.
//
//	DPST-1-1 → 1.001
//	DPT-9    → 9
//	5.1      → 5.001
//
// Only the first entry of a space-separated list is used. Unknown formats
// are returned trimmed and unchanged.
func normaliseDPT(dpt string) string {
	fields := strings.Fields(dpt)
	if len(fields) == 0 {
		return ""
	}
	first := fields[0]

	if reDPTComplete.MatchString(first) {
		return first
	}
	if m := reDPST.FindStringSubmatch(first); m != nil {
		return formatDPT(m[1], m[2])
	}
	if m := reDPT.FindStringSubmatch(first); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return m[1] // out of int range, keep the digits as written
		}
		return strconv.Itoa(n)
	}
	if m := reDPTPartial.FindStringSubmatch(first); m != nil {
		return formatDPT(m[1], m[2])
	}
	return first
}

func formatDPT(main, sub string) string {
	mainN, err1 := strconv.Atoi(main)
	subN, err2 := strconv.Atoi(sub)
	if err1 != nil || err2 != nil {
		return main + "." + sub // out of int range, keep the digits as written
	}
	return fmt.Sprintf("%d.%03d", mainN, subN)
}
