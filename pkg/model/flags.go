package model

import (
	"fmt"
	"strings"
)

// RequestFlags selects which analyses a request runs.
type RequestFlags uint32

const (
	None                   RequestFlags = 0
	NoTelemetry            RequestFlags = 1 << 0
	ShowNonPortableApis    RequestFlags = 1 << 1
	ShowBreakingChanges    RequestFlags = 1 << 2
	ShowRetargettingIssues RequestFlags = 1 << 3
)

var flagNames = []struct {
	flag RequestFlags
	name string
}{
	{NoTelemetry, "notelemetry"},
	{ShowNonPortableApis, "nonportable"},
	{ShowBreakingChanges, "breaking"},
	{ShowRetargettingIssues, "retargeting"},
}

// Has reports whether every bit of flag is set.
func (f RequestFlags) Has(flag RequestFlags) bool {
	return f&flag == flag
}

func (f RequestFlags) String() string {
	if f == None {
		return "none"
	}
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseRequestFlags parses a comma separated list such as "nonportable,breaking".
func ParseRequestFlags(s string) (RequestFlags, error) {
	var flags RequestFlags
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "none" {
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == part {
				flags |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown request flag %q", part)
		}
	}
	return flags, nil
}
