package invite

import "strings"

// Normalize splits raw multi-line input into candidates.
// Lines are trimmed, blank lines dropped and duplicates removed, keeping the
// order in which each value was first seen.
func Normalize(raw string) []string {
	lines := strings.Split(raw, "\n")
	seen := make(map[string]struct{}, len(lines))
	candidates := make([]string, 0, len(lines))

	for _, line := range lines {
		candidate := strings.TrimSpace(line)
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		candidates = append(candidates, candidate)
	}

	return candidates
}
