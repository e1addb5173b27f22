package invite

// ClassifiedSet partitions candidates into valid and invalid addresses.
// A candidate equal to the excluded value is in neither slice.
type ClassifiedSet struct {
	Valid   []string
	Invalid []string
}

// Classify splits candidates using isValid, dropping any candidate equal to
// excluded. The sender cannot invite themselves, and their own address is not
// reported as a validation error either. Comparison with excluded is exact.
func Classify(candidates []string, isValid func(string) bool, excluded string) ClassifiedSet {
	set := ClassifiedSet{
		Valid:   []string{},
		Invalid: []string{},
	}

	for _, candidate := range candidates {
		if candidate == excluded {
			continue
		}
		if isValid(candidate) {
			set.Valid = append(set.Valid, candidate)
		} else {
			set.Invalid = append(set.Invalid, candidate)
		}
	}

	return set
}
