package ports

import "strings"

// Filter selects ports by case-insensitive substring of their name.
// An empty Include matches every port; Exclude wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

func (f Filter) Match(name string) bool {
	name = strings.ToLower(name)
	for _, s := range f.Exclude {
		if strings.Contains(name, strings.ToLower(s)) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, s := range f.Include {
		if strings.Contains(name, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
