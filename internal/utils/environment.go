package utils

import "maps"

// MergeEnvironment merges environment variable maps with later maps having higher precedence.
// Returns nil when the result is empty so unset environments are omitted from API requests.
func MergeEnvironment(ee ...map[string]string) map[string]string {
	m := map[string]string{}
	for _, e := range ee {
		maps.Copy(m, e)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
