package github

import "github.com/poiesic/devscout/core"

// Dedupe removes duplicate logins while preserving first-seen order.
// Search pagination routinely returns the same user on adjacent pages, so
// this runs between discovery and the batch fetch. Comparison is exact:
// the API reports each login with stable casing.
func Dedupe(logins []core.Identifier) []core.Identifier {
	if len(logins) == 0 {
		return logins
	}

	seen := make(map[core.Identifier]struct{}, len(logins))
	unique := make([]core.Identifier, 0, len(logins))
	for _, login := range logins {
		if _, ok := seen[login]; ok {
			continue
		}
		seen[login] = struct{}{}
		unique = append(unique, login)
	}
	return unique
}
