package rota

import (
	"regexp"
	"strings"
)

var (
	bracketGroupRe = regexp.MustCompile(`\(([^)]*)\)|\[([^\]]*)\]`)
	roleSplitRe    = regexp.MustCompile(`[,;&|]`)
)

// ExtractRoles pulls staffing-role labels out of parenthesized and
// bracketed substrings, splitting each group on the usual separators.
// Order is preserved and duplicates are kept: downstream checks are
// substring membership, so repetition is harmless.
func ExtractRoles(text string) []string {
	var roles []string
	for _, group := range bracketGroupRe.FindAllStringSubmatch(text, -1) {
		// Exactly one of the two captures is set depending on the
		// delimiter that matched.
		content := group[1] + group[2]
		for _, token := range roleSplitRe.Split(content, -1) {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			roles = append(roles, token)
		}
	}
	return roles
}
