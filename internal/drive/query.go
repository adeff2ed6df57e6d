package drive

import "strings"

// baseQuery restricts results to non-trashed files owned by the user.
const baseQuery = "trashed = false and 'me' in owners"

// cleanName strips quotes from a user supplied name filter. When the model
// passes a Drive query fragment such as "name contains 'budget'" only its
// last word is kept. markers lists the fragments that trigger this.
func cleanName(filter string, markers ...string) string {
	clean := strings.NewReplacer("'", "", `"`, "").Replace(filter)
	for _, m := range markers {
		if strings.Contains(clean, m) {
			if fields := strings.Fields(clean); len(fields) > 0 {
				clean = fields[len(fields)-1]
			}
			break
		}
	}
	return strings.TrimSpace(clean)
}

// BuildListQuery returns the Drive query used by ListFiles.
func BuildListQuery(filter string) string {
	q := baseQuery
	if clean := cleanName(filter, "name =", "name contains"); clean != "" {
		q += " and name contains '" + clean + "'"
	}
	return q
}

// BuildFindQuery returns the Drive query used by FindFiles. Only a
// "name =" fragment is reduced to its last word.
func BuildFindQuery(name string) string {
	return baseQuery + " and name contains '" + cleanName(name, "name =") + "'"
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
