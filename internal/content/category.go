package content

import "strings"

// PrimaryCategory extracts the leading category code from the
// categories_name column, which may hold a delimited list like
// "cs.LG, cs.AI". Shared by the article merge and the category lookup so
// the extraction cannot drift between call sites.
func PrimaryCategory(categories string) string {
	fields := strings.FieldsFunc(categories, func(r rune) bool {
		return r == ',' || r == ';'
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSpace(fields[0])
}
