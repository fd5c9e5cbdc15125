package genre

import "strings"

const (
	glossOpen  = "（"
	glossClose = "）"
)

// ShapeName returns the gloss between the first full-width "（" and the last
// "）" of a group heading: "Travel（旅行）" becomes "旅行". Names without both
// delimiters, or with them out of order, are returned unchanged.
func ShapeName(name string) string {
	open := strings.Index(name, glossOpen)
	if open < 0 {
		return name
	}
	closeAt := strings.LastIndex(name, glossClose)
	start := open + len(glossOpen)
	if closeAt < start {
		return name
	}
	return name[start:closeAt]
}
