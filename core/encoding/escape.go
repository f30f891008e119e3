// Package encoding provides the text escaping and normalization helpers
// shared by the serializer, the extractors and the XML writer.
package encoding

import (
	"regexp"
	"strings"
)

// EscapeXMLText escapes only the basic XML entities for text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in double-quoted XML attributes.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// EscapeRefAttr escapes a link target for the single-quoted ref attribute
// of note markup. Only quote characters are replaced.
func EscapeRefAttr(s string) string {
	s = strings.ReplaceAll(s, "'", "&apos;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every whitespace run with one space and trims
// the result.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

var (
	slugDrop = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugJoin = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a title into a lower-case, hyphen-separated identifier.
// Input that leaves nothing behind yields "unknown".
func Slugify(s string) string {
	slug := slugDrop.ReplaceAllString(strings.ToLower(s), "")
	slug = slugJoin.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "unknown"
	}
	return slug
}

var tag = regexp.MustCompile(`<[^>]+>`)

// StripTags replaces every markup tag with a space and collapses the
// result. It is only meant for text salvaged from unparseable fragments.
func StripTags(s string) string {
	return CollapseWhitespace(tag.ReplaceAllString(s, " "))
}

var fileUnsafe = regexp.MustCompile(`[<>:"/\\|?*&]`)

// matterPrefixes are stripped from book labels before they become folder
// names.
var matterPrefixes = []string{
	"Study Notes and Features for ",
	"Translator's Notes and Cross-References for ",
	"Introduction to ",
	"The Book of ",
}

// TrimMatterPrefix removes one leading "Introduction to " style prefix,
// ignoring case.
func TrimMatterPrefix(s string) string {
	lower := strings.ToLower(s)
	for _, p := range matterPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// SanitizeName turns a book label into a file-system friendly name:
// "Introduction to 1 Samuel" becomes "1_Samuel". Empty results yield
// "Unknown".
func SanitizeName(s string) string {
	if s == "" {
		return "Unknown"
	}
	name := TrimMatterPrefix(s)
	name = fileUnsafe.ReplaceAllString(name, "_")
	name = strings.ReplaceAll(name, " ", "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")
	if name == "" {
		return "Unknown"
	}
	return name
}
