// Package markdown normalizes documentation dialects and splits documents
// into bounded-size chunks for embedding.
package markdown

import (
	"regexp"
	"strings"
)

var (
	// Paired JSX-style component tags, body included. Tag names start with an
	// uppercase letter; unbalanced tags may be left partially un-stripped.
	jsxPairRe = regexp.MustCompile(`(?s)<[A-Z][a-zA-Z]*[^>]*>.*?</[A-Z][a-zA-Z]*>`)

	// Self-closing JSX-style component tags.
	jsxSelfCloseRe = regexp.MustCompile(`<[A-Z][a-zA-Z]*[^/]*/>`)

	importRe = regexp.MustCompile(`(?m)^import\s+.*?from\s+['"][^'"]+['"];?\s*$`)
	exportRe = regexp.MustCompile(`(?m)^export\s+.*?;?\s*$`)

	// RST directive lines of the form ".. word::" with their inline text.
	rstDirectiveRe = regexp.MustCompile(`\.\.\s+\w+::.*?\n`)

	// RST inline role markup :role:`text`.
	rstRoleRe = regexp.MustCompile(":\\w+:`([^`]+)`")
)

// rstHeaderLevels maps RST underline characters to markdown header prefixes.
// Any other repeated character is treated as a top-level header.
var rstHeaderLevels = map[byte]string{
	'=': "#",
	'-': "##",
	'~': "###",
	'^': "####",
}

// Normalize strips markup artifacts from a documentation dialect selected by
// file extension, producing cleaned prose+markdown text. Extensions other
// than .mdx and .rst pass through unchanged.
func Normalize(content, ext string) string {
	switch strings.ToLower(ext) {
	case ".mdx":
		return cleanMDX(content)
	case ".rst":
		return cleanRST(content)
	default:
		return content
	}
}

// cleanMDX removes JSX components and import/export statements from
// JSX-flavored markdown.
func cleanMDX(content string) string {
	content = jsxPairRe.ReplaceAllString(content, "")
	content = jsxSelfCloseRe.ReplaceAllString(content, "")
	content = importRe.ReplaceAllString(content, "")
	content = exportRe.ReplaceAllString(content, "")
	return content
}

// cleanRST converts reStructuredText to a markdown-like form: directives are
// dropped, role markup is unwrapped, and underline-style headers become
// markdown headers.
func cleanRST(content string) string {
	content = rstDirectiveRe.ReplaceAllString(content, "")
	content = rstRoleRe.ReplaceAllString(content, "$1")

	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if i+1 < len(lines) && isUnderline(lines[i+1]) {
			prefix, ok := rstHeaderLevels[lines[i+1][0]]
			if !ok {
				prefix = "#"
			}
			result = append(result, prefix+" "+lines[i])
			i += 2
			continue
		}
		result = append(result, lines[i])
		i++
	}
	return strings.Join(result, "\n")
}

// isUnderline reports whether a line consists of a single repeated character.
func isUnderline(line string) bool {
	if line == "" {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != line[0] {
			return false
		}
	}
	return true
}
