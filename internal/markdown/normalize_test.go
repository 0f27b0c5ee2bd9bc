package markdown

import (
	"strings"
	"testing"
)

// TestNormalize_MDXComponentAndImport tests removal of JSX components and
// import lines.
func TestNormalize_MDXComponentAndImport(t *testing.T) {
	input := "import Foo from 'bar';\n<Card>hello</Card>\nreal text"

	got := Normalize(input, ".mdx")

	if got != "\nreal text" {
		t.Errorf("Expected %q, got %q", "\nreal text", got)
	}
}

// TestNormalize_MDXPairedComponentBody tests that a component's contained
// body is removed along with the tags.
func TestNormalize_MDXPairedComponentBody(t *testing.T) {
	input := "before\n<Note type=\"warning\">\nhidden body\n</Note>\nafter"

	got := Normalize(input, ".mdx")

	if strings.Contains(got, "hidden body") {
		t.Errorf("Component body not removed: %q", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("Surrounding text lost: %q", got)
	}
}

// TestNormalize_MDXSelfClosing tests removal of self-closing component tags.
func TestNormalize_MDXSelfClosing(t *testing.T) {
	input := "<Spacer size=\"2\" />\ntext"

	got := Normalize(input, ".mdx")

	if strings.Contains(got, "Spacer") {
		t.Errorf("Self-closing tag not removed: %q", got)
	}
	if !strings.Contains(got, "text") {
		t.Errorf("Text lost: %q", got)
	}
}

// TestNormalize_MDXExport tests removal of export statements.
func TestNormalize_MDXExport(t *testing.T) {
	input := "export const toc = [];\nkeep this"

	got := Normalize(input, ".mdx")

	if strings.Contains(got, "export") {
		t.Errorf("Export line not removed: %q", got)
	}
	if !strings.Contains(got, "keep this") {
		t.Errorf("Text lost: %q", got)
	}
}

// TestNormalize_MDXLowercaseTagsKept tests that plain HTML tags survive —
// only uppercase-initial component tags are stripped.
func TestNormalize_MDXLowercaseTagsKept(t *testing.T) {
	input := "<div>kept</div>"

	got := Normalize(input, ".mdx")

	if got != input {
		t.Errorf("Lowercase tags should pass through, got %q", got)
	}
}

// TestNormalize_RSTUnderlineHeader tests the basic underline-to-markdown
// header conversion.
func TestNormalize_RSTUnderlineHeader(t *testing.T) {
	input := "Intro\n=====\n\nbody"

	got := Normalize(input, ".rst")

	if got != "# Intro\n\nbody" {
		t.Errorf("Expected %q, got %q", "# Intro\n\nbody", got)
	}
}

// TestNormalize_RSTHeaderDepths tests the underline character to header
// depth mapping, including the fallback for unknown characters.
func TestNormalize_RSTHeaderDepths(t *testing.T) {
	tests := []struct {
		underline rune
		prefix    string
	}{
		{'=', "# "},
		{'-', "## "},
		{'~', "### "},
		{'^', "#### "},
		{'*', "# "}, // any other underline character is top-level
	}

	for _, tt := range tests {
		input := "Header\n" + strings.Repeat(string(tt.underline), 6) + "\nbody"
		got := Normalize(input, ".rst")
		want := tt.prefix + "Header\nbody"
		if got != want {
			t.Errorf("Underline %q: expected %q, got %q", tt.underline, want, got)
		}
	}
}

// TestNormalize_RSTRoleMarkup tests unwrapping of inline role markup.
func TestNormalize_RSTRoleMarkup(t *testing.T) {
	input := "See :ref:`the tutorial` and :func:`len` for details."

	got := Normalize(input, ".rst")

	want := "See the tutorial and len for details."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestNormalize_RSTDirective tests removal of directive lines.
func TestNormalize_RSTDirective(t *testing.T) {
	input := ".. note:: pay attention\nbody text"

	got := Normalize(input, ".rst")

	if strings.Contains(got, "note") || strings.Contains(got, "pay attention") {
		t.Errorf("Directive not removed: %q", got)
	}
	if !strings.Contains(got, "body text") {
		t.Errorf("Body lost: %q", got)
	}
}

// TestNormalize_MarkdownPassThrough tests that plain markdown is untouched.
func TestNormalize_MarkdownPassThrough(t *testing.T) {
	input := "# Title\n\nimport nothing special here\n<Card>kept</Card>\n"

	got := Normalize(input, ".md")

	if got != input {
		t.Errorf("Markdown should pass through unchanged")
	}
}
