// Package registry defines the static table of documentation sources.
package registry

// Source describes one GitHub repository subtree to mirror and ingest.
type Source struct {
	Library    string   // Short name, also the local directory name
	Owner      string   // GitHub repository owner
	Repo       string   // GitHub repository name
	Branch     string   // Branch to fetch the tree from
	DocsPath   string   // Subtree prefix holding the documentation
	Extensions []string // File extensions to accept (with leading dot)
}

// Sources is the fixed set of documentation sources. It is defined once and
// never mutated at runtime.
var Sources = []Source{
	{
		Library:    "langchain",
		Owner:      "langchain-ai",
		Repo:       "docs",
		Branch:     "main",
		DocsPath:   "reference/python/docs",
		Extensions: []string{".md", ".mdx"},
	},
	{
		Library:    "fastapi",
		Owner:      "fastapi",
		Repo:       "fastapi",
		Branch:     "master",
		DocsPath:   "docs/en/docs",
		Extensions: []string{".md"},
	},
	{
		Library:    "python",
		Owner:      "python",
		Repo:       "cpython",
		Branch:     "main",
		DocsPath:   "Doc/tutorial",
		Extensions: []string{".rst"},
	},
}

// Lookup returns the source for a library name.
func Lookup(library string) (Source, bool) {
	for _, src := range Sources {
		if src.Library == library {
			return src, true
		}
	}
	return Source{}, false
}

// Libraries returns the library names in registry order.
func Libraries() []string {
	names := make([]string, len(Sources))
	for i, src := range Sources {
		names[i] = src.Library
	}
	return names
}
