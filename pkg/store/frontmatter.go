package store

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// ParseFrontmatter extracts optional YAML frontmatter from a module document
// and returns the metadata plus the body with the frontmatter removed.
// Documents without frontmatter come back unchanged with zero metadata.
func ParseFrontmatter(content string) (Metadata, string) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return Metadata{}, content
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return Metadata{}, content
	}

	var m Metadata
	m.Title, _ = metaData["title"].(string)
	m.Description, _ = metaData["description"].(string)

	return m, stripFrontmatter(content)
}

// stripFrontmatter removes a leading --- delimited YAML block.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
}
