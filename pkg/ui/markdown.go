package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Table))
}

// nodeMarkdown lays a node document out as Markdown. Every value coming from
// the server is escaped, so the document never carries raw HTML or links
// built from node content.
func nodeMarkdown(node *model.NodeDetail, heading string) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(heading))
	b.WriteString("| Field | Value |\n| --- | --- |\n")

	row := func(name, value string) {
		fmt.Fprintf(&b, "| %s | %s |\n", name, escapeMarkdown(value))
	}
	row("UUID", node.Uuid.String())
	row("Type", node.Type)
	row("Name", node.Name)
	row("Slug", node.Slug)
	row("Revision", fmt.Sprint(node.Revision))
	row("Status", fmt.Sprint(node.Status))
	row("Weight", fmt.Sprint(node.Weight))
	row("Enabled", fmt.Sprint(node.Enabled))
	row("Deleted", fmt.Sprint(node.Deleted))
	row("Created", node.CreatedAt.Format("2006-01-02 15:04:05"))
	row("Updated", node.UpdatedAt.Format("2006-01-02 15:04:05"))
	for _, ref := range []struct {
		name string
		id   uuid.UUID
	}{
		{"Parent", node.ParentUuid},
		{"Set", node.SetUuid},
		{"Source", node.Source},
		{"Created by", node.CreatedBy},
		{"Updated by", node.UpdatedBy},
	} {
		if ref.id != uuid.Nil {
			row(ref.name, ref.id.String())
		}
	}

	codeSection(&b, "Data", node.Data)
	codeSection(&b, "Meta", node.Meta)

	return b.Bytes()
}

// codeSection writes raw as an indented code block so its content can never
// close the block.
func codeSection(b *bytes.Buffer, title string, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}

	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, line := range strings.Split(pretty.String(), "\n") {
		b.WriteString("    " + line + "\n")
	}
}

// escapeMarkdown backslash-escapes ASCII punctuation and flattens newlines.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 128 && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *Server) renderNode(node *model.NodeDetail, heading string) (template.HTML, error) {
	var out bytes.Buffer
	if err := s.markdown.Convert(nodeMarkdown(node, heading), &out); err != nil {
		return "", err
	}
	return template.HTML(out.String()), nil
}
