package report

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// ProjectURL is linked from the document footer
const ProjectURL = "https://github.com/thesavant42/wayback-tweets"

// stylesheet is inlined so the document opens standalone
const stylesheet = `
body { font-family: monospace; background-color: #f5f8fa; color: #1c1e21; margin: 0; padding: 20px; }
.container { display: flex; flex-wrap: wrap; gap: 20px; }
.tweet { flex: 0 1 calc(33.33% - 20px); background-color: #fff; border: 1px solid #e1e8ed; border-radius: 10px; padding: 15px; overflow-wrap: break-word; margin: auto; }
.tweet strong { font-weight: bold; }
.tweet a { color: #ef5552; text-decoration: none; }
.tweet a:hover { text-decoration: underline; }
.content { color: #ef5552; }
.available { border-left: 3px solid #ef5552; padding-left: 10px; margin: 10px 0; }
h1, h3 { text-align: center; }
iframe { width: 600px; height: 600px; border: 0; }
`

// Render builds and serializes the HTML document for records
func Render(records []models.ArchivedTweet, username string) (string, error) {
	return RenderHTML(BuildDocument(records, username))
}

// RenderHTML serializes a Document into a self-contained HTML page
func RenderHTML(doc Document) (string, error) {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	page := element(atom.Html)
	root.AppendChild(page)

	head := element(atom.Head)
	appendLines(head,
		element(atom.Meta, attr("charset", "utf-8")),
		withText(element(atom.Title), doc.Title()),
		withText(element(atom.Style), stylesheet),
	)
	head.AppendChild(text("\n"))
	page.AppendChild(head)

	body := element(atom.Body)
	container := element(atom.Div, attr("class", "container"))
	for _, block := range doc.Blocks {
		appendLines(container, renderBlock(block))
	}
	container.AppendChild(text("\n"))

	footer := withText(element(atom.H3), "generated by ")
	footer.AppendChild(withText(element(atom.A, attr("href", ProjectURL), attr("target", "_blank")), "wayback-tweets↗"))

	appendLines(body,
		withText(element(atom.H1), doc.Title()),
		container,
		footer,
	)
	body.AppendChild(text("\n"))
	page.AppendChild(body)

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return sb.String(), nil
}

func renderBlock(b TweetBlock) *html.Node {
	div := element(atom.Div, attr("class", "tweet"))

	if b.HasPreview() {
		appendLines(div, element(atom.Iframe,
			attr("src", b.PreviewURL),
			attr("frameborder", "0"),
			attr("scrolling", "auto"),
		))
	}

	links := element(atom.P, attr("class", "links"))
	for i, l := range b.Links {
		if i > 0 {
			links.AppendChild(text(" · \n"))
		}
		a := element(atom.A, attr("href", l.URL), attr("target", "_blank"))
		a.AppendChild(withText(element(atom.Strong), l.Label+"↗"))
		links.AppendChild(a)
	}
	appendLines(div, links)

	if b.Content != nil {
		available := element(atom.Div, attr("class", "available"))
		for _, f := range b.Content.Fields() {
			appendLines(available, field(f, "content"))
		}
		available.AppendChild(text("\n"))
		appendLines(div, available)
	}

	metadata := element(atom.Div, attr("class", "metadata"))
	for _, f := range b.Metadata {
		appendLines(metadata, field(f, ""))
	}
	metadata.AppendChild(text("\n"))
	appendLines(div, metadata)
	div.AppendChild(text("\n"))

	return div
}

// field renders <p><strong>Label:</strong> value</p>
func field(f Field, class string) *html.Node {
	label := element(atom.Strong)
	if class != "" {
		label.Attr = append(label.Attr, attr("class", class))
	}
	label.AppendChild(text(f.Label + ":"))

	p := element(atom.P)
	p.AppendChild(label)
	p.AppendChild(text(" " + f.Value))
	return p
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(text(s))
	return n
}

// appendLines appends children to parent, each on its own line
func appendLines(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		parent.AppendChild(text("\n"))
		parent.AppendChild(c)
	}
}
