package report

import (
	"fmt"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// RenderMarkdown serializes a Document as Markdown.
// Inline previews have no Markdown equivalent and are left out; the
// parsed archived link stays available in every block.
func RenderMarkdown(doc Document) (string, error) {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)

	md.H1(doc.Title())
	md.PlainText("")

	for i, b := range doc.Blocks {
		writeBlock(md, i+1, b)
	}

	md.PlainText("generated by " + markdown.Link("wayback-tweets", ProjectURL))

	if err := md.Build(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderMarkdownRecords is BuildDocument followed by RenderMarkdown
func RenderMarkdownRecords(records []models.ArchivedTweet, username string) (string, error) {
	return RenderMarkdown(BuildDocument(records, username))
}

func writeBlock(md *markdown.Markdown, n int, b TweetBlock) {
	md.H2(fmt.Sprintf("Tweet %d", n))
	md.PlainText("")

	links := make([]string, 0, len(b.Links))
	for _, l := range b.Links {
		links = append(links, markdown.Link(l.Label, l.URL))
	}
	md.BulletList(links...)
	md.PlainText("")

	if b.Content != nil {
		for _, f := range b.Content.Fields() {
			md.PlainText(markdown.Bold(f.Label+":") + " " + f.Value)
			md.PlainText("")
		}
	}

	rows := make([][]string, 0, len(b.Metadata))
	for _, f := range b.Metadata {
		rows = append(rows, []string{f.Label, f.Value})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
	md.HorizontalRule()
}
