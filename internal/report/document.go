// Package report renders archived tweets into standalone documents.
//
// Rendering happens in two steps: BuildDocument turns records into a tree of
// blocks, and a serializer (RenderHTML, RenderMarkdown) writes that tree out.
// Both steps are pure; identical input always yields identical output.
package report

import (
	"fmt"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// MimeTypeJSON marks captures whose body is the tweet's API payload
const MimeTypeJSON = "application/json"

// Link is one navigational link of a tweet block
type Link struct {
	Label string
	URL   string
}

// Field is a labelled value
type Field struct {
	Label string
	Value string
}

// RecoveredContent is the tweet text recovered for a capture
type RecoveredContent struct {
	Text      string
	IsRetweet string
	Info      string
}

// Fields returns content, retweet flag and author info in display order
func (c RecoveredContent) Fields() []Field {
	return []Field{
		{Label: "Available Tweet Content", Value: c.Text},
		{Label: "Available Tweet Is Retweet", Value: c.IsRetweet},
		{Label: "Available Tweet Username", Value: c.Info},
	}
}

// TweetBlock is the rendered form of one ArchivedTweet
type TweetBlock struct {
	PreviewURL string            // empty when no inline preview is embedded
	Links      []Link            // original, parsed, archived, parsed archived
	Content    *RecoveredContent // nil when nothing was recovered
	Metadata   []Field
}

// HasPreview reports whether the block embeds a live preview of the capture
func (b TweetBlock) HasPreview() bool {
	return b.PreviewURL != ""
}

// Document is the block tree for one username
type Document struct {
	Username string
	Blocks   []TweetBlock
}

// Title returns the document heading
func (d Document) Title() string {
	return fmt.Sprintf("@%s archived tweets", d.Username)
}

// NeedsPreview reports whether a capture should be embedded inline.
// A preview only pays off when the capture is not a JSON payload and no
// recovered text can be shown instead.
func NeedsPreview(t models.ArchivedTweet) bool {
	return t.ArchivedMimeType != MimeTypeJSON && !t.HasAvailableText()
}

// BuildDocument converts records into blocks, keeping input order
func BuildDocument(records []models.ArchivedTweet, username string) Document {
	doc := Document{
		Username: username,
		Blocks:   make([]TweetBlock, 0, len(records)),
	}
	for _, r := range records {
		doc.Blocks = append(doc.Blocks, buildBlock(r))
	}
	return doc
}

func buildBlock(r models.ArchivedTweet) TweetBlock {
	b := TweetBlock{
		Links: []Link{
			{Label: "Original Tweet", URL: r.OriginalTweetURL},
			{Label: "Parsed Tweet", URL: r.ParsedTweetURL},
			{Label: "Archived Tweet", URL: r.ArchivedTweetURL},
			{Label: "Parsed Archived Tweet", URL: r.ParsedArchivedTweetURL},
		},
		Metadata: []Field{
			{Label: "Archived URL Key", Value: r.ArchivedURLKey},
			{Label: "Archived Timestamp", Value: r.ArchivedTimestamp},
			{Label: "Archived mimetype", Value: r.ArchivedMimeType},
			{Label: "Archived Statuscode", Value: r.ArchivedStatusCode.String()},
			{Label: "Archived Digest", Value: r.ArchivedDigest},
			{Label: "Archived Length", Value: r.ArchivedLength.String()},
		},
	}

	if NeedsPreview(r) {
		b.PreviewURL = r.ParsedArchivedTweetURL
	}

	if r.HasAvailableText() {
		isRT := r.AvailableTweetIsRT.String()
		if isRT == "" {
			isRT = "false"
		}
		b.Content = &RecoveredContent{
			Text:      r.AvailableTweetText.String(),
			IsRetweet: isRT,
			Info:      r.AvailableTweetInfo.String(),
		}
	}

	return b
}
