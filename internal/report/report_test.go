package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

func htmlRecord() models.ArchivedTweet {
	return models.ArchivedTweet{
		ArchivedURLKey:         "com,twitter)/alice/status/1",
		ArchivedTimestamp:      "20200101120000",
		ArchivedMimeType:       "text/html",
		ArchivedStatusCode:     "200",
		ArchivedDigest:         "DIGESTA",
		ArchivedLength:         "1024",
		OriginalTweetURL:       "https://twitter.com/alice/status/1?s=20",
		ParsedTweetURL:         "https://twitter.com/alice/status/1",
		ArchivedTweetURL:       "https://web.archive.org/web/20200101120000/https://twitter.com/alice/status/1?s=20",
		ParsedArchivedTweetURL: "https://web.archive.org/web/20200101120000/https://twitter.com/alice/status/1",
	}
}

func jsonRecord() models.ArchivedTweet {
	return models.ArchivedTweet{
		ArchivedURLKey:         "com,twitter)/alice/status/2",
		ArchivedTimestamp:      "20210101120000",
		ArchivedMimeType:       "application/json",
		ArchivedStatusCode:     "200",
		ArchivedDigest:         "DIGESTB",
		ArchivedLength:         "512",
		OriginalTweetURL:       "https://twitter.com/alice/status/2",
		ParsedTweetURL:         "https://twitter.com/alice/status/2",
		ArchivedTweetURL:       "https://web.archive.org/web/20210101120000/https://twitter.com/alice/status/2",
		ParsedArchivedTweetURL: "https://web.archive.org/web/20210101120000/https://twitter.com/alice/status/2",
		AvailableTweetText:     "hello",
		AvailableTweetIsRT:     "false",
		AvailableTweetInfo:     "Alice (@alice)",
	}
}

func parseDoc(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("failed to parse rendered HTML: %v", err)
	}
	return doc
}

func TestNeedsPreview(t *testing.T) {
	withText := htmlRecord()
	withText.AvailableTweetText = "recovered"

	jsonNoText := jsonRecord()
	jsonNoText.AvailableTweetText = ""

	tests := []struct {
		name   string
		record models.ArchivedTweet
		want   bool
	}{
		{"html without text", htmlRecord(), true},
		{"html with text", withText, false},
		{"json with text", jsonRecord(), false},
		{"json without text", jsonNoText, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsPreview(tt.record); got != tt.want {
				t.Errorf("NeedsPreview() = %v, want %v", got, tt.want)
			}
			block := BuildDocument([]models.ArchivedTweet{tt.record}, "alice").Blocks[0]
			if block.HasPreview() != tt.want {
				t.Errorf("block.HasPreview() = %v, want %v", block.HasPreview(), tt.want)
			}
		})
	}
}

func TestBuildDocumentBlockLayout(t *testing.T) {
	doc := BuildDocument([]models.ArchivedTweet{htmlRecord(), jsonRecord()}, "alice")

	if doc.Title() != "@alice archived tweets" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(doc.Blocks))
	}

	wantLinks := []string{"Original Tweet", "Parsed Tweet", "Archived Tweet", "Parsed Archived Tweet"}
	wantMeta := []string{"Archived URL Key", "Archived Timestamp", "Archived mimetype", "Archived Statuscode", "Archived Digest", "Archived Length"}

	for i, b := range doc.Blocks {
		if len(b.Links) != len(wantLinks) {
			t.Fatalf("block %d has %d links", i, len(b.Links))
		}
		for j, l := range b.Links {
			if l.Label != wantLinks[j] {
				t.Errorf("block %d link %d = %q, want %q", i, j, l.Label, wantLinks[j])
			}
		}
		for j, f := range b.Metadata {
			if f.Label != wantMeta[j] {
				t.Errorf("block %d metadata %d = %q, want %q", i, j, f.Label, wantMeta[j])
			}
		}
	}

	if doc.Blocks[0].PreviewURL != htmlRecord().ParsedArchivedTweetURL {
		t.Errorf("preview url = %q", doc.Blocks[0].PreviewURL)
	}
	if doc.Blocks[0].Content != nil {
		t.Error("block A should have no recovered content")
	}
	if doc.Blocks[1].Content == nil || doc.Blocks[1].Content.Text != "hello" {
		t.Errorf("block B content = %+v", doc.Blocks[1].Content)
	}
}

func TestRenderDeterministic(t *testing.T) {
	records := []models.ArchivedTweet{htmlRecord(), jsonRecord()}

	first, err := Render(records, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := Render(records, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if first != second {
		t.Error("Render() output differs between identical calls")
	}
}

// TestRenderTwoRecords covers an HTML capture without text followed by a JSON capture with text
func TestRenderTwoRecords(t *testing.T) {
	out, err := Render([]models.ArchivedTweet{htmlRecord(), jsonRecord()}, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := parseDoc(t, out)

	if got := doc.Find("title").Text(); got != "@alice archived tweets" {
		t.Errorf("title = %q", got)
	}
	if got := doc.Find("h1").Text(); got != "@alice archived tweets" {
		t.Errorf("h1 = %q", got)
	}

	blocks := doc.Find("div.tweet")
	if blocks.Length() != 2 {
		t.Fatalf("got %d tweet blocks, want 2", blocks.Length())
	}

	a, b := blocks.Eq(0), blocks.Eq(1)
	if !strings.Contains(a.Text(), "com,twitter)/alice/status/1") || !strings.Contains(b.Text(), "com,twitter)/alice/status/2") {
		t.Error("blocks are not in input order")
	}

	if a.Find("iframe").Length() != 1 {
		t.Error("block A should embed a preview")
	}
	if src, _ := a.Find("iframe").Attr("src"); src != htmlRecord().ParsedArchivedTweetURL {
		t.Errorf("iframe src = %q", src)
	}
	if b.Find("iframe").Length() != 0 {
		t.Error("block B should not embed a preview")
	}

	if a.Find("div.available").Length() != 0 {
		t.Error("block A should not render recovered content")
	}
	if b.Find("div.available").Length() != 1 {
		t.Fatal("block B should render recovered content")
	}

	// No external assets
	if doc.Find("link, script").Length() != 0 {
		t.Error("document references external assets")
	}
	if doc.Find("style").Length() != 1 {
		t.Error("document should inline its stylesheet")
	}
}

func TestRenderLinksOrder(t *testing.T) {
	out, err := Render([]models.ArchivedTweet{htmlRecord()}, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	rec := htmlRecord()
	want := []string{rec.OriginalTweetURL, rec.ParsedTweetURL, rec.ArchivedTweetURL, rec.ParsedArchivedTweetURL}

	var got []string
	parseDoc(t, out).Find("div.tweet p.links a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		got = append(got, href)
	})

	if len(got) != len(want) {
		t.Fatalf("got %d links, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRenderRecoveredContentOrder(t *testing.T) {
	out, err := Render([]models.ArchivedTweet{jsonRecord()}, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	block := parseDoc(t, out).Find("div.tweet").First()

	var paragraphs []string
	block.Find("div.available p").Each(func(_ int, s *goquery.Selection) {
		paragraphs = append(paragraphs, s.Text())
	})
	want := []string{
		"Available Tweet Content: hello",
		"Available Tweet Is Retweet: false",
		"Available Tweet Username: Alice (@alice)",
	}
	if len(paragraphs) != len(want) {
		t.Fatalf("recovered paragraphs = %v", paragraphs)
	}
	for i := range want {
		if paragraphs[i] != want[i] {
			t.Errorf("paragraph %d = %q, want %q", i, paragraphs[i], want[i])
		}
	}

	// recovered content must come before the metadata sub-block
	html, _ := block.Html()
	if strings.Index(html, `class="available"`) > strings.Index(html, `class="metadata"`) {
		t.Error("recovered content rendered after metadata")
	}

	var meta []string
	block.Find("div.metadata strong").Each(func(_ int, s *goquery.Selection) {
		meta = append(meta, s.Text())
	})
	wantMeta := []string{"Archived URL Key:", "Archived Timestamp:", "Archived mimetype:", "Archived Statuscode:", "Archived Digest:", "Archived Length:"}
	for i := range wantMeta {
		if i >= len(meta) || meta[i] != wantMeta[i] {
			t.Errorf("metadata labels = %v, want %v", meta, wantMeta)
			break
		}
	}
}

func TestRenderEscapesValues(t *testing.T) {
	rec := jsonRecord()
	rec.AvailableTweetText = `<script>alert("x")</script>`

	out, err := Render([]models.ArchivedTweet{rec}, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Error("tweet text was not escaped")
	}
}

func TestRenderEmpty(t *testing.T) {
	out, err := Render(nil, "nobody")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := parseDoc(t, out)
	if doc.Find("div.tweet").Length() != 0 {
		t.Error("expected no tweet blocks")
	}
	if doc.Find("h1").Text() != "@nobody archived tweets" {
		t.Errorf("h1 = %q", doc.Find("h1").Text())
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdownRecords([]models.ArchivedTweet{htmlRecord(), jsonRecord()}, "alice")
	if err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}

	if !strings.HasPrefix(out, "# @alice archived tweets") {
		t.Errorf("markdown should start with the title, got %q", out[:40])
	}
	first := strings.Index(out, "## Tweet 1")
	second := strings.Index(out, "## Tweet 2")
	if first < 0 || second < first {
		t.Errorf("blocks missing or out of order")
	}
	if strings.Contains(out[first:second], "Available Tweet Content") {
		t.Error("first block should have no recovered content")
	}
	if !strings.Contains(out[second:], "**Available Tweet Content:** hello") {
		t.Error("second block should show recovered content")
	}
	if !strings.Contains(out, "[Parsed Archived Tweet]("+htmlRecord().ParsedArchivedTweetURL+")") {
		t.Error("missing parsed archived link")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	out, err := Render([]models.ArchivedTweet{htmlRecord(), jsonRecord()}, "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "alice_tweets.html")
	if err := Save(out, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != out {
		t.Error("saved content differs from rendered document")
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	if err := Save("a much longer first document", path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := Save("short", path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "short" {
		t.Errorf("file = %q, want %q", data, "short")
	}
}

func TestSaveFailure(t *testing.T) {
	// A directory cannot be opened for writing
	dir := t.TempDir()
	if err := Save("content", dir); err == nil {
		t.Error("Save() to a directory should fail")
	}
}
