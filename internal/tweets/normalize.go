// Package tweets turns raw CDX rows into ArchivedTweet records.
package tweets

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// DefaultArchiveBase is the Wayback replay prefix for a capture
const DefaultArchiveBase = "https://web.archive.org/web"

// CDX column names as they appear in the header row
const (
	colURLKey     = "urlkey"
	colTimestamp  = "timestamp"
	colOriginal   = "original"
	colMimeType   = "mimetype"
	colStatusCode = "statuscode"
	colDigest     = "digest"
	colLength     = "length"
)

var requiredColumns = []string{colURLKey, colTimestamp, colOriginal, colMimeType, colStatusCode, colDigest, colLength}

// ErrMissingColumn is returned when the header row lacks a CDX column
var ErrMissingColumn = errors.New("missing CDX column")

// statusURLPattern matches tweet status URLs on twitter.com or x.com, including
// mobile/www hosts and the legacy /statuses/ path
var statusURLPattern = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|mobile\.)?(?:twitter|x)\.com/(?:#!/)?([A-Za-z0-9_]+)/status(?:es)?/(\d+)`)

// Normalizer derives the URL forms of an ArchivedTweet from a CDX row
type Normalizer struct {
	archiveBase string
	service     string
}

// NewNormalizer creates a Normalizer. Empty arguments fall back to the
// Wayback replay prefix and twitter.com.
func NewNormalizer(archiveBase, service string) *Normalizer {
	if archiveBase == "" {
		archiveBase = DefaultArchiveBase
	}
	if service == "" {
		service = "twitter.com"
	}
	return &Normalizer{
		archiveBase: strings.TrimSuffix(archiveBase, "/"),
		service:     service,
	}
}

// Normalize converts every data row into an ArchivedTweet, in input order.
// Rows shorter than the header are skipped.
func (n *Normalizer) Normalize(rows models.CDXRows) ([]models.ArchivedTweet, error) {
	header := rows.Header()
	if header == nil {
		return []models.ArchivedTweet{}, nil
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	tweets := make([]models.ArchivedTweet, 0, len(rows)-1)
	for _, row := range rows.DataRows() {
		if len(row) < len(header) {
			continue
		}
		tweets = append(tweets, n.fromRow(row, index))
	}

	return tweets, nil
}

func (n *Normalizer) fromRow(row []string, index map[string]int) models.ArchivedTweet {
	timestamp := row[index[colTimestamp]]
	original := row[index[colOriginal]]
	parsed := n.ParseTweetURL(original)

	return models.ArchivedTweet{
		ArchivedURLKey:         row[index[colURLKey]],
		ArchivedTimestamp:      timestamp,
		ArchivedMimeType:       row[index[colMimeType]],
		ArchivedStatusCode:     models.FlexString(row[index[colStatusCode]]),
		ArchivedDigest:         row[index[colDigest]],
		ArchivedLength:         models.FlexString(row[index[colLength]]),
		OriginalTweetURL:       original,
		ParsedTweetURL:         parsed,
		ArchivedTweetURL:       n.CaptureURL(timestamp, original),
		ParsedArchivedTweetURL: n.CaptureURL(timestamp, parsed),
	}
}

// CaptureURL returns the replay URL of target as captured at timestamp
func (n *Normalizer) CaptureURL(timestamp, target string) string {
	return fmt.Sprintf("%s/%s/%s", n.archiveBase, timestamp, target)
}

// ParseTweetURL reduces an archived URL to its canonical status URL,
// dropping query strings, fragments and trailing path segments.
// URLs that do not look like a tweet are returned unchanged.
func (n *Normalizer) ParseTweetURL(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if unescaped, err := url.QueryUnescape(cleaned); err == nil {
		cleaned = unescaped
	}
	cleaned = strings.ReplaceAll(cleaned, `\/`, "/")

	m := statusURLPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return raw
	}
	return fmt.Sprintf("https://%s/%s/status/%s", n.service, m[1], m[2])
}
