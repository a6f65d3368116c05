package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// QueryParameters holds the CDX query options for one username.
// Zero values mean "not set" and are left out of the outgoing query.
type QueryParameters struct {
	Username string
	Collapse string // field to collapse adjacent duplicates on (e.g. "urlkey")
	From     string // capture window start, passed through as given
	To       string // capture window end, passed through as given
	Limit    int    // negative values select the most recent captures server-side
	Offset   int
}

// CDXRows is the decoded CDX JSON output: a header row followed by data rows
type CDXRows [][]string

// Header returns the header row, or nil if the response is empty
func (r CDXRows) Header() []string {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// DataRows returns every row after the header
func (r CDXRows) DataRows() [][]string {
	if len(r) < 2 {
		return nil
	}
	return r[1:]
}

// ArchivedTweet is one normalized capture of a tweet URL
type ArchivedTweet struct {
	ArchivedURLKey         string     `json:"archived_urlkey"`
	ArchivedTimestamp      string     `json:"archived_timestamp"` // 14-digit format: YYYYMMDDhhmmss
	ArchivedMimeType       string     `json:"archived_mimetype"`
	ArchivedStatusCode     FlexString `json:"archived_statuscode"`
	ArchivedDigest         string     `json:"archived_digest"`
	ArchivedLength         FlexString `json:"archived_length"`
	OriginalTweetURL       string     `json:"original_tweet_url"`
	ParsedTweetURL         string     `json:"parsed_tweet_url"`
	ArchivedTweetURL       string     `json:"archived_tweet_url"`
	ParsedArchivedTweetURL string     `json:"parsed_archived_tweet_url"`
	AvailableTweetText     FlexString `json:"available_tweet_text"`
	AvailableTweetIsRT     FlexString `json:"available_tweet_is_RT"`
	AvailableTweetInfo     FlexString `json:"available_tweet_info"`
}

// HasAvailableText reports whether recovered tweet content exists
func (t ArchivedTweet) HasAvailableText() bool {
	return t.AvailableTweetText != ""
}

// CapturedAt parses the archived timestamp
func (t ArchivedTweet) CapturedAt() (time.Time, error) {
	return time.Parse("20060102150405", t.ArchivedTimestamp)
}

// RequiredTweetFields lists the keys every serialized ArchivedTweet must carry.
// The available_tweet_* keys may be absent; absence reads as "no recovered content".
var RequiredTweetFields = []string{
	"archived_urlkey",
	"archived_timestamp",
	"archived_mimetype",
	"archived_statuscode",
	"archived_digest",
	"archived_length",
	"original_tweet_url",
	"parsed_tweet_url",
	"archived_tweet_url",
	"parsed_archived_tweet_url",
}

// ErrEmptyUsername is returned when no account name was given
var ErrEmptyUsername = errors.New("username cannot be empty")

// ErrMissingField is returned when a serialized record lacks a required key
var ErrMissingField = errors.New("missing required field")

// DecodeArchivedTweets reads a JSON array of records, rejecting any record
// that is missing one of RequiredTweetFields
func DecodeArchivedTweets(r io.Reader) ([]ArchivedTweet, error) {
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	tweets := make([]ArchivedTweet, 0, len(raw))
	for i, fields := range raw {
		for _, key := range RequiredTweetFields {
			if _, ok := fields[key]; !ok {
				return nil, fmt.Errorf("record %d: %w %q", i, ErrMissingField, key)
			}
		}

		// Re-marshal the validated map so the struct tags do the mapping
		data, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var t ArchivedTweet
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("record %d: failed to decode: %w", i, err)
		}
		tweets = append(tweets, t)
	}

	return tweets, nil
}

// EncodeArchivedTweets writes records as an indented JSON array
func EncodeArchivedTweets(w io.Writer, tweets []ArchivedTweet) error {
	if tweets == nil {
		tweets = []ArchivedTweet{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tweets); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// FlexString holds a scalar that upstream tools emit either as a JSON string,
// number, boolean or null. It always renders as text; null and false read
// as empty so "no value" has a single representation.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		// numbers, true and anything else keep their literal JSON text
		*f = FlexString(data)
	}
	return nil
}

// String returns the text form
func (f FlexString) String() string {
	return string(f)
}

// WaybackUserStats represents statistics for a cached username
type WaybackUserStats struct {
	Username    string
	RecordCount int
	FetchedAt   time.Time
}

// TweetFilter holds filter criteria for querying cached archived tweets
type TweetFilter struct {
	Username   string
	MimeType   string // Filter by MIME type substring (e.g., "json")
	SearchText string // Filter by URL or recovered text substring
	Limit      int
	Offset     int
}

// FetchLog records the outcome of the last CDX query for a username
type FetchLog struct {
	Username  string
	QueryURL  string
	RowCount  int
	Succeeded bool
	UpdatedAt time.Time
}
