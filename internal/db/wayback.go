package db

import (
	"database/sql"
	"fmt"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// InsertArchivedTweets stores records for a username.
// Uses INSERT OR IGNORE to skip captures already cached (same urlkey and timestamp).
// Returns the number of records actually inserted
func (db *DB) InsertArchivedTweets(username string, records []models.ArchivedTweet) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertArchivedTweet)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		result, err := stmt.Exec(
			username,
			r.ArchivedURLKey,
			r.ArchivedTimestamp,
			r.ArchivedMimeType,
			r.ArchivedStatusCode.String(),
			r.ArchivedDigest,
			r.ArchivedLength.String(),
			r.OriginalTweetURL,
			r.ParsedTweetURL,
			r.ArchivedTweetURL,
			r.ParsedArchivedTweetURL,
			r.AvailableTweetText.String(),
			r.AvailableTweetIsRT.String(),
			r.AvailableTweetInfo.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert capture %s@%s: %w", r.ArchivedURLKey, r.ArchivedTimestamp, err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// GetArchivedTweets retrieves all cached records for a username in chronological order
func (db *DB) GetArchivedTweets(username string) ([]models.ArchivedTweet, error) {
	records, _, err := db.GetArchivedTweetsFiltered(models.TweetFilter{Username: username, Limit: -1})
	return records, err
}

// GetArchivedTweetsFiltered retrieves cached records with filtering and pagination.
// A negative Limit returns every matching record.
func (db *DB) GetArchivedTweetsFiltered(filter models.TweetFilter) ([]models.ArchivedTweet, int, error) {
	// Build LIKE patterns
	mimePattern := ""
	if filter.MimeType != "" {
		mimePattern = "%" + filter.MimeType + "%"
	}
	searchPattern := ""
	if filter.SearchText != "" {
		searchPattern = "%" + filter.SearchText + "%"
	}

	// Get total count first
	var total int
	err := db.conn.QueryRow(selectArchivedTweetCountFiltered,
		filter.Username, filter.MimeType, mimePattern, filter.SearchText, searchPattern, searchPattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count archived tweets: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = -1
	}

	rows, err := db.conn.Query(selectArchivedTweetsByFilter,
		filter.Username, filter.MimeType, mimePattern, filter.SearchText, searchPattern, searchPattern,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query archived tweets: %w", err)
	}
	defer rows.Close()

	records, err := scanArchivedTweets(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetCachedUsernames returns every username with cached records
func (db *DB) GetCachedUsernames() ([]models.WaybackUserStats, error) {
	rows, err := db.conn.Query(selectCachedUsernames)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached usernames: %w", err)
	}
	defer rows.Close()

	var users []models.WaybackUserStats
	for rows.Next() {
		var u models.WaybackUserStats
		var lastFetched sql.NullString
		if err := rows.Scan(&u.Username, &u.RecordCount, &lastFetched); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		if lastFetched.Valid {
			u.FetchedAt, _ = parseTimestamp(lastFetched.String)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// DeleteArchivedTweets deletes all cached records for a username
func (db *DB) DeleteArchivedTweets(username string) error {
	_, err := db.conn.Exec(deleteArchivedTweetsByUsername, username)
	if err != nil {
		return fmt.Errorf("failed to delete archived tweets for %s: %w", username, err)
	}
	return nil
}

// SaveFetchLog records the outcome of a CDX query for a username
func (db *DB) SaveFetchLog(username, queryURL string, rowCount int, succeeded bool) error {
	_, err := db.conn.Exec(upsertFetchLog, username, queryURL, rowCount, succeeded)
	if err != nil {
		return fmt.Errorf("failed to save fetch log: %w", err)
	}
	return nil
}

// GetFetchLog returns the last fetch for a username, or nil if it was never fetched
func (db *DB) GetFetchLog(username string) (*models.FetchLog, error) {
	var entry models.FetchLog
	var updatedAt string

	err := db.conn.QueryRow(selectFetchLog, username).Scan(
		&entry.Username, &entry.QueryURL, &entry.RowCount, &entry.Succeeded, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch log: %w", err)
	}

	entry.UpdatedAt, _ = parseTimestamp(updatedAt)
	return &entry, nil
}

// scanArchivedTweets scans rows into ArchivedTweet structs
func scanArchivedTweets(rows *sql.Rows) ([]models.ArchivedTweet, error) {
	var records []models.ArchivedTweet
	for rows.Next() {
		var r models.ArchivedTweet
		var statusCode, length, text, isRT, info string

		if err := rows.Scan(
			&r.ArchivedURLKey, &r.ArchivedTimestamp, &r.ArchivedMimeType, &statusCode,
			&r.ArchivedDigest, &length, &r.OriginalTweetURL, &r.ParsedTweetURL,
			&r.ArchivedTweetURL, &r.ParsedArchivedTweetURL,
			&text, &isRT, &info,
		); err != nil {
			return nil, fmt.Errorf("failed to scan archived tweet: %w", err)
		}

		r.ArchivedStatusCode = models.FlexString(statusCode)
		r.ArchivedLength = models.FlexString(length)
		r.AvailableTweetText = models.FlexString(text)
		r.AvailableTweetIsRT = models.FlexString(isRT)
		r.AvailableTweetInfo = models.FlexString(info)

		records = append(records, r)
	}

	return records, rows.Err()
}
