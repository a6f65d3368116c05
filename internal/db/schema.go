package db

// Schema for cached archived tweets, one row per capture
const createArchivedTweetsTable = `
CREATE TABLE IF NOT EXISTS archived_tweets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    urlkey TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    mimetype TEXT,
    statuscode TEXT,
    digest TEXT,
    length TEXT,
    original_url TEXT NOT NULL,
    parsed_url TEXT,
    archived_url TEXT,
    parsed_archived_url TEXT,
    available_text TEXT,
    available_is_rt TEXT,
    available_info TEXT,
    fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(username, urlkey, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_archived_tweets_username ON archived_tweets(username);
CREATE INDEX IF NOT EXISTS idx_archived_tweets_timestamp ON archived_tweets(username, timestamp);
`

// Schema for the last fetch per username
const createFetchLogTable = `
CREATE TABLE IF NOT EXISTS fetch_log (
    username TEXT PRIMARY KEY,
    query_url TEXT NOT NULL,
    row_count INTEGER NOT NULL DEFAULT 0,
    succeeded INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const insertArchivedTweet = `
INSERT OR IGNORE INTO archived_tweets (
    username, urlkey, timestamp, mimetype, statuscode, digest, length,
    original_url, parsed_url, archived_url, parsed_archived_url,
    available_text, available_is_rt, available_info
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const archivedTweetColumns = `
    urlkey, timestamp, COALESCE(mimetype, ''), COALESCE(statuscode, ''), COALESCE(digest, ''), COALESCE(length, ''),
    original_url, COALESCE(parsed_url, ''), COALESCE(archived_url, ''), COALESCE(parsed_archived_url, ''),
    COALESCE(available_text, ''), COALESCE(available_is_rt, ''), COALESCE(available_info, '')
`

// Captures come back in chronological order, the order the CDX API returns them
const selectArchivedTweetsByFilter = `
SELECT` + archivedTweetColumns + `
FROM archived_tweets
WHERE username = ?
  AND (? = '' OR mimetype LIKE ?)
  AND (? = '' OR original_url LIKE ? OR available_text LIKE ?)
ORDER BY timestamp ASC, id ASC
LIMIT ? OFFSET ?
`

const selectArchivedTweetCountFiltered = `
SELECT COUNT(*) FROM archived_tweets
WHERE username = ?
  AND (? = '' OR mimetype LIKE ?)
  AND (? = '' OR original_url LIKE ? OR available_text LIKE ?)
`

const selectCachedUsernames = `
SELECT username, COUNT(*) AS record_count, MAX(fetched_at) AS last_fetched
FROM archived_tweets
GROUP BY username
ORDER BY username ASC
`

const deleteArchivedTweetsByUsername = `
DELETE FROM archived_tweets WHERE username = ?
`

const upsertFetchLog = `
INSERT INTO fetch_log (username, query_url, row_count, succeeded, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(username) DO UPDATE SET
    query_url = excluded.query_url,
    row_count = excluded.row_count,
    succeeded = excluded.succeeded,
    updated_at = CURRENT_TIMESTAMP
`

const selectFetchLog = `
SELECT username, query_url, row_count, succeeded, updated_at
FROM fetch_log WHERE username = ?
`
