package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Upload statuses.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Upload is one archived log file. Content is only populated by
// GetUploadByPrefix.
type Upload struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SHA256     string    `json:"sha256"`
	SizeBytes  int64     `json:"size_bytes"`
	HandsCount int       `json:"hands_count"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	Content    []byte    `json:"-"`
}

// InsertUpload archives a raw log as pending and returns its generated id.
func (db *DB) InsertUpload(filename string, content []byte) (string, error) {
	id := uuid.NewString()
	sum := sha256.Sum256(content)
	_, err := db.conn.Exec(`
		INSERT INTO uploads(id, filename, sha256, size_bytes, status, uploaded_at, content)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, filename, hex.EncodeToString(sum[:]), len(content), StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano), content,
	)
	if err != nil {
		return "", fmt.Errorf("insert upload %s: %w", filename, err)
	}
	return id, nil
}

// UpdateUploadResult records the processing outcome of an archived upload. A
// nil procErr marks it successful.
func (db *DB) UpdateUploadResult(id string, hands int, procErr error) error {
	status, msg := StatusSuccess, ""
	if procErr != nil {
		status, msg = StatusError, procErr.Error()
	}
	res, err := db.conn.Exec(`UPDATE uploads SET hands_count = ?, status = ?, error = ? WHERE id = ?`,
		hands, status, msg, id)
	if err != nil {
		return fmt.Errorf("update upload %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update upload %s: not found", id)
	}
	return nil
}

// ListUploads returns every archived upload without content, newest first.
func (db *DB) ListUploads() ([]Upload, error) {
	rows, err := db.conn.Query(`
		SELECT id, filename, sha256, size_bytes, hands_count, status, error, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var u Upload
		var at string
		if err := rows.Scan(&u.ID, &u.Filename, &u.SHA256, &u.SizeBytes,
			&u.HandsCount, &u.Status, &u.Error, &at); err != nil {
			return nil, err
		}
		u.UploadedAt = parseTime(at)
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUploadByPrefix returns the first upload whose id starts with prefix, with
// its content, or nil if none matches.
func (db *DB) GetUploadByPrefix(prefix string) (*Upload, error) {
	var u Upload
	var at string
	err := db.conn.QueryRow(`
		SELECT id, filename, sha256, size_bytes, hands_count, status, error, uploaded_at, content
		FROM uploads WHERE substr(id, 1, length(?)) = ? ORDER BY uploaded_at LIMIT 1`, prefix, prefix).
		Scan(&u.ID, &u.Filename, &u.SHA256, &u.SizeBytes,
			&u.HandsCount, &u.Status, &u.Error, &at, &u.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.UploadedAt = parseTime(at)
	return &u, nil
}

// Clear deletes every archived upload and returns how many were removed.
func (db *DB) Clear() (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM uploads`)
	if err != nil {
		return 0, fmt.Errorf("clear uploads: %w", err)
	}
	return res.RowsAffected()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
