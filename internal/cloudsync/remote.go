package cloudsync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/katasensei/pkg/models"
)

// CloudData is the document kept remotely for one user
type CloudData struct {
	Decks        []models.Deck     `json:"decks"`
	Cards        []models.Card     `json:"cards"`
	Stats        *models.UserStats `json:"stats,omitempty"`
	LastSyncedAt time.Time         `json:"lastSyncedAt"`
}

// Remote stores one CloudData per user. Load returns nil, nil when the user
// has no document yet.
type Remote interface {
	Load(ctx context.Context, userID string) (*CloudData, error)
	Save(ctx context.Context, userID string, data CloudData) error
}

// SQLRemote keeps documents in the user_documents table
type SQLRemote struct {
	db    *sqlx.DB
	clock func() time.Time
}

// NewSQLRemote wraps a connection prepared by database.Connect
func NewSQLRemote(db *sqlx.DB) *SQLRemote {
	return &SQLRemote{db: db, clock: time.Now}
}

type documentRow struct {
	Document string    `db:"document"`
	SyncedAt time.Time `db:"synced_at"`
}

// Load fetches the user's document; the stored sync time wins over the
// document's own timestamp
func (r *SQLRemote) Load(ctx context.Context, userID string) (*CloudData, error) {
	var row documentRow
	query := r.db.Rebind("SELECT document, synced_at FROM user_documents WHERE user_id = ?")
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document for %s: %w", userID, err)
	}

	var data CloudData
	if err := json.Unmarshal([]byte(row.Document), &data); err != nil {
		return nil, fmt.Errorf("corrupt document for %s: %w", userID, err)
	}
	data.LastSyncedAt = row.SyncedAt.UTC()
	return &data, nil
}

// Save upserts the user's document and stamps it with the current time
func (r *SQLRemote) Save(ctx context.Context, userID string, data CloudData) error {
	now := r.clock().UTC()
	data.LastSyncedAt = now
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO user_documents (user_id, document, synced_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			document = excluded.document,
			synced_at = excluded.synced_at
	`)
	if _, err := r.db.ExecContext(ctx, query, userID, string(doc), now); err != nil {
		return fmt.Errorf("failed to save document for %s: %w", userID, err)
	}
	return nil
}
