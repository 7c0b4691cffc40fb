package accessory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store persists registered shells. Services are not stored; adapters
// rebuild them when the shell is rebound.
type Store interface {
	// List returns every stored shell ordered by category then name.
	List(ctx context.Context) ([]*Shell, error)

	// Get returns the shell with the given UUID.
	// Returns ErrShellNotFound if it does not exist.
	Get(ctx context.Context, uuid string) (*Shell, error)

	// Save inserts or updates shells.
	Save(ctx context.Context, shells ...*Shell) error

	// Delete removes shells by UUID. Unknown UUIDs are ignored.
	Delete(ctx context.Context, uuids ...string) error
}

// SQLiteStore implements Store on the accessories table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store on an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectShell = `
	SELECT uuid, external_id, display_name, category, context
	FROM accessories`

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]*Shell, error) {
	rows, err := s.db.QueryContext(ctx, selectShell+` ORDER BY category, display_name`)
	if err != nil {
		return nil, fmt.Errorf("querying accessories: %w", err)
	}
	defer rows.Close()

	var shells []*Shell
	for rows.Next() {
		shell, err := scanShell(rows)
		if err != nil {
			return nil, err
		}
		shells = append(shells, shell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accessories: %w", err)
	}
	return shells, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, uuid string) (*Shell, error) {
	row := s.db.QueryRowContext(ctx, selectShell+` WHERE uuid = ?`, uuid)
	shell, err := scanShell(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShellNotFound
		}
		return nil, err
	}
	return shell, nil
}

// Save implements Store. All shells are written in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, shells ...*Shell) error {
	if len(shells) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for _, shell := range shells {
		if shell.UUID == "" || shell.ExternalID == "" {
			return fmt.Errorf("%w: uuid and external id are required", ErrInvalidShell)
		}

		aid := shell.AID()
		var other string
		err := tx.QueryRowContext(ctx,
			`SELECT uuid FROM accessories WHERE aid = ? AND uuid != ?`,
			int64(aid), shell.UUID, //nolint:gosec // aid fits in 53 bits
		).Scan(&other)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s and %s share aid %d", ErrAIDCollision, shell.UUID, other, aid)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking aid: %w", err)
		}

		contextJSON, err := json.Marshal(shell.Context())
		if err != nil {
			return fmt.Errorf("marshalling context: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO accessories (uuid, external_id, display_name, category, context, aid, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(uuid) DO UPDATE SET
				display_name = excluded.display_name,
				context = excluded.context,
				aid = excluded.aid,
				updated_at = excluded.updated_at`,
			shell.UUID, shell.ExternalID, shell.DisplayName(), int(shell.Category),
			string(contextJSON), int64(aid), now, now, //nolint:gosec // aid fits in 53 bits
		)
		if err != nil {
			return fmt.Errorf("saving accessory %s: %w", shell.UUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing accessories: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, uuids ...string) error {
	if len(uuids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	for _, uuid := range uuids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accessories WHERE uuid = ?`, uuid); err != nil {
			return fmt.Errorf("deleting accessory %s: %w", uuid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShell(row scanner) (*Shell, error) {
	var (
		uuid, externalID, name, contextJSON string
		category                            int
	)
	if err := row.Scan(&uuid, &externalID, &name, &category, &contextJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning accessory: %w", err)
	}

	ctxMap := make(map[string]string)
	if contextJSON != "" {
		if err := json.Unmarshal([]byte(contextJSON), &ctxMap); err != nil {
			return nil, fmt.Errorf("unmarshalling context of %s: %w", uuid, err)
		}
	}

	return &Shell{
		UUID:        uuid,
		ExternalID:  externalID,
		Category:    Category(category),
		displayName: name,
		context:     ctxMap,
	}, nil
}
