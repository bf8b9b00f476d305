package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PGStore persists the access lists in Postgres. The bot token is never
// stored in the database; it always comes from configuration.
type PGStore struct {
	db *sqlx.DB
}

// NewPGStore builds a Postgres-backed persister over an open connection pool.
func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{db: db}
}

const (
	listSuperAdmins = "super_admins"
	listAdmins      = "admins"
	listBlacklist   = "blacklist"
)

type accessRow struct {
	List   string `db:"list"`
	UserID int64  `db:"user_id"`
}

// Load reads all access entries. The Token field of the result is always empty.
func (s *PGStore) Load() (Lists, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var rows []accessRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT list, user_id FROM access_entries ORDER BY list, user_id`,
	); err != nil {
		return Lists{}, fmt.Errorf("auth: select access entries: %w", err)
	}

	lists := Lists{
		SuperAdmins: []int64{},
		Admins:      []int64{},
		Blacklist:   []int64{},
	}
	for _, row := range rows {
		switch row.List {
		case listSuperAdmins:
			lists.SuperAdmins = append(lists.SuperAdmins, row.UserID)
		case listAdmins:
			lists.Admins = append(lists.Admins, row.UserID)
		case listBlacklist:
			lists.Blacklist = append(lists.Blacklist, row.UserID)
		}
	}
	return lists, nil
}

// Save replaces the stored entries with the given lists in one transaction.
func (s *PGStore) Save(lists Lists) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("auth: begin access tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM access_entries`); err != nil {
		return fmt.Errorf("auth: clear access entries: %w", err)
	}

	insert := func(list string, ids []int64) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO access_entries (list, user_id) VALUES ($1, $2)`,
				list, id,
			); err != nil {
				return fmt.Errorf("auth: insert %s entry %d: %w", list, id, err)
			}
		}
		return nil
	}

	if err := insert(listSuperAdmins, lists.SuperAdmins); err != nil {
		return err
	}
	if err := insert(listAdmins, lists.Admins); err != nil {
		return err
	}
	if err := insert(listBlacklist, lists.Blacklist); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("auth: commit access tx: %w", err)
	}
	return nil
}
