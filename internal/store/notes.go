package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionChars keeps a note, together with the listing markup, below
// Telegram's 4096 character message limit.
const MaxDescriptionChars = 3500

type Note struct {
	UserID      int64     `db:"user_id"`
	ID          int       `db:"note_id"`
	Description string    `db:"description"`
	Created     time.Time `db:"created"`
	Updated     time.Time `db:"updated"`
}

// NoteStore keeps every user's notes numbered 1..N without gaps.
type NoteStore struct {
	db  *DB
	now func() time.Time
}

type Option func(*NoteStore)

// WithClock replaces time.Now for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *NoteStore) { s.now = now }
}

func NewNoteStore(db *DB, opts ...Option) *NoteStore {
	s := &NoteStore{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateDescription trims text and checks it can be stored as a note.
func ValidateDescription(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: note text is empty", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > MaxDescriptionChars {
		return "", fmt.Errorf("%w: note length %d exceeds limit %d", ErrInvalidInput, n, MaxDescriptionChars)
	}
	return text, nil
}

// Add stores text as the user's next note. The id lookup and the insert
// share one immediate transaction, so concurrent adds for a user cannot
// pick the same id.
func (s *NoteStore) Add(ctx context.Context, userID int64, text string) (*Note, error) {
	text, err := ValidateDescription(text)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("add: begin", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(note_id), 0) + 1 FROM notes WHERE user_id = ?`, userID); err != nil {
		return nil, storageErr("add: next id", err)
	}

	now := s.now().UTC()
	note := &Note{
		UserID:      userID,
		ID:          next,
		Description: text,
		Created:     now,
		Updated:     now,
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO notes (user_id, note_id, description, created, updated)
		 VALUES (:user_id, :note_id, :description, :created, :updated)`, note); err != nil {
		return nil, storageErr("add: insert", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("add: commit", err)
	}
	return note, nil
}

// List returns the user's notes ordered by id.
func (s *NoteStore) List(ctx context.Context, userID int64) ([]Note, error) {
	notes := []Note{}
	if err := s.db.SelectContext(ctx, &notes,
		`SELECT user_id, note_id, description, created, updated
		 FROM notes WHERE user_id = ? ORDER BY note_id ASC`, userID); err != nil {
		return nil, storageErr("list", err)
	}
	return notes, nil
}

func (s *NoteStore) Get(ctx context.Context, userID int64, noteID int) (*Note, error) {
	if noteID < 1 {
		return nil, ErrNotFound
	}
	var note Note
	err := s.db.GetContext(ctx, &note,
		`SELECT user_id, note_id, description, created, updated
		 FROM notes WHERE user_id = ? AND note_id = ?`, userID, noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	return &note, nil
}

// Update replaces the description and refreshes the updated stamp. The id
// and created stamp never change.
func (s *NoteStore) Update(ctx context.Context, userID int64, noteID int, text string) (*Note, error) {
	text, err := ValidateDescription(text)
	if err != nil {
		return nil, err
	}
	if noteID < 1 {
		return nil, ErrNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("update: begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE notes SET description = ?, updated = ? WHERE user_id = ? AND note_id = ?`,
		text, s.now().UTC(), userID, noteID)
	if err != nil {
		return nil, storageErr("update", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, storageErr("update: rows", err)
	} else if n == 0 {
		return nil, ErrNotFound
	}

	var note Note
	if err := tx.GetContext(ctx, &note,
		`SELECT user_id, note_id, description, created, updated
		 FROM notes WHERE user_id = ? AND note_id = ?`, userID, noteID); err != nil {
		return nil, storageErr("update: reload", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("update: commit", err)
	}
	return &note, nil
}

// Delete removes a note and moves every later note of the user down by one
// in the same transaction.
func (s *NoteStore) Delete(ctx context.Context, userID int64, noteID int) error {
	if noteID < 1 {
		return ErrNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("delete: begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM notes WHERE user_id = ? AND note_id = ?`, userID, noteID)
	if err != nil {
		return storageErr("delete", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("delete: rows", err)
	} else if n == 0 {
		return ErrNotFound
	}

	// Two passes: negate first so no intermediate row collides with the
	// (user_id, note_id) primary key, whatever order SQLite visits rows in.
	if _, err := tx.ExecContext(ctx,
		`UPDATE notes SET note_id = -note_id WHERE user_id = ? AND note_id > ?`, userID, noteID); err != nil {
		return storageErr("delete: shift", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE notes SET note_id = -note_id - 1 WHERE user_id = ? AND note_id < 0`, userID); err != nil {
		return storageErr("delete: shift", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("delete: commit", err)
	}
	return nil
}

func (s *NoteStore) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notes WHERE user_id = ?`, userID); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}
