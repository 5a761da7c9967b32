package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-service/internal/models"
	"todo-service/pkg/db"
)

// ErrNoInsertID is returned when the store does not hand back the generated id
var ErrNoInsertID = errors.New("insert returned no id")

type NoteRepository interface {
	// Create inserts an incomplete note inside a transaction and returns its id
	Create(ctx context.Context, userIP, text string) (int64, error)
	// FindByOwner lists the owner's notes matching filter, ordered by id
	FindByOwner(ctx context.Context, userIP string, filter models.StatusFilter) ([]*models.Note, error)
	// Update overwrites text and status; returns nil when no row has the id
	Update(ctx context.Context, noteID int64, text string, done bool) (*models.Note, error)
	// Delete removes the note and reports the number of rows affected
	Delete(ctx context.Context, noteID int64) (int64, error)
}

const (
	insertNoteQuery = `INSERT INTO todo_list_table (user_ip, note_text, note_status) VALUES (?, ?, ?)`

	selectNoteColumns = `SELECT id, user_ip, note_text, note_status FROM todo_list_table`

	selectUncompleteQuery = selectNoteColumns + ` WHERE user_ip = ? AND COALESCE(note_status, 0) = 0 ORDER BY id`
	selectCompleteQuery   = selectNoteColumns + ` WHERE user_ip = ? AND COALESCE(note_status, 0) <> 0 ORDER BY id`
	selectAnyQuery        = selectNoteColumns + ` WHERE user_ip = ? ORDER BY id`
	selectByIDQuery       = selectNoteColumns + ` WHERE id = ?`

	updateNoteQuery = `UPDATE todo_list_table SET note_text = ?, note_status = ? WHERE id = ?`
	deleteNoteQuery = `DELETE FROM todo_list_table WHERE id = ?`
)

type noteRepository struct {
	primary *sql.DB
	replica *sql.DB
	dialect db.Dialect
}

// NewNoteRepository builds the SQL repository. Reads go to replica when it is
// not nil, everything else to primary.
func NewNoteRepository(primary, replica *sql.DB, dialect db.Dialect) NoteRepository {
	if replica == nil {
		replica = primary
	}
	return &noteRepository{
		primary: primary,
		replica: replica,
		dialect: dialect,
	}
}

func (r *noteRepository) Create(ctx context.Context, userIP, text string) (int64, error) {
	tx, err := r.primary.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := r.insert(ctx, tx, userIP, text)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit note: %w", err)
	}

	return id, nil
}

func (r *noteRepository) insert(ctx context.Context, tx *sql.Tx, userIP, text string) (int64, error) {
	args := []interface{}{userIP, text, models.StatusIncomplete}

	if r.dialect.SupportsReturning() {
		var id int64
		err := tx.QueryRowContext(ctx, r.dialect.Rebind(insertNoteQuery+` RETURNING id`), args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoInsertID
		}
		if err != nil {
			return 0, fmt.Errorf("failed to create note: %w", err)
		}
		return id, nil
	}

	result, err := tx.ExecContext(ctx, r.dialect.Rebind(insertNoteQuery), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	if id == 0 {
		return 0, ErrNoInsertID
	}

	return id, nil
}

func (r *noteRepository) FindByOwner(ctx context.Context, userIP string, filter models.StatusFilter) ([]*models.Note, error) {
	var query string
	switch filter {
	case models.FilterUncomplete:
		query = selectUncompleteQuery
	case models.FilterComplete:
		query = selectCompleteQuery
	case models.FilterAny:
		query = selectAnyQuery
	default:
		return nil, fmt.Errorf("unknown status filter %q", filter)
	}

	rows, err := r.replica.QueryContext(ctx, r.dialect.Rebind(query), userIP)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, noteID int64, text string, done bool) (*models.Note, error) {
	tx, err := r.primary.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(updateNoteQuery), text, models.StatusFlag(done), noteID); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	note, err := scanNote(tx.QueryRowContext(ctx, r.dialect.Rebind(selectByIDQuery), noteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit note update: %w", err)
	}

	return note, nil
}

func (r *noteRepository) Delete(ctx context.Context, noteID int64) (int64, error) {
	result, err := r.primary.ExecContext(ctx, r.dialect.Rebind(deleteNoteQuery), noteID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var note models.Note
	var status sql.NullInt64

	err := row.Scan(&note.ID, &note.UserIP, &note.Text, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}

	note.Done = status.Valid && status.Int64 != 0
	return &note, nil
}
