package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"todo-service/internal/models"
)

// memoryNoteRepository keeps notes in process memory. It backs DB_DRIVER=memory
// for local runs and the service tests.
type memoryNoteRepository struct {
	mu     sync.RWMutex
	nextID int64
	notes  map[int64]models.Note
}

// NewMemoryNoteRepository creates an empty in-memory repository
func NewMemoryNoteRepository() NoteRepository {
	return &memoryNoteRepository{
		notes: make(map[int64]models.Note),
	}
}

func (r *memoryNoteRepository) Create(ctx context.Context, userIP, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.notes[r.nextID] = models.Note{ID: r.nextID, UserIP: userIP, Text: text}
	return r.nextID, nil
}

func (r *memoryNoteRepository) FindByOwner(ctx context.Context, userIP string, filter models.StatusFilter) ([]*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var notes []*models.Note
	for _, n := range r.notes {
		if n.UserIP != userIP {
			continue
		}
		switch filter {
		case models.FilterUncomplete:
			if n.Done {
				continue
			}
		case models.FilterComplete:
			if !n.Done {
				continue
			}
		case models.FilterAny:
		default:
			return nil, fmt.Errorf("unknown status filter %q", filter)
		}
		note := n
		notes = append(notes, &note)
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *memoryNoteRepository) Update(ctx context.Context, noteID int64, text string, done bool) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[noteID]
	if !ok {
		return nil, nil
	}
	n.Text = text
	n.Done = done
	r.notes[noteID] = n

	return &n, nil
}

func (r *memoryNoteRepository) Delete(ctx context.Context, noteID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[noteID]; !ok {
		return 0, nil
	}
	delete(r.notes, noteID)
	return 1, nil
}
