package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"todo-service/internal/events"
	"todo-service/internal/models"
	"todo-service/internal/repository"
	"todo-service/pkg/helpers"
	"todo-service/pkg/logger"
)

// Response is what a handled request produces. Body is nil, a string, or a
// *models.Note to be rendered as JSON.
type Response struct {
	Status int
	Body   interface{}
}

type NoteService interface {
	// Handle dispatches one request by HTTP method to a single store operation
	Handle(ctx context.Context, method string, params Params) (*Response, error)
}

type noteService struct {
	noteRepo  repository.NoteRepository
	publisher events.Publisher
	parser    requestParser
	log       *logger.Logger
}

func NewNoteService(noteRepo repository.NoteRepository, publisher events.Publisher, log *logger.Logger) NoteService {
	if publisher == nil {
		publisher = events.NopPublisher()
	}
	return &noteService{
		noteRepo:  noteRepo,
		publisher: publisher,
		parser:    requestParser{validator: helpers.NewCustomValidator()},
		log:       log,
	}
}

func (s *noteService) Handle(ctx context.Context, method string, params Params) (*Response, error) {
	switch method {
	case http.MethodGet:
		req, err := s.parser.get(params)
		if err != nil {
			return nil, s.rejected(method, err)
		}
		note, err := s.getNote(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, Body: note}, nil

	case http.MethodPut:
		req, err := s.parser.create(params)
		if err != nil {
			return nil, s.rejected(method, err)
		}
		id, err := s.createNote(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusCreated, Body: strconv.FormatInt(id, 10)}, nil

	case http.MethodDelete:
		req, err := s.parser.delete(params)
		if err != nil {
			return nil, s.rejected(method, err)
		}
		affected, err := s.deleteNote(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, Body: strconv.FormatInt(affected, 10)}, nil

	case http.MethodPatch:
		req, err := s.parser.update(params)
		if err != nil {
			return nil, s.rejected(method, err)
		}
		note, err := s.updateNote(ctx, req)
		if err != nil {
			return nil, err
		}
		if note == nil {
			return &Response{Status: http.StatusOK}, nil
		}
		return &Response{Status: http.StatusOK, Body: note}, nil

	default:
		return nil, MethodNotAllowed(method)
	}
}

func (s *noteService) rejected(method string, err error) error {
	s.log.WithFields(logrus.Fields{
		"method": method,
		"error":  err.Error(),
	}).Debug("request rejected")
	return err
}

// getNote returns the newest of the owner's notes matching the filter
func (s *noteService) getNote(ctx context.Context, req GetNoteRequest) (*models.Note, error) {
	notes, err := s.noteRepo.FindByOwner(ctx, req.UserIP, req.Status)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, NotFound("no %s notes for %s", req.Status, req.UserIP)
	}
	return notes[len(notes)-1], nil
}

func (s *noteService) createNote(ctx context.Context, req CreateNoteRequest) (int64, error) {
	id, err := s.noteRepo.Create(ctx, req.UserIP, req.NoteText)
	if errors.Is(err, repository.ErrNoInsertID) {
		return 0, Internal("note was not created", err)
	}
	if err != nil {
		return 0, err
	}

	s.publish(ctx, events.NewEvent(events.NoteCreated, id, req.UserIP))
	return id, nil
}

func (s *noteService) deleteNote(ctx context.Context, req DeleteNoteRequest) (int64, error) {
	affected, err := s.noteRepo.Delete(ctx, req.NoteID)
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		s.publish(ctx, events.NewEvent(events.NoteDeleted, req.NoteID, ""))
	}
	return affected, nil
}

func (s *noteService) updateNote(ctx context.Context, req UpdateNoteRequest) (*models.Note, error) {
	note, err := s.noteRepo.Update(ctx, req.NoteID, req.NoteText, req.NoteStatus)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	event := events.NewEvent(events.NoteUpdated, note.ID, note.UserIP)
	done := note.Done
	event.Done = &done
	s.publish(ctx, event)

	return note, nil
}

// publish never fails the request; the write is already committed
func (s *noteService) publish(ctx context.Context, event events.NoteEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithFields(logrus.Fields{
			"event":   event.Type,
			"note_id": event.NoteID,
			"error":   err.Error(),
		}).Warn("failed to publish note event")
	}
}
