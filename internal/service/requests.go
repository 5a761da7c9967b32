package service

import (
	"strconv"
	"strings"

	"todo-service/internal/models"
	"todo-service/pkg/helpers"
)

// Params is the untyped parameter source of a request, e.g. url.Values
type Params interface {
	Get(key string) string
}

// Note text and owner limits in bytes
const (
	MaxNoteTextBytes = 128
	MaxUserIPBytes   = 64
)

type CreateNoteRequest struct {
	UserIP   string `param:"user_ip" validate:"required,maxbytes=64"`
	NoteText string `param:"note_text" validate:"required,maxbytes=128"`
}

type GetNoteRequest struct {
	UserIP string              `param:"user_ip" validate:"required"`
	Status models.StatusFilter `param:"notes_status" validate:"required,oneof=uncomplete complete any"`
}

type DeleteNoteRequest struct {
	RawNoteID string `param:"note_id" validate:"required,nonzero_int"`
	NoteID    int64  `validate:"-"`
}

type UpdateNoteRequest struct {
	RawNoteID  string `param:"note_id" validate:"required,nonzero_int"`
	NoteText   string `param:"note_text" validate:"required,maxbytes=128"`
	RawStatus  string `param:"note_status" validate:"required,oneof=true false"`
	NoteID     int64  `validate:"-"`
	NoteStatus bool   `validate:"-"`
}

// requestParser turns Params into validated request structs
type requestParser struct {
	validator *helpers.CustomValidator
}

func (p requestParser) validate(req interface{}) error {
	if err := p.validator.Validate(req); err != nil {
		fields := helpers.FieldErrors(err)
		if fields == nil {
			return Internal("validation failed", err)
		}
		return BadRequest(fields)
	}
	return nil
}

func (p requestParser) create(params Params) (CreateNoteRequest, error) {
	req := CreateNoteRequest{
		UserIP:   params.Get("user_ip"),
		NoteText: params.Get("note_text"),
	}
	return req, p.validate(req)
}

func (p requestParser) get(params Params) (GetNoteRequest, error) {
	req := GetNoteRequest{
		UserIP: params.Get("user_ip"),
		Status: models.StatusFilter(params.Get("notes_status")),
	}
	return req, p.validate(req)
}

func (p requestParser) delete(params Params) (DeleteNoteRequest, error) {
	req := DeleteNoteRequest{RawNoteID: params.Get("note_id")}
	if err := p.validate(req); err != nil {
		return req, err
	}
	req.NoteID = parseNoteID(req.RawNoteID)
	return req, nil
}

func (p requestParser) update(params Params) (UpdateNoteRequest, error) {
	req := UpdateNoteRequest{
		RawNoteID: params.Get("note_id"),
		NoteText:  params.Get("note_text"),
		RawStatus: params.Get("note_status"),
	}
	if err := p.validate(req); err != nil {
		return req, err
	}
	req.NoteID = parseNoteID(req.RawNoteID)
	req.NoteStatus = req.RawStatus == "true"
	return req, nil
}

// parseNoteID is called only after nonzero_int has accepted raw
func parseNoteID(raw string) int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return id
}
