package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/repository"
)

// MaxMessageLen bounds a single chat message.
const MaxMessageLen = 4000

// MessageService runs the one-room-per-cadet conversation with the admins.
type MessageService interface {
	Send(ctx context.Context, caller model.Caller, cadetID uuid.UUID, text string) (*model.ChatMessage, error)
	Thread(ctx context.Context, caller model.Caller, cadetID uuid.UUID) ([]model.ChatMessage, error)
	Rooms(ctx context.Context) ([]model.ChatRoom, error)
	MarkRead(ctx context.Context, caller model.Caller, cadetID uuid.UUID) error
}

type MessageServiceImpl struct {
	repo repository.MessageRepository
	effects
}

// NewMessageService constructs MessageService.
func NewMessageService(repo repository.MessageRepository, opts ...Option) *MessageServiceImpl {
	return &MessageServiceImpl{repo: repo, effects: newEffects(opts)}
}

// room resolves the room a caller may use. A cadet only ever has their own.
func room(caller model.Caller, cadetID uuid.UUID) (uuid.UUID, error) {
	if caller.IsAdmin() {
		if cadetID == uuid.Nil {
			return uuid.Nil, errs.Invalidf("cadet id is required")
		}
		return cadetID, nil
	}
	if cadetID != uuid.Nil && cadetID != caller.ID {
		return uuid.Nil, errs.ErrForbidden
	}
	return caller.ID, nil
}

func (s *MessageServiceImpl) Send(ctx context.Context, caller model.Caller, cadetID uuid.UUID, text string) (*model.ChatMessage, error) {
	cid, err := room(caller, cadetID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, errs.InvalidFields(errs.FieldError{Field: "text", Error: "is required"})
	case len(text) > MaxMessageLen:
		return nil, errs.InvalidFields(errs.FieldError{Field: "text", Error: "is too long"})
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	m := &model.ChatMessage{
		ID:         id,
		CadetID:    cid,
		SenderID:   caller.ID,
		SenderRole: caller.Role,
		Text:       text,
	}
	if err := s.repo.Append(ctx, m); err != nil {
		return nil, storeErr(err)
	}
	s.changed(ctx, model.CollectionMessages, model.OpCreated, cid)

	ev := notify.Event{Kind: notify.MessageSent, Subject: cid, Title: "New message", Body: text}
	if caller.IsAdmin() {
		ev.Recipients = []uuid.UUID{cid}
	}
	s.notify(ctx, ev)
	return m, nil
}

func (s *MessageServiceImpl) Thread(ctx context.Context, caller model.Caller, cadetID uuid.UUID) ([]model.ChatMessage, error) {
	cid, err := room(caller, cadetID)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.Thread(ctx, cid)
	return out, storeErr(err)
}

func (s *MessageServiceImpl) Rooms(ctx context.Context) ([]model.ChatRoom, error) {
	out, err := s.repo.Rooms(ctx)
	return out, storeErr(err)
}

func (s *MessageServiceImpl) MarkRead(ctx context.Context, caller model.Caller, cadetID uuid.UUID) error {
	cid, err := room(caller, cadetID)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, cid, caller.Role); err != nil {
		return storeErr(err)
	}
	s.changed(ctx, model.CollectionMessages, model.OpUpdated, cid)
	return nil
}
