package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/shinyyama/fleamarket-backend/internal/identity"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

const MaxMessageLength = 2000

type ConversationService interface {
	Open(ctx context.Context, sess session.Session, otherUID string) (*model.Conversation, error)
	List(ctx context.Context, sess session.Session) ([]model.Conversation, error)
	Get(ctx context.Context, sess session.Session, convID string) (*model.Conversation, error)
	Messages(ctx context.Context, sess session.Session, convID string, limit int) ([]model.Message, error)
	History(ctx context.Context, sess session.Session, convID string) ([]model.Message, error)
	Send(ctx context.Context, sess session.Session, convID, body string) (*model.Message, error)
}

type conversationService struct {
	chat *chat
}

func NewConversationService(convRepo repository.ConversationRepository, dir identity.Directory, pub Publisher) ConversationService {
	return &conversationService{chat: newChat(convRepo, dir, pub)}
}

func (s *conversationService) Open(ctx context.Context, sess session.Session, otherUID string) (*model.Conversation, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	otherUID = strings.TrimSpace(otherUID)
	if otherUID == "" || otherUID == sess.UID {
		return nil, fmt.Errorf("%w: participant must be another user", ErrInvalidInput)
	}
	return s.chat.convs.Upsert(ctx, s.chat.conversation(ctx, sess, otherUID))
}

func (s *conversationService) List(ctx context.Context, sess session.Session) ([]model.Conversation, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.chat.convs.ListByUser(ctx, sess.UID)
}

func (s *conversationService) Get(ctx context.Context, sess session.Session, convID string) (*model.Conversation, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	cv, err := s.chat.convs.FindByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !cv.HasParticipant(sess.UID) {
		return nil, ErrForbidden
	}
	return cv, nil
}

func (s *conversationService) Messages(ctx context.Context, sess session.Session, convID string, limit int) ([]model.Message, error) {
	if _, err := s.Get(ctx, sess, convID); err != nil {
		return nil, err
	}
	return s.chat.convs.ListMessages(ctx, convID, limit)
}

// History returns every message of the conversation, oldest first.
func (s *conversationService) History(ctx context.Context, sess session.Session, convID string) ([]model.Message, error) {
	if _, err := s.Get(ctx, sess, convID); err != nil {
		return nil, err
	}
	return s.chat.convs.ListAllMessages(ctx, convID)
}

func (s *conversationService) Send(ctx context.Context, sess session.Session, convID, body string) (*model.Message, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, fmt.Errorf("%w: body exceeds %d characters", ErrInvalidInput, MaxMessageLength)
	}
	cv, err := s.Get(ctx, sess, convID)
	if err != nil {
		return nil, err
	}
	msg := &model.Message{SenderUID: sess.UID, Body: body}
	if err := s.chat.post(ctx, cv, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// chat writes messages on behalf of users and of the system.
type chat struct {
	convs repository.ConversationRepository
	dir   identity.Directory
	pub   Publisher
}

func newChat(convs repository.ConversationRepository, dir identity.Directory, pub Publisher) *chat {
	return &chat{convs: convs, dir: dir, pub: pub}
}

// conversation builds the pair conversation with what is known about both participants.
func (c *chat) conversation(ctx context.Context, sess session.Session, otherUID string) *model.Conversation {
	details := model.ParticipantDetails{
		sess.UID: {DisplayName: sess.Name(), PhotoURL: sess.PhotoURL},
	}
	if c.dir != nil {
		p, err := c.dir.Lookup(ctx, otherUID)
		if err != nil {
			log.Printf("[chat] rid=%s stage=lookup_fail uid=%s err=%v", reqctx.RID(ctx), otherUID, err)
		} else {
			details[otherUID] = model.ParticipantDetail{DisplayName: p.DisplayName, PhotoURL: p.PhotoURL}
		}
	}
	return model.NewConversation(sess.UID, otherUID, details)
}

func (c *chat) post(ctx context.Context, cv *model.Conversation, msg *model.Message) error {
	if err := c.convs.AppendMessage(ctx, cv, msg); err != nil {
		return err
	}
	publishMessage(ctx, c.pub, cv, msg)
	return nil
}

// postSystem appends a system message and only logs failures.
func (c *chat) postSystem(ctx context.Context, sess session.Session, otherUID, body string, offerID string) {
	cv := c.conversation(ctx, sess, otherUID)
	msg := systemMessage(body, offerID)
	if err := c.post(ctx, cv, msg); err != nil {
		log.Printf("[chat] rid=%s stage=system_message_fail conv=%s offer=%s err=%v", reqctx.RID(ctx), cv.ID, offerID, err)
	}
}

func systemMessage(body, offerID string) *model.Message {
	msg := &model.Message{SenderUID: model.SystemSenderUID, Body: body, System: true}
	if offerID != "" {
		msg.OfferID = strPtr(offerID)
	}
	return msg
}
