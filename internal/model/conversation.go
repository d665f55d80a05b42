package model

import (
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type ParticipantDetail struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

type ParticipantDetails map[string]ParticipantDetail

type Conversation struct {
	ID                 string                                 `gorm:"primaryKey;size:520"`
	ParticipantA       string                                 `gorm:"column:participant_a;size:128;not null;index"`
	ParticipantB       string                                 `gorm:"column:participant_b;size:128;not null;index"`
	ParticipantDetails datatypes.JSONType[ParticipantDetails] `gorm:"column:participant_details"`
	LastMessage        string                                 `gorm:"column:last_message;type:text"`
	LastSenderUID      string                                 `gorm:"column:last_sender_uid;size:128"`
	LastMessageAt      *time.Time                             `gorm:"column:last_message_at;index"`
	CreatedAt          time.Time                              `gorm:"autoCreateTime"`
	UpdatedAt          time.Time                              `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// uidEscaper keeps the pair separator and "/" out of each uid.
var uidEscaper = strings.NewReplacer("~", "~~", "_", "~u", "/", "~s")

// ConversationID derives the conversation key from the sorted participant pair.
func ConversationID(uidA, uidB string) string {
	pair := []string{uidA, uidB}
	sort.Strings(pair)
	return uidEscaper.Replace(pair[0]) + "_" + uidEscaper.Replace(pair[1])
}

// NewConversation builds the conversation between two users with sorted participants.
func NewConversation(uidA, uidB string, details ParticipantDetails) *Conversation {
	pair := []string{uidA, uidB}
	sort.Strings(pair)
	if details == nil {
		details = ParticipantDetails{}
	}
	return &Conversation{
		ID:                 ConversationID(pair[0], pair[1]),
		ParticipantA:       pair[0],
		ParticipantB:       pair[1],
		ParticipantDetails: datatypes.NewJSONType(details),
	}
}

func (c *Conversation) HasParticipant(uid string) bool {
	return uid != "" && (c.ParticipantA == uid || c.ParticipantB == uid)
}

// Other returns the participant that is not uid.
func (c *Conversation) Other(uid string) string {
	if c.ParticipantA == uid {
		return c.ParticipantB
	}
	return c.ParticipantA
}
