package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/service"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type ConversationResponse struct {
	ID                 string                   `json:"id"`
	Participants       []string                 `json:"participants"`
	ParticipantDetails model.ParticipantDetails `json:"participantDetails"`
	LastMessage        string                   `json:"lastMessage,omitempty"`
	LastSenderUID      string                   `json:"lastSenderUid,omitempty"`
	LastMessageAt      *string                  `json:"lastMessageAt,omitempty"`
}

type OpenConversationRequest struct {
	ParticipantUID string `json:"participantUid" validate:"required"`
}

type MessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func toConversationResponse(cv *model.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:                 cv.ID,
		Participants:       []string{cv.ParticipantA, cv.ParticipantB},
		ParticipantDetails: cv.ParticipantDetails.Data(),
		LastMessage:        cv.LastMessage,
		LastSenderUID:      cv.LastSenderUID,
	}
	if resp.ParticipantDetails == nil {
		resp.ParticipantDetails = model.ParticipantDetails{}
	}
	if cv.LastMessageAt != nil {
		s := cv.LastMessageAt.UTC().Format(timeLayout)
		resp.LastMessageAt = &s
	}
	return resp
}

func (h *ConversationHandler) Open(c echo.Context) error {
	var req OpenConversationRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	cv, err := h.svc.Open(c.Request().Context(), appmw.SessionFrom(c), req.ParticipantUID)
	if err != nil {
		return writeError(c, err, "failed to open conversation")
	}
	return c.JSON(http.StatusOK, toConversationResponse(cv))
}

func (h *ConversationHandler) List(c echo.Context) error {
	convs, err := h.svc.List(c.Request().Context(), appmw.SessionFrom(c))
	if err != nil {
		return writeError(c, err, "failed to fetch conversations")
	}
	resp := make([]ConversationResponse, 0, len(convs))
	for i := range convs {
		resp = append(resp, toConversationResponse(&convs[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"conversations": resp})
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	msgs, err := h.svc.Messages(c.Request().Context(), appmw.SessionFrom(c), c.Param("id"), limit)
	if err != nil {
		return writeError(c, err, "failed to fetch messages")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messageViews(msgs)})
}

func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	var req MessageRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	msg, err := h.svc.Send(c.Request().Context(), appmw.SessionFrom(c), c.Param("id"), req.Body)
	if err != nil {
		return writeError(c, err, "failed to send message")
	}
	return c.JSON(http.StatusCreated, service.NewMessageView(msg))
}

func messageViews(msgs []model.Message) []service.MessageView {
	out := make([]service.MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, service.NewMessageView(&msgs[i]))
	}
	return out
}
