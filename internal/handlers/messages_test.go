package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"teamchat-service/internal/mocks"
	"teamchat-service/internal/models"
	"teamchat-service/internal/notify"
	"teamchat-service/internal/presence"
	"teamchat-service/internal/repositories"
	"teamchat-service/internal/ws"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/rooms/:room_id/messages", handler.GetRoomMessages)
	r.POST("/rooms/:room_id/messages", handler.PostRoomMessage)
	r.GET("/rooms/:room_id/typers", handler.GetRoomTypers)
	return r
}

func TestGetRoomMessagesSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(roomRepo, messageRepo, new(mocks.UserRepositoryMock), nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("ListRoomMessages", mock.Anything, 5).Return([]models.Message{
		{ID: 1, RoomID: 5, SenderID: 1, Body: "hi"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetRoomMessagesForbiddenForNonMember(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestPostRoomMessageSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	notificationRepo := new(mocks.NotificationRepositoryMock)
	hub := ws.NewHub()
	tracker := presence.NewTracker(presence.TypingExpiry)
	defer tracker.Close()
	dispatcher := notify.NewDispatcher(notificationRepo, nil, nil, hub, "push.notifications")
	handler := NewMessageHandler(roomRepo, messageRepo, userRepo, hub, tracker, dispatcher, nil)
	router := setupMessageRouter(handler)

	room := models.Room{ID: 5, Kind: models.RoomKindGroup, Name: "Ops"}
	sender := models.User{ID: 1, DisplayName: "Alice", AvatarURL: "/a/alice.png"}
	stored := models.Message{ID: 99, RoomID: 5, SenderID: 1, SenderName: "Alice", SenderAvatar: "/a/alice.png", Body: "hello"}

	roomRepo.On("GetRoom", mock.Anything, 5).Return(room, nil).Once()
	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	userRepo.On("GetUser", mock.Anything, 1).Return(sender, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 5, 1, "Alice", "/a/alice.png", "hello").Return(stored, nil).Once()
	roomRepo.On("GetMemberIDs", mock.Anything, 5).Return([]int{1, 2}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []int{1, 2}).Return([]models.User{
		sender,
		{ID: 2, DisplayName: "Bob"},
	}, nil).Once()
	notificationRepo.On("CreateNotification", mock.Anything, 2, models.NotificationChatMessage, mock.Anything, 5).
		Return(models.Notification{ID: 1, RecipientID: 2}, nil).Once()

	body := bytes.NewBufferString(`{"body":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms/5/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 99, resp.ID)

	// Sending clears the composer's typing state.
	assert.Empty(t, tracker.CurrentTypers(5, 0))

	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	notificationRepo.AssertExpectations(t)
}

func TestPostRoomMessageRoomNotFound(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.Room{}, repositories.ErrRoomNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/5/messages", bytes.NewBufferString(`{"body":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestPostRoomMessageRejectsWhitespaceBody(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(roomRepo, messageRepo, new(mocks.UserRepositoryMock), nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Kind: models.RoomKindGroup}, nil).Once()
	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/5/messages", bytes.NewBufferString(`{"body":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostRoomMessageForbiddenForNonMember(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, Kind: models.RoomKindGroup}, nil).Once()
	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/5/messages", bytes.NewBufferString(`{"body":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestPostRoomMessageSucceedsWhenFanoutMembersFail(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	dispatcher := notify.NewDispatcher(new(mocks.NotificationRepositoryMock), nil, nil, nil, "push.notifications")
	handler := NewMessageHandler(roomRepo, messageRepo, userRepo, nil, nil, dispatcher, nil)
	router := setupMessageRouter(handler)

	room := models.Room{ID: 5, Kind: models.RoomKindGroup, Name: "Ops"}
	sender := models.User{ID: 1, DisplayName: "Alice"}

	roomRepo.On("GetRoom", mock.Anything, 5).Return(room, nil).Once()
	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	userRepo.On("GetUser", mock.Anything, 1).Return(sender, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 5, 1, "Alice", "", "hi").
		Return(models.Message{ID: 7, RoomID: 5, SenderID: 1, Body: "hi"}, nil).Once()
	roomRepo.On("GetMemberIDs", mock.Anything, 5).Return(([]int)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/5/messages", bytes.NewBufferString(`{"body":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// The message was stored; fan-out trouble stays invisible to the sender.
	require.Equal(t, http.StatusCreated, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestGetRoomTypersExcludesCaller(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	tracker := presence.NewTracker(presence.TypingExpiry)
	defer tracker.Close()
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil, tracker, nil, nil)
	router := setupMessageRouter(handler)

	roomRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	tracker.Set(5, 1, "Me", true)
	tracker.Set(5, 2, "Bob", true)

	req := httptest.NewRequest(http.MethodGet, "/rooms/5/typers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Typers []presence.Typer `json:"typers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Typers, 1)
	assert.Equal(t, 2, resp.Typers[0].UserID)
	roomRepo.AssertExpectations(t)
}
