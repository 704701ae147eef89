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
)

func setupRoomRouter(handler *RoomHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/rooms", handler.ListRooms)
	r.POST("/rooms", handler.CreateRoom)
	r.GET("/rooms/active", handler.ActiveRoom)
	return r
}

func TestListRoomsDerivesPrivateDisplay(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRoomHandler(roomRepo, userRepo, nil, nil)
	router := setupRoomRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, 1).Return([]models.RoomSummary{
		{
			Room:      models.Room{ID: 5, Kind: models.RoomKindPrivate},
			MemberIDs: []int{1, 2},
		},
	}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []int{1, 2}).Return([]models.User{
		{ID: 1, DisplayName: "Me"},
		{ID: 2, DisplayName: "Bob Smith", AvatarURL: "/a/bob.png"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rooms []roomResponse `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, "Bob Smith", resp.Rooms[0].DisplayName)
	assert.Equal(t, "/a/bob.png", resp.Rooms[0].DisplayAvatar)

	roomRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestListRoomsGroupKeepsStoredName(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRoomHandler(roomRepo, userRepo, nil, nil)
	router := setupRoomRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, 1).Return([]models.RoomSummary{
		{
			Room:      models.Room{ID: 6, Kind: models.RoomKindGroup, Name: "Launch", AvatarURL: "/a/launch.png"},
			MemberIDs: []int{1, 2, 3},
		},
	}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []int{1, 2, 3}).Return([]models.User{
		{ID: 1, DisplayName: "Me"},
		{ID: 2, DisplayName: "Bob"},
		{ID: 3, DisplayName: "Carol"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rooms []roomResponse `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, "Launch", resp.Rooms[0].DisplayName)

	roomRepo.AssertExpectations(t)
}

func TestListRoomsRepoError(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(roomRepo, new(mocks.UserRepositoryMock), nil, nil)
	router := setupRoomRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, 1).Return(([]models.RoomSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestCreateGroupRoomSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRoomHandler(roomRepo, userRepo, nil, nil)
	router := setupRoomRouter(handler)

	userRepo.On("BulkUsers", mock.Anything, []int{2, 3}).Return([]models.User{
		{ID: 2}, {ID: 3},
	}, nil).Once()
	roomRepo.On("CreateRoom", mock.Anything, 1, models.RoomKindGroup, "Launch", "", []int{2, 3}).
		Return(models.Room{ID: 12, Kind: models.RoomKindGroup, Name: "Launch"}, nil).Once()

	body := bytes.NewBufferString(`{"kind":"group","name":"Launch","member_ids":[2,3]}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 12, resp["room_id"])

	roomRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestCreateGroupRoomRequiresName(t *testing.T) {
	handler := NewRoomHandler(new(mocks.RoomRepositoryMock), new(mocks.UserRepositoryMock), nil, nil)
	router := setupRoomRouter(handler)

	body := bytes.NewBufferString(`{"kind":"group","member_ids":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoomRejectsUnknownKind(t *testing.T) {
	handler := NewRoomHandler(new(mocks.RoomRepositoryMock), new(mocks.UserRepositoryMock), nil, nil)
	router := setupRoomRouter(handler)

	body := bytes.NewBufferString(`{"kind":"channel","name":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoomRejectsUnknownMember(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRoomHandler(new(mocks.RoomRepositoryMock), userRepo, nil, nil)
	router := setupRoomRouter(handler)

	userRepo.On("BulkUsers", mock.Anything, []int{2, 99}).Return([]models.User{{ID: 2}}, nil).Once()

	body := bytes.NewBufferString(`{"kind":"private","member_ids":[2,99]}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestCreatePrivateRoomDropsStoredName(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewRoomHandler(roomRepo, userRepo, nil, nil)
	router := setupRoomRouter(handler)

	userRepo.On("BulkUsers", mock.Anything, []int{2}).Return([]models.User{{ID: 2}}, nil).Once()
	roomRepo.On("CreateRoom", mock.Anything, 1, models.RoomKindPrivate, "", "", []int{2}).
		Return(models.Room{ID: 13, Kind: models.RoomKindPrivate}, nil).Once()

	body := bytes.NewBufferString(`{"kind":"private","name":"ignored","member_ids":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestActiveRoomHonorsCandidateOrder(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(roomRepo, new(mocks.UserRepositoryMock), nil, nil)
	router := setupRoomRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, 1).Return([]models.RoomSummary{
		{Room: models.Room{ID: 4}},
		{Room: models.Room{ID: 7}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/active?candidates=99,7,4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 7, resp["room_id"])
	roomRepo.AssertExpectations(t)
}

func TestActiveRoomNoRooms(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewRoomHandler(roomRepo, new(mocks.UserRepositoryMock), nil, nil)
	router := setupRoomRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, 1).Return([]models.RoomSummary{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/active", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp["room_id"])
	roomRepo.AssertExpectations(t)
}
