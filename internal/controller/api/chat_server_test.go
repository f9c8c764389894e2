package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stock-chat/stock-chat/internal/chat"
	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/utils/jwt_utils"
	"github.com/stock-chat/stock-chat/internal/users"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	URL_BASE_PATH          = "/api/stock-chat/v1"
	MESSAGE_ENDPOINT       = URL_BASE_PATH + "/message"
	MESSAGES_ENDPOINT      = URL_BASE_PATH + "/messages"
	UPDATES_ENDPOINT       = URL_BASE_PATH + "/updates"
	ONLINE_USERS_ENDPOINT  = URL_BASE_PATH + "/users/online"
	LOGIN_ENDPOINT         = URL_BASE_PATH + "/login"
	TEST_TOKEN_SIGNING_KEY = "chat-server-test-signing-key"
)

type MockMessageStore struct {
	appendedMessages []chat.Message
	storedMessages   []chat.Message
	appendError      error
}

func (mms *MockMessageStore) Append(ctx context.Context, message *chat.Message) error {
	if mms.appendError != nil {
		return mms.appendError
	}
	message.ID = int64(len(mms.appendedMessages) + 1)
	mms.appendedMessages = append(mms.appendedMessages, *message)
	return nil
}

func (mms *MockMessageStore) LastN(ctx context.Context, count int) ([]chat.Message, error) {
	if count >= len(mms.storedMessages) {
		return mms.storedMessages, nil
	}
	return mms.storedMessages[len(mms.storedMessages)-count:], nil
}

func (mms *MockMessageStore) PostedAfter(ctx context.Context, after time.Time, limit int) ([]chat.Message, error) {
	var result []chat.Message
	for _, message := range mms.storedMessages {
		if message.PostedAt.After(after) {
			result = append(result, message)
		}
	}
	return result, nil
}

type MockCommandStore struct {
	answeredRecords []command.Record
	takenFromUsers  []domain.UserID
}

func (mcs *MockCommandStore) Create(ctx context.Context, record *command.Record) error {
	return nil
}

func (mcs *MockCommandStore) RecordAnswer(ctx context.Context, id uuid.UUID, responsePayload string, answeredAt time.Time) error {
	return nil
}

func (mcs *MockCommandStore) TakeAnswered(ctx context.Context, userID domain.UserID) ([]command.Record, error) {
	mcs.takenFromUsers = append(mcs.takenFromUsers, userID)
	records := mcs.answeredRecords
	mcs.answeredRecords = nil
	return records, nil
}

func (mcs *MockCommandStore) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type dispatchedCommand struct {
	user domain.User
	name string
	arg  string
}

type MockDispatcher struct {
	dispatchedCommands []dispatchedCommand
	dispatchError      error
}

func (md *MockDispatcher) Dispatch(ctx context.Context, user domain.User, name string, arg string) (uuid.UUID, error) {
	if md.dispatchError != nil {
		return uuid.Nil, md.dispatchError
	}
	md.dispatchedCommands = append(md.dispatchedCommands, dispatchedCommand{user: user, name: name, arg: arg})
	return uuid.New(), nil
}

type MockSessionStore struct {
	liveSessions    map[domain.UserID]domain.Username
	removedSessions []domain.UserID
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{liveSessions: make(map[domain.UserID]domain.Username)}
}

func (mss *MockSessionStore) RegisterSession(ctx context.Context, user domain.User) error {
	mss.liveSessions[user.ID] = user.Username
	return nil
}

func (mss *MockSessionStore) RefreshSession(ctx context.Context, userID domain.UserID) error {
	return nil
}

func (mss *MockSessionStore) SessionExists(ctx context.Context, userID domain.UserID) (bool, error) {
	_, exists := mss.liveSessions[userID]
	return exists, nil
}

func (mss *MockSessionStore) RemoveSession(ctx context.Context, userID domain.UserID) error {
	delete(mss.liveSessions, userID)
	mss.removedSessions = append(mss.removedSessions, userID)
	return nil
}

func (mss *MockSessionStore) OnlineUsers(ctx context.Context, exclude domain.UserID) ([]domain.User, error) {
	var online []domain.User
	for userID, username := range mss.liveSessions {
		if userID == exclude {
			continue
		}
		online = append(online, domain.User{ID: userID, Username: username})
	}
	return online, nil
}

type MockUserStore struct {
	knownUsers map[string]domain.User
	passwords  map[string]string
}

func (mus *MockUserStore) Authenticate(ctx context.Context, username string, password string) (domain.User, error) {
	user, known := mus.knownUsers[username]
	if !known || mus.passwords[username] != password {
		return domain.User{}, users.ErrInvalidCredentials
	}
	return user, nil
}

var _ = Describe("ChatServer", func() {

	var (
		cfg          *config.Config
		messageStore *MockMessageStore
		commandStore *MockCommandStore
		dispatcher   *MockDispatcher
		sessionStore *MockSessionStore
		userStore    *MockUserStore
		router       *mux.Router
		testUser     domain.User
		authToken    string
	)

	BeforeEach(func() {
		cfg = config.GetConfig()
		cfg.SessionTokenSigningKey = TEST_TOKEN_SIGNING_KEY

		messageStore = &MockMessageStore{}
		commandStore = &MockCommandStore{}
		dispatcher = &MockDispatcher{}
		sessionStore = NewMockSessionStore()
		userStore = &MockUserStore{
			knownUsers: map[string]domain.User{"testuser": {ID: 42, Username: "testuser"}},
			passwords:  map[string]string{"testuser": "s3cret"},
		}

		testUser = domain.User{ID: 42, Username: "testuser"}

		var err error
		authToken, err = jwt_utils.GenerateSessionToken(testUser, TEST_TOKEN_SIGNING_KEY, time.Hour)
		Expect(err).NotTo(HaveOccurred())

		Expect(sessionStore.RegisterSession(context.TODO(), testUser)).To(Succeed())

		router = mux.NewRouter()
		chatServer := NewChatServer(router, cfg, messageStore, commandStore, dispatcher, sessionStore, userStore)
		chatServer.Routes()
	})

	makeAuthenticatedRequest := func(method string, url string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+authToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	Describe("posting a message", func() {

		It("stores a plain chat message and returns it", func() {
			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": "hello there"}`))

			Expect(rr.Code).To(Equal(http.StatusCreated))
			Expect(messageStore.appendedMessages).To(HaveLen(1))
			Expect(messageStore.appendedMessages[0].Text).To(Equal("hello there"))
			Expect(messageStore.appendedMessages[0].UserID).To(Equal(testUser.ID))

			var displayMessage chat.DisplayMessage
			Expect(json.Unmarshal(rr.Body.Bytes(), &displayMessage)).To(Succeed())
			Expect(displayMessage.Text).To(Equal("hello there"))
			Expect(displayMessage.Type).To(Equal("message"))
			Expect(displayMessage.User.Username).To(Equal("testuser"))
		})

		It("rejects an empty message", func() {
			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": ""}`))

			Expect(rr.Code).To(Equal(http.StatusBadRequest))

			var response map[string]interface{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response["error"]).To(Equal(true))
			Expect(response["message"]).To(Equal("Parameter \"message\" was not send or was empty."))
			Expect(response["code"]).To(Equal("CH01"))
		})

		It("queues a recognized command without storing a chat message", func() {
			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": "/stock=aapl.us"}`))

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(messageStore.appendedMessages).To(BeEmpty())
			Expect(dispatcher.dispatchedCommands).To(HaveLen(1))
			Expect(dispatcher.dispatchedCommands[0].name).To(Equal("stock"))
			Expect(dispatcher.dispatchedCommands[0].arg).To(Equal("aapl.us"))
			Expect(dispatcher.dispatchedCommands[0].user).To(Equal(testUser))

			var ack map[string]interface{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &ack)).To(Succeed())
			Expect(ack["type"]).To(Equal("command"))
			Expect(ack["status"]).To(Equal("queued"))
			Expect(ack["error"]).To(Equal(false))
		})

		It("rejects an unrecognized command", func() {
			dispatcher.dispatchError = command.ErrUnknownCommand

			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": "/weather=sp"}`))

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(messageStore.appendedMessages).To(BeEmpty())

			var response map[string]interface{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response["message"]).To(Equal("Command \"weather\" not recognized."))
		})

		It("stores slash text that fails the command grammar as a chat message", func() {
			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": "/stock =aapl.us"}`))

			Expect(rr.Code).To(Equal(http.StatusCreated))
			Expect(dispatcher.dispatchedCommands).To(BeEmpty())
			Expect(messageStore.appendedMessages).To(HaveLen(1))
		})

		It("reports a database failure", func() {
			messageStore.appendError = errors.New("database is down")

			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": "hello"}`))

			Expect(rr.Code).To(Equal(http.StatusInternalServerError))

			var response map[string]interface{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response["code"]).To(Equal("DB01"))
		})

		It("reports a dispatch failure", func() {
			dispatcher.dispatchError = errors.New("broker unreachable")

			rr := makeAuthenticatedRequest(http.MethodPost, MESSAGE_ENDPOINT, []byte(`{"message": "/stock=aapl.us"}`))

			Expect(rr.Code).To(Equal(http.StatusInternalServerError))

			var response map[string]interface{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response["code"]).To(Equal("CH02"))
		})

		It("rejects a request without a session token", func() {
			req := httptest.NewRequest(http.MethodPost, MESSAGE_ENDPOINT, bytes.NewReader([]byte(`{"message": "hello"}`)))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("reading the last messages", func() {

		BeforeEach(func() {
			base := time.Now().UTC()
			messageStore.storedMessages = []chat.Message{
				{ID: 1, UserID: 42, Username: "testuser", PostedAt: base.Add(-2 * time.Minute), Text: "older"},
				{ID: 2, UserID: 43, Username: "otheruser", PostedAt: base.Add(-time.Minute), Text: "newer"},
			}
		})

		It("returns the stored messages as display messages", func() {
			rr := makeAuthenticatedRequest(http.MethodGet, MESSAGES_ENDPOINT, nil)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var displayMessages []chat.DisplayMessage
			Expect(json.Unmarshal(rr.Body.Bytes(), &displayMessages)).To(Succeed())
			Expect(displayMessages).To(HaveLen(2))
			Expect(displayMessages[0].Text).To(Equal("older"))
			Expect(displayMessages[1].Text).To(Equal("newer"))
		})

		It("rejects an invalid count parameter", func() {
			rr := makeAuthenticatedRequest(http.MethodGet, MESSAGES_ENDPOINT+"?count=bogus", nil)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("polling for updates", func() {

		It("rejects an invalid last_t parameter", func() {
			rr := makeAuthenticatedRequest(http.MethodGet, UPDATES_ENDPOINT+"?last_t=tomorrow", nil)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))

			var response map[string]interface{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response["message"]).To(Equal("Invalid date: tomorrow"))
		})

		It("merges new chat messages with the caller's answered commands", func() {
			base := time.Now().UTC()

			messageStore.storedMessages = []chat.Message{
				{ID: 1, UserID: 43, Username: "otheruser", PostedAt: base.Add(-30 * time.Second), Text: "new message"},
			}

			answeredAt := base.Add(-10 * time.Second)
			responsePayload := `{"error":false,"message":"AAPL.US (Apple) quote is $93.42 per share."}`
			commandStore.answeredRecords = []command.Record{{
				ID:              uuid.New(),
				PostedAt:        base.Add(-20 * time.Second),
				AnsweredAt:      &answeredAt,
				RequestPayload:  `{"type":"stock","arg":"aapl.us"}`,
				ResponsePayload: &responsePayload,
				UserID:          testUser.ID,
				Username:        testUser.Username,
			}}

			lastT := base.Add(-time.Minute).Format(time.RFC3339)
			rr := makeAuthenticatedRequest(http.MethodGet, UPDATES_ENDPOINT+"?last_t="+lastT, nil)

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(commandStore.takenFromUsers).To(Equal([]domain.UserID{testUser.ID}))

			var displayMessages []chat.DisplayMessage
			Expect(json.Unmarshal(rr.Body.Bytes(), &displayMessages)).To(Succeed())
			Expect(displayMessages).To(HaveLen(2))
			Expect(displayMessages[0].Text).To(Equal("new message"))
			Expect(displayMessages[0].Type).To(Equal("message"))
			Expect(displayMessages[1].Text).To(Equal("AAPL.US (Apple) quote is $93.42 per share."))
			Expect(displayMessages[1].Type).To(Equal("command"))
			Expect(displayMessages[1].User.Username).To(Equal("Bot"))
		})

		It("returns an empty list when nothing happened", func() {
			rr := makeAuthenticatedRequest(http.MethodGet, UPDATES_ENDPOINT, nil)

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON("[]"))
		})
	})

	Describe("listing online users", func() {

		It("returns the other users with live sessions", func() {
			otherUser := domain.User{ID: 43, Username: "otheruser"}
			Expect(sessionStore.RegisterSession(context.TODO(), otherUser)).To(Succeed())

			rr := makeAuthenticatedRequest(http.MethodGet, ONLINE_USERS_ENDPOINT, nil)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var online []chat.DisplayUser
			Expect(json.Unmarshal(rr.Body.Bytes(), &online)).To(Succeed())
			Expect(online).To(HaveLen(1))
			Expect(online[0].ID).To(Equal(int64(43)))
			Expect(online[0].Username).To(Equal("otheruser"))
		})
	})

	Describe("logging in", func() {

		It("issues a session token for valid credentials", func() {
			req := httptest.NewRequest(http.MethodPost, LOGIN_ENDPOINT,
				bytes.NewReader([]byte(`{"username": "testuser", "password": "s3cret"}`)))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var response struct {
				Token string           `json:"token"`
				User  chat.DisplayUser `json:"user"`
			}
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response.User.Username).To(Equal("testuser"))

			parsedUser, err := jwt_utils.ParseSessionToken(response.Token, TEST_TOKEN_SIGNING_KEY)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsedUser).To(Equal(testUser))
		})

		It("rejects invalid credentials", func() {
			req := httptest.NewRequest(http.MethodPost, LOGIN_ENDPOINT,
				bytes.NewReader([]byte(`{"username": "testuser", "password": "wrong"}`)))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects a request without credentials", func() {
			req := httptest.NewRequest(http.MethodPost, LOGIN_ENDPOINT, bytes.NewReader([]byte(`{}`)))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
