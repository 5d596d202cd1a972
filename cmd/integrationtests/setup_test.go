package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/clock"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/services/bidding/helpers"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const eventsChannel = "auction_events_test"

// Stack is the full HTTP stack over one store backend
type Stack struct {
	Router *gin.Engine
	Clock  *clock.Manual
	Redis  *redis.Client // nil for the memory backend

	addItem func(model.Item)
	addUser func(model.User)
}

type backend struct {
	name  string
	setup func(t *testing.T) *Stack
}

// backends lists the stores every API test runs against
var backends = []backend{
	{name: "memory", setup: setupMemoryStack},
	{name: "redis", setup: setupRedisStack},
}

func setupMemoryStack(t *testing.T) *Stack {
	repo := repository.NewMemoryRepo()
	return newStack(t, repo, nil, repo.AddItem, repo.AddUser)
}

func setupRedisStack(t *testing.T) *Stack {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := repository.NewRedisRepo(client)
	addItem := func(item model.Item) {
		require.NoError(t, repo.CreateItem(context.Background(), item))
	}
	addUser := func(user model.User) {
		require.NoError(t, repo.AddUser(context.Background(), user))
	}
	return newStack(t, repo, client, addItem, addUser)
}

func newStack(t *testing.T, repo repository.AuctionDB, client *redis.Client, addItem func(model.Item), addUser func(model.User)) *Stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewManual(startTime)
	var publisher events.Publisher = events.LogPublisher{}
	if client != nil {
		publisher = events.NewRedisPublisher(client, eventsChannel)
	}

	service := bidding.NewBiddingService(repo, bidding.WithClock(clk), bidding.WithPublisher(publisher))
	router := server.SetupRouter(service, server.Dependencies{})
	return &Stack{Router: router, Clock: clk, Redis: client, addItem: addItem, addUser: addUser}
}

// SeedItems stores items as-is. Zero end dates default to one hour after the start time.
func (s *Stack) SeedItems(items ...model.Item) {
	for i, item := range items {
		if item.EndDate.IsZero() {
			item.EndDate = startTime.Add(time.Hour)
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = startTime.Add(time.Duration(i) * time.Millisecond)
		}
		s.addItem(item)
	}
}

func (s *Stack) SeedUsers(users ...model.User) {
	for _, user := range users {
		s.addUser(user)
	}
}

// ExecuteRequestAndParse executes an HTTP request as userID and parses the envelope.
// For 2xx responses resp holds the envelope's data.
func (s *Stack) ExecuteRequestAndParse(t *testing.T, method, url, userID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(helpers.UserIDHeader, userID)
	}
	s.Router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// forEachBackend runs fn as a subtest per store backend
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Stack)) {
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.setup(t))
		})
	}
}
