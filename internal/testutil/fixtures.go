package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username    string
	displayName string
	password    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	username := fmt.Sprintf("user_%s", uuid.New().String()[:8])
	return &UserBuilder{
		username:    username,
		displayName: username,
		password:    "testpassword123",
	}
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build inserts the user directly and returns it with the raw password.
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     strings.ToLower(b.username),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
		IsGuest     bool   `json:"isGuest"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate registers the user through the API and returns it
// with an access token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username":    b.username,
		"displayName": b.displayName,
		"password":    b.password,
	})

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	return &domain.User{
		ID:          userID,
		Username:    authResp.User.Username,
		DisplayName: authResp.User.DisplayName,
	}, authResp.AccessToken
}

// GuestToken signs in a guest through the API.
func GuestToken(t *testing.T, ts *TestServer, displayName string) (uuid.UUID, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"displayName": displayName})
	resp, err := http.Post(ts.APIURL("/auth/guest"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to create guest: %v", err)
	}
	defer resp.Body.Close()

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	userID, err := uuid.Parse(authResp.User.ID)
	if err != nil {
		t.Fatalf("guest response carried no user id: %v", err)
	}
	return userID, authResp.AccessToken
}

// RoomBuilder assembles lobby rooms without going through the service.
type RoomBuilder struct {
	code         string
	language     string
	players      int
	disconnected bool
}

func NewRoomBuilder() *RoomBuilder {
	return &RoomBuilder{
		code:     domain.GenerateRoomCode(),
		language: "en",
		players:  1,
	}
}

func (b *RoomBuilder) WithCode(code string) *RoomBuilder {
	b.code = code
	return b
}

func (b *RoomBuilder) WithLanguage(language string) *RoomBuilder {
	b.language = language
	return b
}

// WithPlayers sets the total head count, admin included.
func (b *RoomBuilder) WithPlayers(n int) *RoomBuilder {
	b.players = n
	return b
}

// Disconnected marks every player as offline.
func (b *RoomBuilder) Disconnected() *RoomBuilder {
	b.disconnected = true
	return b
}

// BuildRoom returns an unsaved lobby and its player ids in join order; the
// first id is the admin.
func (b *RoomBuilder) BuildRoom(t *testing.T) (*domain.Room, []uuid.UUID) {
	t.Helper()

	ids := []uuid.UUID{uuid.New()}
	room, err := domain.NewRoom(uuid.New(), b.code, ids[0], "Player 1", b.language)
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	for i := 2; i <= b.players; i++ {
		id := uuid.New()
		room, err = room.AddPlayer(id, fmt.Sprintf("Player %d", i))
		if err != nil {
			t.Fatalf("failed to add player %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	if b.disconnected {
		for _, id := range ids {
			if room, err = room.DisconnectPlayer(id); err != nil {
				t.Fatalf("failed to disconnect player: %v", err)
			}
		}
	}

	return room, ids
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	bodyReader := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends an authenticated JSON request and fails the test on transport errors.
func Do(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, url, body, token))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
