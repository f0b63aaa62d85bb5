package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	IsGuest     bool   `json:"isGuest"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Connected   bool   `json:"connected"`
	Eliminated  bool   `json:"eliminated"`
	IsAdmin     bool   `json:"isAdmin"`
}

type Room struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	AdminID     string   `json:"adminId"`
	Status      string   `json:"status"`
	Language    string   `json:"language"`
	Mode        string   `json:"mode"`
	Category    string   `json:"category"`
	Word        string   `json:"word"`
	IsImpostor  bool     `json:"isImpostor"`
	ImpostorIDs []string `json:"impostorIds"`
	Round       int      `json:"round"`
	TurnOrder   []string `json:"turnOrder"`
	Players     []Player `json:"players"`
	WinCond     string   `json:"winCondition"`
}

type roomEnvelope struct {
	Room Room `json:"room"`
}

type VoteOutcome struct {
	EliminatedID *string `json:"eliminatedId"`
	WasImpostor  bool    `json:"wasImpostor"`
	IsTie        bool    `json:"isTie"`
	WinCondition string  `json:"winCondition"`
}

type confirmEnvelope struct {
	Room    Room        `json:"room"`
	Outcome VoteOutcome `json:"outcome"`
}

// Bot is a signed-in guest.
type Bot struct {
	User  User
	Token string
}

func (c *APIClient) Guest(displayName string) (*Bot, error) {
	resp, err := c.post("/auth/guest", map[string]string{"displayName": displayName}, "")
	if err != nil {
		return nil, fmt.Errorf("guest request failed: %w", err)
	}

	var result AuthResponse
	if err := decode(resp, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("guest sign-in: %w", err)
	}
	return &Bot{User: result.User, Token: result.AccessToken}, nil
}

func (c *APIClient) CreateRoom(token, language string) (*Room, error) {
	resp, err := c.post("/rooms", map[string]string{"language": language}, token)
	if err != nil {
		return nil, err
	}
	var result roomEnvelope
	if err := decode(resp, http.StatusCreated, &result); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &result.Room, nil
}

func (c *APIClient) JoinRoom(token, code string) (*Room, error) {
	return c.roomAction(token, "/rooms/"+code+"/join", nil)
}

func (c *APIClient) MyRoom(token string) (*Room, error) {
	resp, err := c.get("/rooms/me", token)
	if err != nil {
		return nil, err
	}
	var result roomEnvelope
	if err := decode(resp, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &result.Room, nil
}

func (c *APIClient) StartGame(token, mode string, impostors int, category string) (*Room, error) {
	return c.roomAction(token, "/rooms/start", map[string]interface{}{
		"mode":          mode,
		"impostorCount": impostors,
		"category":      category,
	})
}

func (c *APIClient) SubmitWord(token, word string) (*Room, error) {
	return c.roomAction(token, "/rooms/words", map[string]string{"word": word})
}

func (c *APIClient) ForceStart(token string) (*Room, error) {
	return c.roomAction(token, "/rooms/force-start", nil)
}

func (c *APIClient) StartVoting(token string) (*Room, error) {
	return c.roomAction(token, "/rooms/voting", nil)
}

func (c *APIClient) Vote(token, targetID string) (*Room, error) {
	return c.roomAction(token, "/rooms/vote", map[string]string{"targetId": targetID})
}

func (c *APIClient) ConfirmVote(token string, eliminate bool) (*Room, *VoteOutcome, error) {
	resp, err := c.post("/rooms/confirm-vote", map[string]bool{"eliminate": eliminate}, token)
	if err != nil {
		return nil, nil, err
	}
	var result confirmEnvelope
	if err := decode(resp, http.StatusOK, &result); err != nil {
		return nil, nil, fmt.Errorf("confirm vote: %w", err)
	}
	return &result.Room, &result.Outcome, nil
}

func (c *APIClient) roomAction(token, path string, body interface{}) (*Room, error) {
	resp, err := c.post(path, body, token)
	if err != nil {
		return nil, err
	}
	var result roomEnvelope
	if err := decode(resp, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &result.Room, nil
}

// WebSocketURL returns the socket endpoint for token.
func (c *APIClient) WebSocketURL(token string) string {
	return "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws?token=" + token
}

func decode(resp *http.Response, wantStatus int, v interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// HTTP helpers

func (c *APIClient) get(path, token string) (*http.Response, error) {
	return c.do(http.MethodGet, path, nil, token)
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	return c.do(http.MethodPost, path, body, token)
}

func (c *APIClient) do(method, path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
