// Package rest implements the request/response collaborators of the chat
// session (auth, room directory, message store, user lookup) against the
// server's HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomtalk/roomtalk-sdk-go/roomtalk"
)

// Client provides REST API access to the chat server. It satisfies the
// session's Authenticator, RoomDirectory, MessageStore, and UserResolver
// interfaces.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ roomtalk.Authenticator = (*Client)(nil)
	_ roomtalk.RoomDirectory = (*Client)(nil)
	_ roomtalk.MessageStore  = (*Client)(nil)
	_ roomtalk.UserResolver  = (*Client)(nil)
)

// NewClient creates a REST client. baseURL is the API root, e.g.
// "http://localhost:8080/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// Login authenticates with existing credentials.
func (c *Client) Login(ctx context.Context, username, password string) (roomtalk.User, error) {
	var user roomtalk.User
	req := loginRequest{Username: username, Password: password}
	if err := c.post(ctx, "/auth/login", req, &user); err != nil {
		return roomtalk.User{}, err
	}
	return user, nil
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, username, email, password string) (roomtalk.User, error) {
	var user roomtalk.User
	req := registerRequest{Username: username, Email: email, Password: password}
	if err := c.post(ctx, "/auth/register", req, &user); err != nil {
		return roomtalk.User{}, err
	}
	return user, nil
}

// Rooms returns all chat rooms.
func (c *Client) Rooms(ctx context.Context) ([]roomtalk.Room, error) {
	var rooms []roomtalk.Room
	if err := c.get(ctx, "/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a new chat room.
func (c *Client) CreateRoom(ctx context.Context, name string) (roomtalk.Room, error) {
	var room roomtalk.Room
	if err := c.post(ctx, "/rooms", createRoomRequest{Name: name}, &room); err != nil {
		return roomtalk.Room{}, err
	}
	return room, nil
}

// History returns a room's messages in timestamp order.
func (c *Client) History(ctx context.Context, roomID int64) ([]roomtalk.ChatMessage, error) {
	var messages []roomtalk.ChatMessage
	if err := c.get(ctx, fmt.Sprintf("/rooms/%d/messages", roomID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Resolve returns the username for a user id. The server exposes this lookup
// under the rooms controller.
func (c *Client) Resolve(ctx context.Context, userID int64) (string, error) {
	var resp usernameResponse
	if err := c.get(ctx, fmt.Sprintf("/rooms/%d", userID), &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// Helper methods

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
