// Package chatclient consumes the chat-server streaming protocol. It keeps
// an in-memory message list with optimistic updates: the outbound user
// message and a mutable placeholder are appended before the request opens,
// and the placeholder is replaced (never mutated in place) once the stream
// settles.
package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chat-server/internal/domain/chat"
)

// PlaceholderID marks the single in-flight assistant message. At most one
// message with this id exists at a time.
const PlaceholderID = "streaming"

const (
	// InterruptedText replaces the placeholder when the stream fails.
	InterruptedText = "Sorry, the response was interrupted. Please try again."
	// EmptyResponseText replaces the placeholder when the stream closes
	// cleanly without any content.
	EmptyResponseText = "Response received but was empty."
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Message is one entry in the client's local conversation view.
type Message struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	Content string           `json:"content"`
	Status  Status           `json:"status,omitempty"`
	Usage   *chat.TokenUsage `json:"usage,omitempty"`
}

// OnUpdate is invoked after every local state change, including each content
// delta, so a caller can re-render incrementally. May be nil.
type OnUpdate func(messages []Message)

// Client talks to one chat-server and owns the local message list for one
// session at a time. SendMessage is single-flight: callers must not invoke
// it concurrently for the same session.
type Client struct {
	baseURL  string
	http     *http.Client
	onUpdate OnUpdate

	mu       sync.Mutex
	messages []Message
}

func New(baseURL string, httpClient *http.Client, onUpdate OnUpdate) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     httpClient,
		onUpdate: onUpdate,
	}
}

// Messages returns a copy of the current local message list.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SendMessage submits one user message and consumes the streamed response.
// The returned usage is nil when the server never reported one. A non-nil
// error means the stream failed; the local list then ends with a finalized
// error message and the partial content is discarded.
func (c *Client) SendMessage(ctx context.Context, sessionID, userID, text string) (*chat.TokenUsage, error) {
	c.append(Message{ID: uuid.NewString(), Role: "user", Content: text, Status: StatusSuccess})
	c.append(Message{ID: PlaceholderID, Role: "assistant"})

	body, err := json.Marshal(map[string]string{
		"message":   text,
		"sessionId": sessionID,
		"userId":    userID,
	})
	if err != nil {
		return nil, c.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, c.fail(fmt.Errorf("chat request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	return c.consume(resp.Body)
}

// consume reads the SSE body line by line. The scanner carries partial lines
// across network reads, so envelopes split mid-line are reassembled before
// parsing.
func (c *Client) consume(body io.Reader) (*chat.TokenUsage, error) {
	var (
		full  strings.Builder
		usage *chat.TokenUsage
	)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var envelope chat.StreamEnvelope
		if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
			// Mirrors the server's tolerance: a malformed line is skipped,
			// not fatal.
			continue
		}

		if envelope.Error != "" {
			return nil, c.fail(fmt.Errorf("stream error: %s", envelope.Error))
		}
		if envelope.Content != "" {
			full.WriteString(envelope.Content)
			c.updatePlaceholder(full.String())
		}
		if envelope.Usage != nil {
			usage = envelope.Usage
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, c.fail(err)
	}

	if full.Len() == 0 {
		c.replacePlaceholder(Message{
			ID:      uuid.NewString(),
			Role:    "assistant",
			Content: EmptyResponseText,
			Status:  StatusError,
		})
		return usage, nil
	}

	c.replacePlaceholder(Message{
		ID:      uuid.NewString(),
		Role:    "assistant",
		Content: full.String(),
		Status:  StatusSuccess,
		Usage:   usage,
	})
	return usage, nil
}

// LoadMessages replaces the local list with the server's persisted history.
func (c *Client) LoadMessages(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages?sessionId="+sessionID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("load messages failed: status %d", resp.StatusCode)
	}

	var payload struct {
		Messages []struct {
			ID      string `json:"id"`
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	loaded := make([]Message, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		loaded = append(loaded, Message{ID: m.ID, Role: m.Role, Content: m.Content, Status: StatusSuccess})
	}

	c.mu.Lock()
	c.messages = loaded
	c.mu.Unlock()
	c.notify()
	return nil
}

// ClearMessages deletes the session's history server-side and empties the
// local list.
func (c *Client) ClearMessages(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(map[string]string{"sessionId": sessionID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clear", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear failed: status %d", resp.StatusCode)
	}

	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// fail finalizes the in-flight message with the fixed interrupted text and
// passes the underlying error back to the caller.
func (c *Client) fail(err error) error {
	c.replacePlaceholder(Message{
		ID:      uuid.NewString(),
		Role:    "assistant",
		Content: InterruptedText,
		Status:  StatusError,
	})
	return err
}

func (c *Client) append(msg Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.notify()
}

// updatePlaceholder mutates the in-flight message's content. This is the
// only mutation the list ever sees; settled messages are immutable.
func (c *Client) updatePlaceholder(content string) {
	c.mu.Lock()
	for i := range c.messages {
		if c.messages[i].ID == PlaceholderID {
			c.messages[i].Content = content
			break
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Client) replacePlaceholder(msg Message) {
	c.mu.Lock()
	for i := range c.messages {
		if c.messages[i].ID == PlaceholderID {
			c.messages[i] = msg
			break
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Messages())
}
