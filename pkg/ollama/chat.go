package ollama

import "context"

// DefaultTemperature keeps answers close to the retrieved context.
const DefaultTemperature = 0.2

// ChatClient produces completions via Ollama's /api/chat endpoint.
type ChatClient struct {
	base
	temperature float64
}

// NewChatClient creates an Ollama chat client.
func NewChatClient(baseURL, model string, opts ...Option) *ChatClient {
	return &ChatClient{base: newBase(baseURL, model, opts), temperature: DefaultTemperature}
}

// WithTemperature returns a copy of c using the given sampling temperature.
func (c *ChatClient) WithTemperature(t float64) *ChatClient {
	cp := *c
	cp.temperature = t
	return &cp
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResp struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Complete sends prompt as a single user turn and returns the reply text.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatReq{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Options:  map[string]any{"temperature": c.temperature},
	}
	var result chatResp
	if err := c.post(ctx, "/api/chat", req, &result); err != nil {
		return "", err
	}
	return result.Message.Content, nil
}
