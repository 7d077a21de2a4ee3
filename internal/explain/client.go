// Package explain generates an optional natural-language summary of an
// affected-by query result: what changed and why those modules/tests are
// implicated. It is strictly additive — the graph and its queries never
// depend on this package, and it requires ANTHROPIC_API_KEY to run at all.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// systemPrompt is cached across calls: it never varies with the query, only
// the changed/affected module lists do.
const systemPrompt = `You are summarizing the result of a Python import-graph
test-impact query. You will be given the modules that changed and the full
set of modules transitively affected by that change. Write 2-4 sentences
explaining, in plain language, why the affected modules are implicated
(e.g. "these import X directly" or "these sit downstream of the changed
package's __init__"). Do not restate the full list; describe the shape of
the impact.`

// Client wraps the Anthropic SDK for impact-summary generation.
type Client struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewClient creates an explain client with the given API key. Returns an
// error if apiKey is empty.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &c,
		model:  anthropic.ModelClaudeHaiku4_5,
	}, nil
}

// Summarize asks the model for a short explanation of why affected was
// reached by changing changed. Retries with exponential backoff on
// rate-limit/overload errors.
func (c *Client) Summarize(ctx context.Context, changed, affected []string) (string, error) {
	content := fmt.Sprintf(
		"Changed modules:\n%s\n\nAffected modules (%d total):\n%s",
		strings.Join(changed, "\n"),
		len(affected),
		strings.Join(affected, "\n"),
	)

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		summary, err := c.doSummarize(ctx, content)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doSummarize(ctx context.Context, content string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 300,
		System: []anthropic.TextBlockParam{
			{
				Text:         systemPrompt,
				CacheControl: anthropic.NewCacheControlEphemeralParam(),
			},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(content)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "rate") ||
		strings.Contains(s, "overloaded") || strings.Contains(s, "503")
}
