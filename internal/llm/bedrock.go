// Package llm wraps the Bedrock runtime for the greeting generator and
// the conversational registration agent.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// Invoker sends a conversation to a text-generation model and returns
// the raw reply text.
type Invoker interface {
	Invoke(ctx context.Context, system string, messages []Message) (string, error)
}

// Bedrock invokes an Anthropic model through the Bedrock runtime.
type Bedrock struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int
	logger    *zap.Logger
}

// NewBedrock creates the Bedrock invoker. endpointURL overrides the
// service endpoint; empty uses the AWS default.
func NewBedrock(awsCfg aws.Config, endpointURL, modelID string, maxTokens int, logger *zap.Logger) *Bedrock {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
	return &Bedrock{client: client, modelID: modelID, maxTokens: maxTokens, logger: logger}
}

type anthropicRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Invoke sends the conversation with the anthropic messages payload and
// returns the first content block's text.
func (b *Bedrock) Invoke(ctx context.Context, system string, messages []Message) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        b.maxTokens,
		System:           system,
		Messages:         messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model: %w", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return resp.Content[0].Text, nil
}
