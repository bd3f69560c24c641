// Package llm asks an Azure OpenAI deployment for email suggestions during
// Enrichment. Local synthesis stays the fallback whenever the model is
// unavailable or answers with something that is not an address.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// ErrNoCompletion is returned when the model answers without any content.
var ErrNoCompletion = errors.New("no completion received from LLM")

// Completer sends a prompt and returns the model's text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AzureClient is a Completer backed by an Azure OpenAI chat deployment.
type AzureClient struct {
	client       *azopenai.Client
	deploymentID string
}

// NewAzureClient creates a client authenticated with an API key.
// The deployment ID is used for every request.
func NewAzureClient(endpoint, apiKey, deploymentID string) (*AzureClient, error) {
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("create azure openai client: %w", err)
	}
	return &AzureClient{client: client, deploymentID: deploymentID}, nil
}

// Complete implements Completer.
func (c *AzureClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(c.deploymentID),
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(prompt),
			},
		},
		MaxTokens:   to.Ptr(int32(40)),
		Temperature: to.Ptr(float32(0)),
	}, nil)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", ErrNoCompletion
}
