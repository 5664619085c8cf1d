package chat

import (
	"context"
	"errors"

	"github.com/vbonduro/nutriscan/internal/domain"
)

// SystemInstruction frames every conversation as a nutrition advisor.
const SystemInstruction = `You are a helpful and friendly AI assistant. 
  Please follow these guidelines:
  - Keep responses concise and helpful
  - Act as a healthy food advisor and nutrition analyzer
  - Use a conversational tone
  - If you're unsure about something, say so
  - Focus on providing accurate information
  - Be respectful and professional`

// FallbackMessage is stored and shown in place of a reply when the
// completion call fails.
const FallbackMessage = "Sorry, I encountered an error. Please try again."

// Generation parameters shared by every backend. Backends without a top-k
// knob ignore TopK.
const (
	MaxOutputTokens = 500
	Temperature     = 0.4
	TopP            = 0.8
	TopK            = 20
)

var ErrEmptyReply = errors.New("completion returned no text")

// Turn is one message of the conversation sent for completion.
type Turn struct {
	Role domain.Role
	Text string
}

// Completer produces the assistant's next reply for the whole history,
// oldest turn first.
type Completer interface {
	Complete(ctx context.Context, history []Turn) (string, error)
}

// TurnsFromMessages maps stored messages to completion turns in order.
func TurnsFromMessages(messages []*domain.Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}
