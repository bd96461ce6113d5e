package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashendes/storefront/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	Greeting = "Hi! Ask me about this season's styles or how to match outfits. I'll recommend products."

	replyNone        = "Sorry, I got no reply."
	replyUnavailable = "Sorry, the chat service is temporarily unavailable."
)

// Asker returns the assistant's reply to a conversation
type Asker interface {
	Ask(ctx context.Context, history []models.ChatTurn) (string, error)
}

// Assistant keeps no state of its own; the transcript is passed in and
// returned with the new turns appended.
type Assistant struct {
	asker Asker
}

func NewAssistant(asker Asker) *Assistant {
	return &Assistant{asker: asker}
}

// NewTranscript starts a conversation with the greeting
func NewTranscript() []models.ChatTurn {
	return []models.ChatTurn{{Role: models.RoleBot, Text: Greeting}}
}

// Send appends the user's message and the reply. When the service fails
// the reply is an apology and the cause is returned alongside the transcript.
func (a *Assistant) Send(ctx context.Context, transcript []models.ChatTurn, text string) ([]models.ChatTurn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return transcript, ErrEmptyMessage
	}

	next := make([]models.ChatTurn, len(transcript), len(transcript)+2)
	copy(next, transcript)
	next = append(next, models.ChatTurn{Role: models.RoleUser, Text: text})

	reply, err := a.asker.Ask(ctx, next)
	if err != nil {
		log.WithError(err).WithField("turns", len(next)).Warn("Chat request failed")
		reply = fallback(err)
	}

	return append(next, models.ChatTurn{Role: models.RoleBot, Text: reply}), err
}

// NoteAdded appends the assistant's acknowledgement of a cart addition
func NoteAdded(transcript []models.ChatTurn, name string, total float64) []models.ChatTurn {
	return append(transcript, models.ChatTurn{
		Role: models.RoleBot,
		Text: fmt.Sprintf("Added %s to cart. Total: $%.2f", name, total),
	})
}

func fallback(err error) string {
	if errors.Is(err, ErrNoReply) {
		return replyNone
	}
	return replyUnavailable
}
