package command

import (
	"context"
	"fmt"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Start discards any registration in progress and explains the wizard.
type Start struct {
	registrar  port.Registrar
	textSender port.TextSender
	registry   port.CommandRegistry
	command    string
}

func NewStart(registrar port.Registrar, textSender port.TextSender, registry port.CommandRegistry,
	command string) *Start {
	return &Start{registrar: registrar, textSender: textSender, registry: registry, command: command}
}

func (s *Start) GetCommand() string {
	return s.command
}

func (s *Start) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.registrar.Reset(ctx, chatKey(message.ChatID)); err != nil {
		err = fmt.Errorf("error resetting registration: %w", err)
		return s.textSender.NotifyAndReturnError(ctx, err, message)
	}

	var b strings.Builder
	b.WriteString("Welcome to Boga membership! Fill in your details, then /submit to get your card.\n\n")
	b.WriteString("Available commands:\n")
	for _, c := range s.registry.ListCommands() {
		b.WriteString(c)
		b.WriteString("\n")
	}

	_, err := s.textSender.SendMessageReply(ctx, message, strings.TrimRight(b.String(), "\n"))
	if err != nil {
		l.Error().Err(err).Msg("failed to send reply")
		return fmt.Errorf("error sending reply: %w", err)
	}

	return nil
}
