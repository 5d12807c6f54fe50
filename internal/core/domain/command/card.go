package command

import (
	"context"
	"fmt"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"time"

	"github.com/rs/zerolog/log"
)

// Card renders the card for the current registration, issued or not.
type Card struct {
	registrar   port.Registrar
	imageSender port.ImageSender
	textSender  port.TextSender
	command     string
}

func NewCard(registrar port.Registrar, imageSender port.ImageSender, textSender port.TextSender,
	command string) *Card {
	return &Card{registrar: registrar, imageSender: imageSender, textSender: textSender, command: command}
}

func (c *Card) GetCommand() string {
	return c.command
}

func (c *Card) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", c.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reg, err := c.registrar.Get(ctx, chatKey(message.ChatID))
	if err != nil {
		err = fmt.Errorf("error loading registration: %w", err)
		return c.textSender.NotifyAndReturnError(ctx, err, message)
	}

	name := reg.Name
	if reg.Membership != nil && reg.Membership.Name != "" {
		name = reg.Membership.Name
	}
	if name == "" {
		_ = c.textSender.NotifyAndReturnError(ctx, domain.ErrNotRegistered, message)
		return nil
	}

	go c.textSender.SendChatAction(ctx, message.ChatID, domain.UploadDocument)

	err = sendCard(ctx, c.registrar, c.imageSender, message, name)
	if err != nil {
		return c.textSender.NotifyAndReturnError(ctx, err, message)
	}

	return nil
}
