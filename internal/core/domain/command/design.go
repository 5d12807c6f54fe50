package command

import (
	"context"
	"errors"
	"fmt"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Designs lists the card designs with their 1-based positions.
type Designs struct {
	registrar  port.Registrar
	textSender port.TextSender
	command    string
}

func NewDesigns(registrar port.Registrar, textSender port.TextSender, command string) *Designs {
	return &Designs{registrar: registrar, textSender: textSender, command: command}
}

func (d *Designs) GetCommand() string {
	return d.command
}

func (d *Designs) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	designs := d.registrar.ListDesigns(ctx)

	var b strings.Builder
	b.WriteString("Card designs:\n")
	for i, design := range designs {
		fmt.Fprintf(&b, "%d. %s", i+1, design.Name)
		if design.Tier != "" {
			fmt.Fprintf(&b, " (%s)", design.Tier)
		}
		b.WriteString("\n")
	}
	b.WriteString("Pick one with /design <number>.")

	_, err := d.textSender.SendMessageReply(ctx, message, b.String())
	if err != nil {
		l.Error().Err(err).Msg("failed to send reply")
		return fmt.Errorf("error sending reply: %w", err)
	}

	return nil
}

// Design selects a card design by position and previews its artwork when it has one.
type Design struct {
	registrar   port.Registrar
	imageSender port.ImageSender
	textSender  port.TextSender
	command     string
}

func NewDesign(registrar port.Registrar, imageSender port.ImageSender, textSender port.TextSender,
	command string) *Design {
	return &Design{registrar: registrar, imageSender: imageSender, textSender: textSender, command: command}
}

func (d *Design) GetCommand() string {
	return d.command
}

func (d *Design) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	position, err := strconv.Atoi(ParseCommandArgs(message.Text))
	if err != nil {
		_ = d.textSender.NotifyAndReturnError(ctx, errors.New("usage: /design <number>, see /designs"), message)
		return nil
	}

	design, err := d.registrar.SelectDesign(ctx, chatKey(message.ChatID), position)
	if errors.Is(err, domain.ErrUnknownDesign) {
		_ = d.textSender.NotifyAndReturnError(ctx, err, message)
		return nil
	}
	if err != nil {
		err = fmt.Errorf("error selecting design: %w", err)
		return d.textSender.NotifyAndReturnError(ctx, err, message)
	}

	_, err = d.textSender.SendMessageReply(ctx, message, "Design selected: "+design.Name)
	if err != nil {
		l.Error().Err(err).Msg("failed to send reply")
		return fmt.Errorf("error sending reply: %w", err)
	}

	if design.ImageURL == "" {
		return nil
	}

	err = d.imageSender.SendImageURLReply(ctx, message, design.ImageURL)
	if err != nil {
		l.Warn().Err(err).Str("imageURL", design.ImageURL).Msg("failed to send design preview")
	}

	return nil
}
