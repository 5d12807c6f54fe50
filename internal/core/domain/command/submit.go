package command

import (
	"context"
	"errors"
	"fmt"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Submit creates the membership and replies with the rendered card and a summary.
type Submit struct {
	registrar   port.Registrar
	imageSender port.ImageSender
	textSender  port.TextSender
	command     string
}

func NewSubmit(registrar port.Registrar, imageSender port.ImageSender, textSender port.TextSender,
	command string) *Submit {
	return &Submit{registrar: registrar, imageSender: imageSender, textSender: textSender, command: command}
}

func (s *Submit) GetCommand() string {
	return s.command
}

func (s *Submit) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	key := chatKey(message.ChatID)

	created, err := s.registrar.Submit(ctx, key)
	switch {
	case errors.Is(err, domain.ErrSubmissionInProgress):
		l.Debug().Msg("submission already in flight")
		return nil
	case errors.Is(err, domain.ErrMissingName):
		_ = s.textSender.NotifyAndReturnError(ctx, errors.New("set your name with /name first"), message)
		return nil
	case errors.Is(err, domain.ErrMissingPhoto):
		_ = s.textSender.NotifyAndReturnError(ctx, errors.New("send your photo with /photo first"), message)
		return nil
	case err != nil:
		err = fmt.Errorf("error creating membership: %w", err)
		return s.textSender.NotifyAndReturnError(ctx, err, message)
	}

	l.Info().Str("serial", created.Serial).Msg("membership created")

	go s.textSender.SendChatAction(ctx, message.ChatID, domain.UploadDocument)

	err = sendCard(ctx, s.registrar, s.imageSender, message, created.Name)
	if err != nil {
		return s.textSender.NotifyAndReturnError(ctx, err, message)
	}

	_, err = s.textSender.SendMessageReply(ctx, message, summary(created))
	if err != nil {
		l.Error().Err(err).Msg("failed to send reply")
		return fmt.Errorf("error sending reply: %w", err)
	}

	return nil
}

func sendCard(ctx context.Context, registrar port.Registrar, imageSender port.ImageSender,
	message *domain.Message, name string) error {
	card, err := registrar.RenderCard(ctx, chatKey(message.ChatID))
	if err != nil {
		return fmt.Errorf("error rendering card: %w", err)
	}

	err = imageSender.SendDocumentReply(ctx, message, CardFilename(name), card.Data)
	if err != nil {
		return fmt.Errorf("error sending card: %w", err)
	}

	return nil
}

// CardFilename is the download name of a rendered card.
func CardFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "member"
	}

	return "kartu-tanda-boga-" + name + ".png"
}

func summary(m *domain.Membership) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Welcome, %s!\n", m.Name)
	fmt.Fprintf(&b, "Serial: %s\n", m.Serial)
	if m.TierTitle != "" {
		fmt.Fprintf(&b, "Tier: %s\n", m.TierTitle)
	}
	fmt.Fprintf(&b, "Points: %d", m.Point)

	if m.IsEligibleForCoupon && len(m.Coupons) > 0 {
		b.WriteString("\n\nYour coupons:")
		for _, c := range m.Coupons {
			fmt.Fprintf(&b, "\n- %s", c.Title)
			if c.Description != "" {
				fmt.Fprintf(&b, ": %s", c.Description)
			}
			if c.ExpiredAt != "" {
				fmt.Fprintf(&b, " (valid until %s)", c.ExpiredAt)
			}
		}
	}

	return b.String()
}
