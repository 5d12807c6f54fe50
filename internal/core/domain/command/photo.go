package command

import (
	"context"
	"errors"
	"fmt"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"time"

	"github.com/rs/zerolog/log"
)

// Photo compresses the attached (or replied-to) photo and keeps it as the member photo.
type Photo struct {
	registrar  port.Registrar
	textSender port.TextSender
	command    string
}

func NewPhoto(registrar port.Registrar, textSender port.TextSender, command string) *Photo {
	return &Photo{registrar: registrar, textSender: textSender, command: command}
}

func (p *Photo) GetCommand() string {
	return p.command
}

func (p *Photo) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("imageURL", message.ImageURL).
		Str("command", p.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if message.ImageURL == "" {
		_ = p.textSender.NotifyAndReturnError(ctx, errors.New("send a photo with /photo as caption or reply to one"),
			message)
		return nil
	}

	go p.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	photo, err := p.registrar.AttachPhoto(ctx, chatKey(message.ChatID), message.ImageURL)
	var decodeErr *domain.DecodeError
	if errors.As(err, &decodeErr) {
		_ = p.textSender.NotifyAndReturnError(ctx, errors.New("that file is not an image I can read"), message)
		return nil
	}
	if err != nil {
		err = fmt.Errorf("error processing photo: %w", err)
		return p.textSender.NotifyAndReturnError(ctx, err, message)
	}

	reply := fmt.Sprintf("Photo saved (%dx%d, %d KB, quality %d%%).",
		photo.Width, photo.Height, (len(photo.Data)+1023)/1024, int(photo.Quality*100+0.5))
	if !photo.WithinBudget {
		l.Warn().Int("bytes", len(photo.Data)).Msg("photo above byte budget at minimum quality")
		reply += " It is still larger than recommended, but it will be used as is."
	}

	_, err = p.textSender.SendMessageReply(ctx, message, reply)
	if err != nil {
		l.Error().Err(err).Msg("failed to send reply")
		return fmt.Errorf("error sending reply: %w", err)
	}

	return nil
}
