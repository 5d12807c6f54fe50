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

type setter func(r port.Registrar, ctx context.Context, key, value string) error

type display func(value string) string

// Field stores one text field of the registration from the command argument.
type Field struct {
	registrar  port.Registrar
	textSender port.TextSender
	label      string
	set        setter
	show       display
	command    string
}

func NewName(registrar port.Registrar, textSender port.TextSender, command string) *Field {
	return &Field{registrar: registrar, textSender: textSender, command: command,
		label: "Name",
		set:   port.Registrar.SetName,
		show:  func(v string) string { return v },
	}
}

func NewPhone(registrar port.Registrar, textSender port.TextSender, command string) *Field {
	return &Field{registrar: registrar, textSender: textSender, command: command,
		label: "Phone",
		set:   port.Registrar.SetPhone,
		show:  domain.FormatPhone,
	}
}

func NewEmail(registrar port.Registrar, textSender port.TextSender, command string) *Field {
	return &Field{registrar: registrar, textSender: textSender, command: command,
		label: "Email",
		set:   port.Registrar.SetEmail,
		show:  func(v string) string { return v },
	}
}

func NewBirthday(registrar port.Registrar, textSender port.TextSender, command string) *Field {
	return &Field{registrar: registrar, textSender: textSender, command: command,
		label: "Birthday",
		set:   port.Registrar.SetBirthday,
		show: func(v string) string {
			t, err := domain.ParseBirthday(v)
			if err != nil {
				return v
			}
			return domain.FormatBirthday(t)
		},
	}
}

func (f *Field) GetCommand() string {
	return f.command
}

func (f *Field) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", f.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	value := ParseCommandArgs(message.Text)
	if value == "" {
		_ = f.textSender.NotifyAndReturnError(ctx, fmt.Errorf("usage: %s <%s>", f.command, f.label), message)
		return nil
	}

	err := f.set(f.registrar, ctx, chatKey(message.ChatID), value)
	if errors.Is(err, domain.ErrInvalidBirthday) {
		_ = f.textSender.NotifyAndReturnError(ctx, err, message)
		return nil
	}
	if err != nil {
		err = fmt.Errorf("error saving %s: %w", f.label, err)
		return f.textSender.NotifyAndReturnError(ctx, err, message)
	}

	_, err = f.textSender.SendMessageReply(ctx, message, fmt.Sprintf("%s saved: %s", f.label, f.show(value)))
	if err != nil {
		l.Error().Err(err).Msg("failed to send reply")
		return fmt.Errorf("error sending reply: %w", err)
	}

	return nil
}
