package handler

import (
	"context"
	"membercard/internal/core/domain"
	"membercard/internal/core/domain/command"
	"membercard/internal/core/port"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type Command struct {
	commandRegistry port.CommandRegistry
	files           port.FileResolver
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, files port.FileResolver, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, files: files, timeout: timeout}
}

// Handle turns an update into a domain.Message and dispatches it to the matching command. Commands run in
// their own goroutine so a slow upload does not hold up the update loop.
func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		log.Debug().Msg("update without message")
		return
	}

	msg := update.Message
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	var replyToMessageID int
	if msg.ReplyToMessage != nil {
		replyToMessageID = msg.ReplyToMessage.ID
	}

	message := &domain.Message{
		ID:               msg.ID,
		ChatID:           msg.Chat.ID,
		Text:             text,
		Username:         getUserNameOrFirstName(msg.From),
		ReplyToMessageID: &replyToMessageID,
	}

	go func() {
		message.ImageURL = c.getOptionalImage(ctx, msg)

		err := commandHandler.Respond(context.Background(), c.timeout, message)
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

func (c *Command) getOptionalImage(ctx context.Context, msg *models.Message) string {
	fileID := imageFileID(msg)
	if fileID == "" && msg.ReplyToMessage != nil {
		fileID = imageFileID(msg.ReplyToMessage)
	}

	if fileID == "" {
		return ""
	}

	url, err := c.files.FileURL(ctx, fileID)
	if err != nil {
		log.Error().Err(err).Msg("error resolving image file")
		return ""
	}

	return url
}

func imageFileID(msg *models.Message) string {
	if len(msg.Photo) > 0 {
		return findLargestImage(msg.Photo)
	}

	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}

	return ""
}

// Bot API downloads are capped at 20 MB.
const maxFileSize = 20 << 20

// findLargestImage picks the highest resolution the bot may download; the photo is compressed later anyway.
func findLargestImage(photos []models.PhotoSize) string {
	best := -1
	for i, photo := range photos {
		if photo.FileSize > maxFileSize {
			continue
		}
		if best < 0 || photo.Width*photo.Height > photos[best].Width*photos[best].Height {
			best = i
		}
	}

	if best < 0 {
		return photos[0].FileID
	}

	return photos[best].FileID
}

func getUserNameOrFirstName(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
