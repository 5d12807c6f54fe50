package sender

import (
	"bytes"
	"context"
	"fmt"
	"membercard/internal/core/domain"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

//go:generate mockery --name TelegramBot

// TelegramBot is the subset of *bot.Bot the sender needs.
type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Telegram struct {
	bot TelegramBot
}

func NewTelegram(bot TelegramBot) *Telegram {
	return &Telegram{bot: bot}
}

const TelegramMessageLimit = 4096

func replyTo(message *domain.Message) *models.ReplyParameters {
	return &models.ReplyParameters{
		MessageID: message.ID,
		ChatID:    message.ChatID,
	}
}

// SendMessageReply sends text as a reply, split into chunks that fit the Telegram message limit. The ID of
// the last sent message is returned.
func (t *Telegram) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	var id int

	for _, chunk := range chunk(text, TelegramMessageLimit) {
		msg, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          message.ChatID,
			Text:            chunk,
			ReplyParameters: replyTo(message),
		})
		if err != nil {
			log.Error().Err(err).Int64("chatId", message.ChatID).Msg("failed to send message")
			return 0, err
		}
		id = msg.ID
	}

	return id, nil
}

func (t *Telegram) SendImageURLReply(ctx context.Context, message *domain.Message, url string) error {
	_, err := t.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:          message.ChatID,
		ReplyParameters: replyTo(message),
		Photo:           &models.InputFileString{Data: url},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to send photo response")
		return err
	}

	return nil
}

func (t *Telegram) SendDocumentReply(ctx context.Context, message *domain.Message, filename string,
	file []byte) error {
	_, err := t.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:          message.ChatID,
		ReplyParameters: replyTo(message),
		Document:        &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(file)},
	})
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("failed to send document response")
		return err
	}

	return nil
}

// NotifyAndReturnError tells the user what went wrong. It returns the original error once the user was
// told, or the send error otherwise.
func (t *Telegram) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	log.Warn().Err(err).Int64("chatId", message.ChatID).Msg("notifying user of error")

	_, sendErr := t.SendMessageReply(ctx, message, err.Error())
	if sendErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, sendErr)
	}

	return err
}

const ChatActionRepeatSeconds = 5

func (t *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	log.Debug().Int64("chatID", chatID).Msg("starting action routine")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		default:
		}

		var chatAction models.ChatAction
		switch action {
		case domain.SendingPhoto:
			chatAction = models.ChatActionUploadPhoto
		case domain.UploadDocument:
			chatAction = models.ChatActionUploadDocument
		default:
			chatAction = models.ChatActionTyping
		}

		log.Debug().Int64("chatID", chatID).Msg("transmitting action")
		_, err := t.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			log.Err(err).Msg("error sending chat action")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-time.After(ChatActionRepeatSeconds * time.Second):
		}
	}
}

// FileURL resolves a Telegram file ID to its download link.
func (t *Telegram) FileURL(ctx context.Context, fileID string) (string, error) {
	f, err := t.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("error getting file from telegram api: %w", err)
	}

	return t.bot.FileDownloadLink(f), nil
}

// chunk splits text into pieces of at most limit bytes without cutting a UTF-8 sequence.
func chunk(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		// only invalid UTF-8 has no rune start in range
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}

	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}
