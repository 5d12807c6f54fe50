package sender

import (
	"context"
	"errors"
	"membercard/internal/core/domain"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBot struct {
	mock.Mock
}

func (m *MockBot) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockBot) SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockBot) SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockBot) SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error) {
	args := m.Called(ctx, params)
	return args.Bool(0), args.Error(1)
}

func (m *MockBot) GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error) {
	args := m.Called(ctx, params)
	f, _ := args.Get(0).(*models.File)
	return f, args.Error(1)
}

func (m *MockBot) FileDownloadLink(f *models.File) string {
	args := m.Called(f)
	return args.String(0)
}

func TestTelegram_SendMessageReply(t *testing.T) {
	longText := strings.Repeat("x", TelegramMessageLimit+10)

	tests := []struct {
		name      string
		text      string
		wantCalls int
		wantID    int
		setupMock func(mb *MockBot)
		wantErr   bool
	}{
		{
			name:      "single message",
			text:      "hello",
			wantCalls: 1,
			wantID:    123,
			setupMock: func(mb *MockBot) {
				mb.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *bot.SendMessageParams) bool {
					return params.Text == "hello" && params.ReplyParameters.MessageID == 42
				})).
					Return(&models.Message{ID: 123}, nil).
					Once()
			},
		},
		{
			name:      "message chunked in two",
			text:      longText,
			wantCalls: 2,
			wantID:    456,
			setupMock: func(mb *MockBot) {
				mb.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *bot.SendMessageParams) bool {
					return len(params.Text) <= TelegramMessageLimit
				})).
					Return(&models.Message{ID: 456}, nil).
					Twice()
			},
		},
		{
			name:      "send fails on first",
			text:      "fail",
			wantCalls: 1,
			setupMock: func(mb *MockBot) {
				mb.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("fail")).Once()
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mb := new(MockBot)
			sender := NewTelegram(mb)

			msg := &domain.Message{
				ID:     42,
				ChatID: 1001,
			}

			tc.setupMock(mb)
			id, err := sender.SendMessageReply(t.Context(), msg, tc.text)

			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantID, id)
			}
			mb.AssertNumberOfCalls(t, "SendMessage", tc.wantCalls)
			mb.AssertExpectations(t)
		})
	}
}

func TestTelegram_SendDocumentReply(t *testing.T) {
	tests := []struct {
		name    string
		retErr  error
		wantErr bool
	}{
		{
			name: "success",
		},
		{
			name:    "send fails",
			retErr:  errors.New("fail"),
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mb := new(MockBot)
			sender := NewTelegram(mb)

			msg := &domain.Message{ID: 33, ChatID: 44}
			mb.On("SendDocument", mock.Anything, mock.MatchedBy(func(params *bot.SendDocumentParams) bool {
				upload, ok := params.Document.(*models.InputFileUpload)
				return ok && upload.Filename == "card.png" && params.ChatID == int64(44)
			})).Return(&models.Message{}, tc.retErr).Once()

			err := sender.SendDocumentReply(t.Context(), msg, "card.png", []byte("png"))

			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			mb.AssertExpectations(t)
		})
	}
}

func TestTelegram_SendImageURLReply(t *testing.T) {
	mb := new(MockBot)
	sender := NewTelegram(mb)

	mb.On("SendPhoto", mock.Anything, mock.Anything).Return(nil, errors.New("fail")).Once()

	err := sender.SendImageURLReply(t.Context(), &domain.Message{ID: 10, ChatID: 20}, "http://image.url/a.png")
	require.Error(t, err)
	mb.AssertExpectations(t)
}

func TestTelegram_NotifyAndReturnError(t *testing.T) {
	tests := []struct {
		name          string
		sendMsgRetErr error
		wantSendErr   bool
	}{
		{
			name: "send ok returns original",
		},
		{
			name:          "send fails",
			sendMsgRetErr: errors.New("sendfail"),
			wantSendErr:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mb := new(MockBot)
			sender := NewTelegram(mb)
			original := errors.New("original")

			msg := &domain.Message{ID: 55, ChatID: 88}
			mb.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *bot.SendMessageParams) bool {
				return params.Text == "original"
			})).Return(&models.Message{ID: 101}, tc.sendMsgRetErr)

			err := sender.NotifyAndReturnError(t.Context(), original, msg)

			if tc.wantSendErr {
				require.ErrorIs(t, err, domain.ErrSendingReplyFailed)
			} else {
				require.ErrorIs(t, err, original)
			}
			mb.AssertExpectations(t)
		})
	}
}

func TestTelegram_FileURL(t *testing.T) {
	mb := new(MockBot)
	sender := NewTelegram(mb)

	file := &models.File{FileID: "abc", FilePath: "photos/file_1.jpg"}
	mb.On("GetFile", mock.Anything, &bot.GetFileParams{FileID: "abc"}).Return(file, nil)
	mb.On("FileDownloadLink", file).Return("https://api.telegram.org/file/bottoken/photos/file_1.jpg")

	url, err := sender.FileURL(t.Context(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://api.telegram.org/file/bottoken/photos/file_1.jpg", url)

	mb2 := new(MockBot)
	mb2.On("GetFile", mock.Anything, mock.Anything).Return(nil, errors.New("gone"))
	_, err = NewTelegram(mb2).FileURL(t.Context(), "missing")
	require.Error(t, err)
}

func TestSendChatAction_StopsOnContextCancel(t *testing.T) {
	mb := new(MockBot)
	sender := NewTelegram(mb)

	ctx, cancel := context.WithCancel(t.Context())
	chatID := int64(12345)

	mb.On("SendChatAction", mock.Anything, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionUploadDocument,
	}).Return(true, nil)

	done := make(chan struct{})
	go func() {
		sender.SendChatAction(ctx, chatID, domain.UploadDocument)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chat action routine did not stop")
	}

	mb.AssertNumberOfCalls(t, "SendChatAction", 1)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"abc"}, chunk("abc", 5))
	assert.Equal(t, []string{"abc", "de"}, chunk("abcde", 3))
	// "é" is two bytes and must not be split
	assert.Equal(t, []string{"a", "é"}, chunk("aé", 2))
	// continuation bytes without a rune start are cut at the limit
	assert.Equal(t, []string{"\x80\x80\x80\x80", "\x80\x80\x80\x80", "\x80\x80"},
		chunk(strings.Repeat("\x80", 10), 4))
}
