package command

import (
	"context"
	"membercard/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockTextSender struct {
	err     error
	Message string
}

func (m *MockTextSender) SendMessageReply(_ context.Context, _ *domain.Message, message string) (int, error) {
	m.Message = message
	return 0, m.err
}

func (m *MockTextSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	m.Message = err.Error()
	if m.err != nil {
		return m.err
	}
	return err
}

func (m *MockTextSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {}

type MockImageSender struct {
	url      string
	filename string
	file     []byte
	called   bool
	err      error
}

func (m *MockImageSender) SendImageURLReply(_ context.Context, _ *domain.Message, url string) error {
	m.url = url
	return m.err
}

func (m *MockImageSender) SendDocumentReply(_ context.Context, _ *domain.Message, filename string,
	file []byte) error {
	m.filename = filename
	m.file = file
	m.called = true
	return m.err
}

type MockRegistrar struct{ mock.Mock }

func (m *MockRegistrar) Get(ctx context.Context, key string) (*domain.Registration, error) {
	args := m.Called(ctx, key)
	reg, _ := args.Get(0).(*domain.Registration)
	return reg, args.Error(1)
}

func (m *MockRegistrar) Reset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRegistrar) SetName(ctx context.Context, key, name string) error {
	return m.Called(ctx, key, name).Error(0)
}

func (m *MockRegistrar) SetPhone(ctx context.Context, key, phone string) error {
	return m.Called(ctx, key, phone).Error(0)
}

func (m *MockRegistrar) SetEmail(ctx context.Context, key, email string) error {
	return m.Called(ctx, key, email).Error(0)
}

func (m *MockRegistrar) SetBirthday(ctx context.Context, key, birthday string) error {
	return m.Called(ctx, key, birthday).Error(0)
}

func (m *MockRegistrar) AttachPhoto(ctx context.Context, key, imageURL string) (*domain.EncodedImage, error) {
	args := m.Called(ctx, key, imageURL)
	img, _ := args.Get(0).(*domain.EncodedImage)
	return img, args.Error(1)
}

func (m *MockRegistrar) ListDesigns(ctx context.Context) []domain.CardDesign {
	designs, _ := m.Called(ctx).Get(0).([]domain.CardDesign)
	return designs
}

func (m *MockRegistrar) SelectDesign(ctx context.Context, key string, position int) (*domain.CardDesign, error) {
	args := m.Called(ctx, key, position)
	d, _ := args.Get(0).(*domain.CardDesign)
	return d, args.Error(1)
}

func (m *MockRegistrar) Submit(ctx context.Context, key string) (*domain.Membership, error) {
	args := m.Called(ctx, key)
	ms, _ := args.Get(0).(*domain.Membership)
	return ms, args.Error(1)
}

func (m *MockRegistrar) RenderCard(ctx context.Context, key string) (*domain.RenderedCard, error) {
	args := m.Called(ctx, key)
	card, _ := args.Get(0).(*domain.RenderedCard)
	return card, args.Error(1)
}
