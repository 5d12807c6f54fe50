package port

import (
	"context"
	"membercard/internal/core/domain"
)

type MembershipClient interface {
	// ListCardDesigns returns the card designs offered by the membership service.
	ListCardDesigns(ctx context.Context) ([]domain.CardDesign, error)
	// CreateMembership registers a member and returns the issued membership.
	CreateMembership(ctx context.Context, req domain.MembershipRequest) (*domain.Membership, error)
}

type RegistrationStore interface {
	// Load returns the stored registration, or an empty one if the key is unknown.
	Load(ctx context.Context, key string) (*domain.Registration, error)
	Save(ctx context.Context, key string, registration *domain.Registration) error
	Delete(ctx context.Context, key string) error
}

type Registrar interface {
	// Get returns the registration stored under key.
	Get(ctx context.Context, key string) (*domain.Registration, error)
	// Reset discards the registration stored under key.
	Reset(ctx context.Context, key string) error
	SetName(ctx context.Context, key, name string) error
	SetPhone(ctx context.Context, key, phone string) error
	SetEmail(ctx context.Context, key, email string) error
	SetBirthday(ctx context.Context, key, birthday string) error
	// AttachPhoto downloads, compresses and stores the member photo.
	AttachPhoto(ctx context.Context, key, imageURL string) (*domain.EncodedImage, error)
	// ListDesigns returns the available card designs, never empty.
	ListDesigns(ctx context.Context) []domain.CardDesign
	// SelectDesign picks a design by its 1-based position in ListDesigns.
	SelectDesign(ctx context.Context, key string, position int) (*domain.CardDesign, error)
	// Submit creates the membership for the stored registration.
	Submit(ctx context.Context, key string) (*domain.Membership, error)
	// RenderCard renders the card for the stored registration.
	RenderCard(ctx context.Context, key string) (*domain.RenderedCard, error)
}
