package service

import (
	"context"
	"fmt"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registration orchestrates one member's sign-up: it keeps the form state in the injected store,
// compresses the photo, creates the membership remotely and renders the card.
type Registration struct {
	store      port.RegistrationStore
	downloader port.FileDownloader
	compressor port.ImageCompressor
	renderer   port.CardRenderer
	membership port.MembershipClient
	target     domain.CompressionTarget
	fallback   []domain.CardDesign

	mutex      *sync.Mutex
	submitting map[string]bool
	now        func() time.Time
}

func NewRegistration(store port.RegistrationStore,
	downloader port.FileDownloader,
	compressor port.ImageCompressor,
	renderer port.CardRenderer,
	membership port.MembershipClient,
	target domain.CompressionTarget,
	fallbackDesigns []domain.CardDesign) *Registration {
	return &Registration{
		store:      store,
		downloader: downloader,
		compressor: compressor,
		renderer:   renderer,
		membership: membership,
		target:     target,
		fallback:   fallbackDesigns,
		mutex:      &sync.Mutex{},
		submitting: make(map[string]bool),
		now:        time.Now,
	}
}

func (r *Registration) Get(ctx context.Context, key string) (*domain.Registration, error) {
	return r.store.Load(ctx, key)
}

func (r *Registration) Reset(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

func (r *Registration) update(ctx context.Context, key string, apply func(reg *domain.Registration) error) (
	*domain.Registration, error) {
	reg, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error loading registration: %w", err)
	}

	if err := apply(reg); err != nil {
		return nil, err
	}

	reg.UpdatedAt = r.now()
	if err := r.store.Save(ctx, key, reg); err != nil {
		return nil, fmt.Errorf("error saving registration: %w", err)
	}

	return reg, nil
}

func (r *Registration) SetName(ctx context.Context, key, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrMissingName
	}

	_, err := r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Name = name
		return nil
	})
	return err
}

func (r *Registration) SetPhone(ctx context.Context, key, phone string) error {
	_, err := r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Phone = strings.TrimSpace(phone)
		return nil
	})
	return err
}

func (r *Registration) SetEmail(ctx context.Context, key, email string) error {
	_, err := r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Email = strings.TrimSpace(email)
		return nil
	})
	return err
}

func (r *Registration) SetBirthday(ctx context.Context, key, birthday string) error {
	t, err := domain.ParseBirthday(birthday)
	if err != nil {
		return err
	}

	_, err = r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Birthday = t.Format(domain.BirthdayLayout)
		return nil
	})
	return err
}

// AttachPhoto downloads the photo, compresses it and stores the result. The compressed photo is what gets
// sent to the membership API.
func (r *Registration) AttachPhoto(ctx context.Context, key, imageURL string) (*domain.EncodedImage, error) {
	raw, err := r.downloader.Download(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("error downloading photo: %w", err)
	}

	photo, err := r.compressor.Compress(ctx, raw, r.target)
	if err != nil {
		return nil, err
	}

	_, err = r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Photo = photo
		return nil
	})
	if err != nil {
		return nil, err
	}

	return photo, nil
}

// ListDesigns returns the remote catalogue, or the fallback designs when it cannot be fetched.
func (r *Registration) ListDesigns(ctx context.Context) []domain.CardDesign {
	designs, err := r.membership.ListCardDesigns(ctx)
	if err != nil || len(designs) == 0 {
		log.Warn().Err(err).Msg("failed to load card designs, using defaults")
		return r.fallback
	}

	return designs
}

// SelectDesign picks a design by its 1-based position in ListDesigns.
func (r *Registration) SelectDesign(ctx context.Context, key string, position int) (*domain.CardDesign, error) {
	designs := r.ListDesigns(ctx)
	if position < 1 || position > len(designs) {
		return nil, domain.ErrUnknownDesign
	}

	design := designs[position-1]

	_, err := r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Design = &design
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &design, nil
}

func (r *Registration) begin(key string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.submitting[key] {
		return false
	}
	r.submitting[key] = true

	return true
}

func (r *Registration) end(key string) {
	r.mutex.Lock()
	delete(r.submitting, key)
	r.mutex.Unlock()
}

// Submit creates the membership. A second Submit for the same key while one is in flight is refused with
// domain.ErrSubmissionInProgress rather than queued.
func (r *Registration) Submit(ctx context.Context, key string) (*domain.Membership, error) {
	if !r.begin(key) {
		return nil, domain.ErrSubmissionInProgress
	}
	defer r.end(key)

	reg, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error loading registration: %w", err)
	}
	if reg.Name == "" {
		return nil, domain.ErrMissingName
	}
	if reg.Photo == nil {
		return nil, domain.ErrMissingPhoto
	}

	req := domain.MembershipRequest{
		Name:         reg.Name,
		Phone:        reg.Phone,
		Email:        reg.Email,
		Birthday:     reg.Birthday,
		ProfileImage: reg.Photo.DataURL(),
	}
	if reg.Design != nil {
		req.CardImage = reg.Design.ImageURL
	}

	created, err := r.membership.CreateMembership(ctx, req)
	if err != nil {
		return nil, err
	}

	_, err = r.update(ctx, key, func(reg *domain.Registration) error {
		reg.Membership = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// RenderCard renders the card for the stored registration. The selected design wins over the issued card
// image; the member's own compressed photo wins over the issued profile image.
func (r *Registration) RenderCard(ctx context.Context, key string) (*domain.RenderedCard, error) {
	reg, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error loading registration: %w", err)
	}

	return r.renderer.Render(ctx, CardSpec(reg))
}

// CardSpec maps a registration onto the renderer's input.
func CardSpec(reg *domain.Registration) domain.CardRenderSpec {
	spec := domain.CardRenderSpec{
		DisplayName: reg.Name,
		Phone:       reg.Phone,
		Email:       reg.Email,
	}

	if b, err := domain.ParseBirthday(reg.Birthday); err == nil {
		spec.Birthday = &b
	}

	if reg.Design != nil && reg.Design.ImageURL != "" {
		spec.BackgroundImage = domain.ImageRef{URL: reg.Design.ImageURL}
	}
	if reg.Photo != nil {
		spec.ProfileImage = domain.ImageRef{Data: reg.Photo.Data}
	}

	if m := reg.Membership; m != nil {
		if m.CardImage != "" && spec.BackgroundImage.IsZero() {
			spec.BackgroundImage = domain.ImageRef{URL: m.CardImage}
		}
		if m.ProfileImage != "" && spec.ProfileImage.IsZero() {
			spec.ProfileImage = domain.ImageRef{URL: m.ProfileImage}
		}
		if m.Name != "" {
			spec.DisplayName = m.Name
		}
	}

	return spec
}
