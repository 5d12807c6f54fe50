package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"membercard/internal/core/domain"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// File stores each registration as a JSON document in a directory.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("error creating store directory %w", err)
	}

	log.Debug().Str("dir", dir).Msg("using file registration store")

	return &File{dir: dir}, nil
}

func (f *File) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid registration key %q", key)
	}

	return filepath.Join(f.dir, key+".json"), nil
}

func (f *File) Load(_ context.Context, key string) (*domain.Registration, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &domain.Registration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading registration %w", err)
	}

	var reg domain.Registration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("error decoding registration %s: %w", key, err)
	}

	return &reg, nil
}

// Save writes through a uniquely named temp file and renames it, so readers never see a partial document.
func (f *File) Save(_ context.Context, key string, registration *domain.Registration) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("error encoding registration %s: %w", key, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}

	tmp := filepath.Join(f.dir, fmt.Sprintf(".%s.%s.tmp", key, id.String()))
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("error writing registration %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("error replacing registration %w", err)
	}

	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Err(err).Msg("could not remove registration")
		return err
	}

	return nil
}
