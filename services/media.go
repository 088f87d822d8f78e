package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"illusion-arcade/repositories"
	"illusion-arcade/utils"
)

const maxThumbnailBytes = 5 << 20

// ObjectUploader stores a blob under key and returns its public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// UploadThumbnail stores a tournament thumbnail and records its location.
func (s *TournamentService) UploadThumbnail(ctx context.Context, tournamentID, filename string, size int64, body io.Reader) (*TournamentView, error) {
	if s.media == nil {
		return nil, Upstream("media storage not configured", nil)
	}
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, InvalidInput("missing tournamentId")
	}
	ext, contentType, ok := utils.ImageExt(filename)
	if !ok {
		return nil, InvalidInput("thumbnail must be png, jpg, webp or gif")
	}
	if size <= 0 || size > maxThumbnailBytes {
		return nil, InvalidInput("thumbnail must be between 1 byte and %d MB", maxThumbnailBytes>>20)
	}

	t, err := s.store.GetTournamentByID(ctx, tournamentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFound("tournament not found")
	}
	if err != nil {
		return nil, Upstream("failed to load tournament", err)
	}

	key := fmt.Sprintf("tournaments/%s/thumb-%s%s", t.Slug, uuid.NewString()[:8], ext)
	url, err := s.media.Upload(ctx, key, contentType, io.LimitReader(body, maxThumbnailBytes))
	if err != nil {
		return nil, Upstream("failed to upload thumbnail", err)
	}
	if err := s.store.SetThumbnail(ctx, t.ID, key, url); err != nil {
		return nil, storeErr(err, "failed to save thumbnail")
	}

	s.logger.Info("tournament thumbnail uploaded", zap.String("slug", t.Slug), zap.String("key", key))
	t.ThumbnailPath, t.ThumbnailURL = key, url
	v := newTournamentView(*t, s.now())
	return &v, nil
}
