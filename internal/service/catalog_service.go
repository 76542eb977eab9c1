package service

import (
	"context"
	"strings"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/internal/repository"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

// ImageStore persists uploaded images and returns their public path.
type ImageStore interface {
	Save(ctx context.Context, prefix string, upload *domain.Upload) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

type SpotService interface {
	List(ctx context.Context) ([]domain.Spot, error)
	Create(ctx context.Context, in domain.SpotInput, image *domain.Upload) (*domain.Spot, error)
	Delete(ctx context.Context, id int64) error
}

type spotService struct {
	spots  repository.SpotRepository
	images ImageStore
}

func NewSpotService(spots repository.SpotRepository, images ImageStore) SpotService {
	return &spotService{spots: spots, images: images}
}

func (s *spotService) List(ctx context.Context) ([]domain.Spot, error) {
	spots, err := s.spots.List(ctx)
	if err != nil {
		return nil, storageErr("list spots", err)
	}
	return spots, nil
}

func (s *spotService) Create(ctx context.Context, in domain.SpotInput, image *domain.Upload) (*domain.Spot, error) {
	if image == nil {
		return nil, domain.ErrMissingFile
	}
	in.Normalize()

	imagePath, err := s.images.Save(ctx, "spot", image)
	if err != nil {
		return nil, err
	}

	lat, lng := in.Coordinates()
	spot, err := s.spots.Create(ctx, &domain.Spot{
		State:       in.State,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Image:       imagePath,
		Lat:         lat,
		Lng:         lng,
	})
	if err != nil {
		if rmErr := s.images.Remove(ctx, imagePath); rmErr != nil {
			logger.WarnContext(ctx, "Failed to remove orphaned spot image", "path", imagePath, "error", rmErr)
		}
		return nil, storageErr("create spot", err)
	}

	logger.InfoContext(ctx, "Spot created", "spot_id", spot.ID, "name", spot.Name)
	return spot, nil
}

// Delete succeeds whether or not the spot exists.
func (s *spotService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("spot id must be positive")
	}
	deleted, err := s.spots.Delete(ctx, id)
	if err != nil {
		return storageErr("delete spot", err)
	}
	logger.InfoContext(ctx, "Spot delete requested", "spot_id", id, "deleted", deleted)
	return nil
}

type GuideService interface {
	List(ctx context.Context) ([]domain.GuideProfile, error)
	GetOrCreate(ctx context.Context, email string) (*domain.GuideProfile, error)
	Upsert(ctx context.Context, email string, patch domain.GuideProfilePatch, image *domain.Upload) (*domain.GuideProfile, error)
}

type guideService struct {
	guides repository.GuideRepository
	images ImageStore
}

func NewGuideService(guides repository.GuideRepository, images ImageStore) GuideService {
	return &guideService{guides: guides, images: images}
}

func (s *guideService) List(ctx context.Context) ([]domain.GuideProfile, error) {
	guides, err := s.guides.List(ctx)
	if err != nil {
		return nil, storageErr("list guides", err)
	}
	return guides, nil
}

func (s *guideService) GetOrCreate(ctx context.Context, email string) (*domain.GuideProfile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}

	profile, err := s.guides.GetOrCreate(ctx, email)
	if err != nil {
		return nil, storageErr("load guide profile", err)
	}
	return profile, nil
}

func (s *guideService) Upsert(ctx context.Context, email string, patch domain.GuideProfilePatch, image *domain.Upload) (*domain.GuideProfile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}
	trimAll(patch.Name, patch.Bio, patch.Experience, patch.Languages, patch.Phone)

	var previousImage string
	if image != nil {
		existing, err := s.guides.FindByEmail(ctx, email)
		if err != nil {
			return nil, storageErr("load guide profile", err)
		}
		if existing != nil {
			previousImage = existing.ProfileImage
		}

		imagePath, err := s.images.Save(ctx, "guide", image)
		if err != nil {
			return nil, err
		}
		patch.ProfileImage = &imagePath
	}

	profile, err := s.guides.Upsert(ctx, email, patch)
	if err != nil {
		if patch.ProfileImage != nil {
			_ = s.images.Remove(ctx, *patch.ProfileImage)
		}
		return nil, storageErr("save guide profile", err)
	}

	if previousImage != "" && patch.ProfileImage != nil && previousImage != *patch.ProfileImage {
		if err := s.images.Remove(ctx, previousImage); err != nil {
			logger.WarnContext(ctx, "Failed to remove replaced profile image", "path", previousImage, "error", err)
		}
	}

	logger.InfoContext(ctx, "Guide profile saved", "guide_id", profile.ID)
	return profile, nil
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

type FeedbackService interface {
	Submit(ctx context.Context, entry *domain.FeedbackEntry) (*domain.FeedbackEntry, error)
	List(ctx context.Context) ([]domain.FeedbackEntry, error)
}

type feedbackService struct {
	feedback repository.FeedbackRepository
}

func NewFeedbackService(feedback repository.FeedbackRepository) FeedbackService {
	return &feedbackService{feedback: feedback}
}

func (s *feedbackService) Submit(ctx context.Context, entry *domain.FeedbackEntry) (*domain.FeedbackEntry, error) {
	entry.Normalize()
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.feedback.Create(ctx, entry)
	if err != nil {
		return nil, storageErr("save feedback", err)
	}
	return saved, nil
}

func (s *feedbackService) List(ctx context.Context) ([]domain.FeedbackEntry, error) {
	entries, err := s.feedback.List(ctx)
	if err != nil {
		return nil, storageErr("list feedback", err)
	}
	return entries, nil
}
