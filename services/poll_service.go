package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adilzhm/pickbracket/models"
	"github.com/adilzhm/pickbracket/repositories"
	"github.com/adilzhm/pickbracket/storage"
)

type CreatePollInput struct {
	Name     string `json:"name"`
	EventKey string `json:"event_key"`
}

type CreateOptionInput struct {
	Title string `json:"title"`
}

type PollService interface {
	CreatePoll(ctx context.Context, input CreatePollInput) (*models.Poll, error)
	GetPoll(ctx context.Context, id int) (*models.Poll, error)
	ListPolls(ctx context.Context) ([]*models.Poll, error)
	ClosePoll(ctx context.Context, id int) error

	AddOption(ctx context.Context, pollID int, input CreateOptionInput) (*models.Option, error)
	ListOptions(ctx context.Context, pollID int) ([]*models.Option, error)
	RemoveOption(ctx context.Context, optionID int) error
	UploadOptionPhoto(ctx context.Context, optionID int, contentType string, photo io.Reader) (*models.Option, error)
}

type pollService struct {
	pollRepo   repositories.PollRepository
	optionRepo repositories.OptionRepository
	uploader   storage.FileUploader
}

func NewPollService(
	pollRepo repositories.PollRepository,
	optionRepo repositories.OptionRepository,
	uploader storage.FileUploader,
) PollService {
	return &pollService{
		pollRepo:   pollRepo,
		optionRepo: optionRepo,
		uploader:   uploader,
	}
}

func (s *pollService) CreatePoll(ctx context.Context, input CreatePollInput) (*models.Poll, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: poll name is required", ErrValidationFailed)
	}

	poll := &models.Poll{
		Name:     name,
		EventKey: strings.TrimSpace(input.EventKey),
		Status:   models.PollStatusOpen,
	}
	if err := s.pollRepo.Create(ctx, poll); err != nil {
		if errors.Is(err, repositories.ErrPollNameConflict) {
			return nil, ErrPollNameConflict
		}
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id int) (*models.Poll, error) {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPollNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return poll, nil
}

func (s *pollService) ListPolls(ctx context.Context) ([]*models.Poll, error) {
	return s.pollRepo.List(ctx)
}

func (s *pollService) ClosePoll(ctx context.Context, id int) error {
	err := s.pollRepo.UpdateStatus(ctx, id, models.PollStatusClosed)
	if errors.Is(err, repositories.ErrPollNotFound) {
		return ErrPollNotFound
	}
	return err
}

func (s *pollService) AddOption(ctx context.Context, pollID int, input CreateOptionInput) (*models.Option, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: option title is required", ErrValidationFailed)
	}

	option := &models.Option{PollID: pollID, Title: title}
	if err := s.optionRepo.Create(ctx, option); err != nil {
		switch {
		case errors.Is(err, repositories.ErrOptionTitleConflict):
			return nil, ErrOptionTitleConflict
		case errors.Is(err, repositories.ErrOptionPollInvalid):
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to create option: %w", err)
	}
	return option, nil
}

func (s *pollService) ListOptions(ctx context.Context, pollID int) ([]*models.Option, error) {
	options, err := s.optionRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	for _, option := range options {
		s.populatePhotoURL(option)
	}
	return options, nil
}

func (s *pollService) RemoveOption(ctx context.Context, optionID int) error {
	option, err := s.optionRepo.GetByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, repositories.ErrOptionNotFound) {
			return ErrOptionNotFound
		}
		return err
	}

	if err := s.optionRepo.Delete(ctx, optionID); err != nil {
		if errors.Is(err, repositories.ErrOptionNotFound) {
			return ErrOptionNotFound
		}
		return err
	}

	// Best effort: the DB row is gone, a leaked photo is only storage.
	if option.PhotoKey != nil && s.uploader != nil {
		_ = s.uploader.Delete(ctx, *option.PhotoKey)
	}
	return nil
}

func (s *pollService) UploadOptionPhoto(ctx context.Context, optionID int, contentType string, photo io.Reader) (*models.Option, error) {
	if s.uploader == nil {
		return nil, errors.New("photo storage is not configured")
	}

	option, err := s.optionRepo.GetByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, repositories.ErrOptionNotFound) {
			return nil, ErrOptionNotFound
		}
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, ErrUnsupportedPhotoType
	}

	key := fmt.Sprintf("options/%d/photo%s", optionID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, photo)
	if err != nil {
		return nil, fmt.Errorf("failed to upload option photo: %w", err)
	}

	oldKey := option.PhotoKey
	if err := s.optionRepo.UpdatePhotoKey(ctx, optionID, &result.Key); err != nil {
		_ = s.uploader.Delete(ctx, result.Key)
		return nil, fmt.Errorf("failed to store photo key: %w", err)
	}
	if oldKey != nil && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	option.PhotoKey = &result.Key
	s.populatePhotoURL(option)
	return option, nil
}

func (s *pollService) populatePhotoURL(option *models.Option) {
	if option == nil || option.PhotoKey == nil || *option.PhotoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*option.PhotoKey); url != "" {
		option.PhotoURL = &url
	}
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("could not determine file extension from content type %q", contentType)
	}
}
