package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"car-journal-backend/internal/access"
	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/media"
	"car-journal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ImageStore persists image bundles
type ImageStore interface {
	Create(ctx context.Context, img *models.Image) (*models.Image, error)
	GetByID(ctx context.Context, id string) (*models.Image, error)
	GetByEntity(ctx context.Context, owner, entityID string, entityType models.EntityType) (*models.Image, error)
	Update(ctx context.Context, img *models.Image) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// FileUpload is one uploaded file
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CascadeStatus is the result of removing every image of an entity
type CascadeStatus string

const (
	CascadeCompleted       CascadeStatus = "completed"
	CascadePartiallyFailed CascadeStatus = "partially_failed"
)

// CascadeStep is one idempotent step of an image cascade
type CascadeStep string

const (
	StepRemoteFiles    CascadeStep = "remote_files"
	StepRemoteFolder   CascadeStep = "remote_folder"
	StepPointerCleared CascadeStep = "pointer_cleared"
	StepRecordDeleted  CascadeStep = "record_deleted"
)

// CascadeOutcome reports which steps of an image cascade ran.
// Steps are not rolled back when a later one fails.
type CascadeOutcome struct {
	ImageID string        `json:"image_id"`
	Status  CascadeStatus `json:"status"`
	Done    []CascadeStep `json:"done"`
	Failed  CascadeStep   `json:"failed,omitempty"`
}

func (o *CascadeOutcome) fail(step CascadeStep) {
	o.Status = CascadePartiallyFailed
	o.Failed = step
}

// ImageService manages the image bundle of every entity
type ImageService struct {
	images    ImageStore
	store     media.Store
	registry  *ImageRegistry
	events    EventPublisher
	namespace string
	maxSize   int64
}

// NewImageService creates a new image service
func NewImageService(images ImageStore, store media.Store, registry *ImageRegistry, events EventPublisher, namespace string, maxSize int64) *ImageService {
	if events == nil {
		events = noopPublisher{}
	}
	return &ImageService{
		images:    images,
		store:     store,
		registry:  registry,
		events:    events,
		namespace: namespace,
		maxSize:   maxSize,
	}
}

// ownedTarget resolves the entity of type et and checks userID owns it
func (s *ImageService) ownedTarget(ctx context.Context, userID, entityID string, et models.EntityType) (PhotoTarget, error) {
	target, err := s.registry.Target(et)
	if err != nil {
		return nil, err
	}
	owner, err := target.Owner(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(owner, userID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *ImageService) validateFile(file FileUpload) (string, error) {
	ext, ok := allowedImageTypes[file.ContentType]
	if !ok {
		return "", apperr.BadRequest("unsupported image type %q", file.ContentType)
	}
	if file.Size <= 0 {
		return "", apperr.BadRequest("file is empty")
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return "", apperr.BadRequest("file exceeds %d bytes", s.maxSize)
	}
	return ext, nil
}

// Upload stores a file and makes it the selected image of the entity
func (s *ImageService) Upload(ctx context.Context, userID, entityID string, et models.EntityType, file FileUpload) (*models.Image, error) {
	target, err := s.ownedTarget(ctx, userID, entityID, et)
	if err != nil {
		return nil, err
	}
	ext, err := s.validateFile(file)
	if err != nil {
		return nil, err
	}

	folder := media.FolderPath(s.namespace, et, entityID)
	key := media.ObjectKey(folder, uuid.New().String()+ext)
	url, err := s.store.Upload(ctx, key, file.Body, file.Size, file.ContentType)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to upload image")
	}

	img, err := s.addResource(ctx, userID, entityID, et, url)
	if errors.Is(err, apperr.ErrConflict) {
		// a concurrent first upload created the bundle; append to it instead
		img, err = s.addResource(ctx, userID, entityID, et, url)
	}
	if err != nil {
		return nil, err
	}

	if err := target.SetImage(ctx, entityID, &img.ID); err != nil {
		return nil, fmt.Errorf("failed to point %s %s at image: %w", et, entityID, err)
	}

	log.Info().
		Str("user_id", userID).
		Str("entity_type", string(et)).
		Str("entity_id", entityID).
		Str("image_id", img.ID).
		Msg("Image uploaded")

	s.events.Publish(userID, imageEvent(img))
	return img, nil
}

// addResource appends url to the entity's bundle and selects it, creating the
// bundle on the first upload
func (s *ImageService) addResource(ctx context.Context, userID, entityID string, et models.EntityType, url string) (*models.Image, error) {
	existing, err := s.images.GetByEntity(ctx, userID, entityID, et)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		return s.images.Create(ctx, &models.Image{
			Owner:      userID,
			EntityID:   entityID,
			EntityType: et,
			Default:    s.registry.DefaultImage(et),
			Resources:  []string{url},
			Selected:   url,
		})
	}
	existing.Resources = append(existing.Resources, url)
	existing.Selected = url
	return s.images.Update(ctx, existing)
}

// Delete removes every resource of the bundle whose URL contains publicID.
// It returns nil when the last resource was removed and the bundle is gone.
func (s *ImageService) Delete(ctx context.Context, userID, entityID string, et models.EntityType, publicID string) (*models.Image, error) {
	if publicID == "" {
		return nil, apperr.BadRequest("publicId is required")
	}
	target, err := s.ownedTarget(ctx, userID, entityID, et)
	if err != nil {
		return nil, err
	}

	img, err := s.images.GetByEntity(ctx, userID, entityID, et)
	if err != nil {
		return nil, err
	}

	var kept, removed []string
	for _, url := range img.Resources {
		if strings.Contains(url, publicID) {
			removed = append(removed, url)
		} else {
			kept = append(kept, url)
		}
	}
	if len(removed) == 0 {
		return nil, apperr.New(apperr.KindFileNotExist, "file %s does not exist", publicID)
	}

	folder := media.FolderPath(s.namespace, et, entityID)
	for _, url := range removed {
		if err := s.store.DeleteFile(ctx, media.ObjectKey(folder, media.PublicID(url))); err != nil {
			return nil, apperr.Upstream(err, "failed to delete image")
		}
	}

	if len(kept) == 0 {
		if err := s.images.Delete(ctx, img.ID); err != nil {
			return nil, err
		}
		if err := target.SetImage(ctx, entityID, nil); err != nil {
			return nil, fmt.Errorf("failed to clear %s %s image: %w", et, entityID, err)
		}
		log.Info().Str("image_id", img.ID).Str("entity_id", entityID).Msg("Image bundle emptied and removed")
		s.events.Publish(userID, WSMessage{Type: EventImageRemoved, EntityType: string(et), EntityID: entityID})
		return nil, nil
	}

	for _, url := range removed {
		if url == img.Selected {
			img.Selected = img.Default
			break
		}
	}
	img.Resources = kept

	updated, err := s.images.Update(ctx, img)
	if err != nil {
		return nil, err
	}
	s.events.Publish(userID, imageEvent(updated))
	return updated, nil
}

// Select makes the resource matching publicID the selected image
func (s *ImageService) Select(ctx context.Context, userID, entityID string, et models.EntityType, publicID string) (*models.Image, error) {
	if publicID == "" {
		return nil, apperr.BadRequest("publicId is required")
	}
	if _, err := s.ownedTarget(ctx, userID, entityID, et); err != nil {
		return nil, err
	}

	img, err := s.images.GetByEntity(ctx, userID, entityID, et)
	if err != nil {
		return nil, err
	}

	match := ""
	for _, url := range img.Resources {
		if strings.Contains(url, publicID) {
			match = url
			break
		}
	}
	if match == "" {
		return nil, apperr.New(apperr.KindFileNotExist, "file %s does not exist", publicID)
	}
	if img.Selected == match {
		return img, nil
	}

	img.Selected = match
	updated, err := s.images.Update(ctx, img)
	if err != nil {
		return nil, err
	}
	s.events.Publish(userID, imageEvent(updated))
	return updated, nil
}

// RemoveAll deletes every remote object of a bundle, clears the entity's
// pointer and deletes the bundle. The outcome lists the steps that completed.
func (s *ImageService) RemoveAll(ctx context.Context, imageID string, et models.EntityType, entityID string) (*CascadeOutcome, error) {
	outcome := &CascadeOutcome{ImageID: imageID, Status: CascadeCompleted}

	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			outcome.fail(StepRemoteFiles)
			return outcome, apperr.New(apperr.KindNoImagesToDelete, "no images to delete")
		}
		return outcome, err
	}
	if len(img.Resources) == 0 {
		outcome.fail(StepRemoteFiles)
		return outcome, apperr.New(apperr.KindNoImagesToDelete, "no images to delete")
	}

	target, err := s.registry.Target(et)
	if err != nil {
		return outcome, err
	}

	folder := media.FolderPath(s.namespace, et, entityID)
	for _, url := range img.Resources {
		if err := s.store.DeleteFile(ctx, media.ObjectKey(folder, media.PublicID(url))); err != nil {
			outcome.fail(StepRemoteFiles)
			return outcome, apperr.Upstream(err, "failed to delete images")
		}
	}
	outcome.Done = append(outcome.Done, StepRemoteFiles)

	if err := s.store.DeleteFolder(ctx, folder); err != nil {
		outcome.fail(StepRemoteFolder)
		return outcome, apperr.Upstream(err, "failed to delete image folder")
	}
	outcome.Done = append(outcome.Done, StepRemoteFolder)

	if err := target.SetImage(ctx, entityID, nil); err != nil {
		outcome.fail(StepPointerCleared)
		return outcome, fmt.Errorf("failed to clear %s %s image: %w", et, entityID, err)
	}
	outcome.Done = append(outcome.Done, StepPointerCleared)

	if err := s.images.Delete(ctx, imageID); err != nil {
		outcome.fail(StepRecordDeleted)
		return outcome, err
	}
	outcome.Done = append(outcome.Done, StepRecordDeleted)

	log.Info().
		Str("image_id", imageID).
		Str("entity_type", string(et)).
		Str("entity_id", entityID).
		Int("files", len(img.Resources)).
		Msg("Image bundle removed")

	s.events.Publish(img.Owner, WSMessage{Type: EventImageRemoved, EntityType: string(et), EntityID: entityID})
	return outcome, nil
}

// RemoveAllForUser is RemoveAll for a client request: the bundle must belong
// to userID and to the given entity.
func (s *ImageService) RemoveAllForUser(ctx context.Context, userID, imageID string, et models.EntityType, entityID string) (*CascadeOutcome, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(img.Owner, userID); err != nil {
		return nil, err
	}
	if img.EntityID != entityID || img.EntityType != et {
		return nil, apperr.BadRequest("image %s does not belong to %s %s", imageID, et, entityID)
	}
	return s.RemoveAll(ctx, imageID, et, entityID)
}

// Get returns the bundle of an entity
func (s *ImageService) Get(ctx context.Context, userID, entityID string, et models.EntityType) (*models.Image, error) {
	if _, err := s.ownedTarget(ctx, userID, entityID, et); err != nil {
		return nil, err
	}
	return s.images.GetByEntity(ctx, userID, entityID, et)
}

func imageEvent(img *models.Image) WSMessage {
	return WSMessage{
		Type:       EventImageUpdated,
		EntityType: string(img.EntityType),
		EntityID:   img.EntityID,
		Data:       img,
	}
}
