package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/config"
	"car-journal-backend/internal/models"

	"github.com/google/uuid"
)

var testDefaults = config.DefaultImages{
	UserAvatar: "https://cdn.test/default/avatar.png",
	UserPoster: "https://cdn.test/default/poster.png",
	CarPoster:  "https://cdn.test/default/car.png",
	NoImage:    "https://cdn.test/default/none.png",
}

func cloneImage(img *models.Image) *models.Image {
	c := *img
	c.Resources = append([]string(nil), img.Resources...)
	return &c
}

// memImages is an in-memory ImageStore
type memImages struct {
	mu     sync.Mutex
	byID   map[string]*models.Image
	delErr error
	// beforeCreate runs ahead of the insert, outside the lock
	beforeCreate func()
}

func newMemImages() *memImages {
	return &memImages{byID: make(map[string]*models.Image)}
}

func (m *memImages) Create(ctx context.Context, img *models.Image) (*models.Image, error) {
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Owner == img.Owner && existing.EntityID == img.EntityID && existing.EntityType == img.EntityType {
			return nil, apperr.New(apperr.KindConflict, "image bundle already exists")
		}
	}
	c := cloneImage(img)
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	m.byID[c.ID] = c
	return cloneImage(c), nil
}

func (m *memImages) GetByID(ctx context.Context, id string) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("image")
	}
	return cloneImage(img), nil
}

func (m *memImages) GetByEntity(ctx context.Context, owner, entityID string, et models.EntityType) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.byID {
		if img.Owner == owner && img.EntityID == entityID && img.EntityType == et {
			return cloneImage(img), nil
		}
	}
	return nil, apperr.NotFound("image")
}

func (m *memImages) Update(ctx context.Context, img *models.Image) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[img.ID]; !ok {
		return nil, apperr.NotFound("image")
	}
	m.byID[img.ID] = cloneImage(img)
	return cloneImage(img), nil
}

func (m *memImages) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.byID, id)
	return nil
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// memMedia is an in-memory media.Store that records every call
type memMedia struct {
	mu             sync.Mutex
	objects        map[string]bool
	deletedFiles   []string
	deletedFolders []string
	uploadErr      error
	deleteFileErr  error
	deleteDirErr   error
}

func newMemMedia() *memMedia {
	return &memMedia{objects: make(map[string]bool)}
}

func (m *memMedia) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = true
	return "https://cdn.test/" + key, nil
}

func (m *memMedia) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedFiles = append(m.deletedFiles, key)
	if m.deleteFileErr != nil {
		return m.deleteFileErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memMedia) DeleteFolder(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedFolders = append(m.deletedFolders, prefix)
	if m.deleteDirErr != nil {
		return m.deleteDirErr
	}
	for key := range m.objects {
		if len(key) > len(prefix) && key[:len(prefix)+1] == prefix+"/" {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *memMedia) ListFolder(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.objects {
		if len(key) > len(prefix) && key[:len(prefix)+1] == prefix+"/" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// memTarget is a PhotoTarget for entities that are not resources
type memTarget struct {
	mu     sync.Mutex
	owners map[string]string
	images map[string]*string
	setErr error
}

func newMemTarget() *memTarget {
	return &memTarget{owners: make(map[string]string), images: make(map[string]*string)}
}

func (t *memTarget) add(id, owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owners[id] = owner
}

func (t *memTarget) Owner(ctx context.Context, id string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.owners[id]
	if !ok {
		return "", apperr.NotFound("entity")
	}
	return owner, nil
}

func (t *memTarget) SetImage(ctx context.Context, id string, imageID *string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.setErr != nil {
		return t.setErr
	}
	if _, ok := t.owners[id]; !ok {
		return apperr.NotFound("entity")
	}
	t.images[id] = imageID
	return nil
}

func (t *memTarget) image(id string) *string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.images[id]
}

// memResources is an in-memory ResourceStore that also serves as the PhotoTarget of its kind
type memResources[T any] struct {
	mu       sync.Mutex
	kind     models.ResourceKind
	order    []string
	byID     map[string]*models.Resource[T]
	contacts *memContacts
}

func newMemResources[T any](kind models.ResourceKind, contacts *memContacts) *memResources[T] {
	return &memResources[T]{kind: kind, byID: make(map[string]*models.Resource[T]), contacts: contacts}
}

func (m *memResources[T]) read(id string) (*models.Resource[T], error) {
	res, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound(m.kind.Name)
	}
	c := *res
	if c.ContactID != nil && m.contacts != nil {
		if contact, err := m.contacts.GetByID(context.Background(), *c.ContactID); err == nil {
			c.Contact = contact
		}
	}
	return &c, nil
}

func (m *memResources[T]) Create(ctx context.Context, res *models.Resource[T]) (*models.Resource[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *res
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.byID[c.ID] = &c
	m.order = append(m.order, c.ID)
	return m.read(c.ID)
}

func (m *memResources[T]) FindByID(ctx context.Context, id string) (*models.Resource[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(id)
}

// UpdateByID stores details as given, like the SQL UPDATE does
func (m *memResources[T]) UpdateByID(ctx context.Context, id string, details T) (*models.Resource[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound(m.kind.Name)
	}
	// jsonb holds the encoded document, so keep only what survives encoding
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	var stored T
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	res.Details = stored
	res.UpdatedAt = time.Now()
	return m.read(id)
}

func (m *memResources[T]) DeleteByID(ctx context.Context, id string) (*models.Resource[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.read(id)
	if err != nil {
		return nil, err
	}
	delete(m.byID, id)
	return res, nil
}

func (m *memResources[T]) List(ctx context.Context, carID, userID string, skip, limit int) ([]*models.Resource[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []*models.Resource[T]{}
	matched := 0
	for _, id := range m.order {
		res, ok := m.byID[id]
		if !ok || res.CarID != carID || res.Owner != userID {
			continue
		}
		if matched >= skip && len(items) < limit {
			c, _ := m.read(id)
			items = append(items, c)
		}
		matched++
	}
	return items, nil
}

func (m *memResources[T]) SetContact(ctx context.Context, id, contactID string) (*models.Resource[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound(m.kind.Name)
	}
	res.ContactID = &contactID
	return m.read(id)
}

func (m *memResources[T]) Owner(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.byID[id]
	if !ok {
		return "", apperr.NotFound(m.kind.Name)
	}
	return res.Owner, nil
}

func (m *memResources[T]) SetImage(ctx context.Context, id string, imageID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.byID[id]
	if !ok {
		return apperr.NotFound(m.kind.Name)
	}
	res.Photos = imageID
	return nil
}

func (m *memResources[T]) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

// memCars is an in-memory CarStore and PhotoTarget
type memCars struct {
	mu   sync.Mutex
	byID map[string]*models.Car
}

func newMemCars() *memCars {
	return &memCars{byID: make(map[string]*models.Car)}
}

func (m *memCars) add(owner string) *models.Car {
	m.mu.Lock()
	defer m.mu.Unlock()
	car := &models.Car{ID: uuid.New().String(), Owner: owner, Make: "Mazda", Model: "3", Year: 2019}
	m.byID[car.ID] = car
	return car
}

func (m *memCars) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *car
	c.ID = uuid.New().String()
	m.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memCars) GetByID(ctx context.Context, id string) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	car, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("car")
	}
	c := *car
	return &c, nil
}

func (m *memCars) ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cars []*models.Car
	for _, car := range m.byID {
		if car.Owner == owner {
			c := *car
			cars = append(cars, &c)
		}
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].ID < cars[j].ID })
	if skip >= len(cars) {
		return []*models.Car{}, nil
	}
	cars = cars[skip:]
	if len(cars) > limit {
		cars = cars[:limit]
	}
	return cars, nil
}

func (m *memCars) Update(ctx context.Context, car *models.Car) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[car.ID]; !ok {
		return nil, apperr.NotFound("car")
	}
	c := *car
	m.byID[car.ID] = &c
	out := c
	return &out, nil
}

func (m *memCars) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("car")
	}
	delete(m.byID, id)
	return nil
}

func (m *memCars) Owner(ctx context.Context, id string) (string, error) {
	car, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return car.Owner, nil
}

func (m *memCars) SetImage(ctx context.Context, id string, imageID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	car, ok := m.byID[id]
	if !ok {
		return apperr.NotFound("car")
	}
	car.Photos = imageID
	return nil
}

// memContacts is an in-memory ContactStore and PhotoTarget
type memContacts struct {
	mu   sync.Mutex
	byID map[string]*models.Contact
}

func newMemContacts() *memContacts {
	return &memContacts{byID: make(map[string]*models.Contact)}
}

func (m *memContacts) add(owner, name string) *models.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Contact{ID: uuid.New().String(), Owner: owner, Name: name}
	m.byID[c.ID] = c
	return c
}

func (m *memContacts) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := *c
	n.ID = uuid.New().String()
	m.byID[n.ID] = &n
	out := n
	return &out, nil
}

func (m *memContacts) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("contact")
	}
	out := *c
	return &out, nil
}

func (m *memContacts) ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Contact
	for _, c := range m.byID {
		if c.Owner == owner {
			n := *c
			out = append(out, &n)
		}
	}
	return out, nil
}

func (m *memContacts) Update(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[c.ID]; !ok {
		return nil, apperr.NotFound("contact")
	}
	n := *c
	m.byID[c.ID] = &n
	out := n
	return &out, nil
}

func (m *memContacts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("contact")
	}
	delete(m.byID, id)
	return nil
}

func (m *memContacts) Owner(ctx context.Context, id string) (string, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Owner, nil
}

func (m *memContacts) SetImage(ctx context.Context, id string, imageID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return apperr.NotFound("contact")
	}
	c.Photos = imageID
	return nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []WSMessage
}

func (p *recordingPublisher) Publish(userID string, msg WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errStorageDown = errors.New("storage unavailable")
