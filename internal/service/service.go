package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/store"
)

// Messages reported to the client when an operation fails.
const (
	msgList   = "error fetching contacts"
	msgGet    = "error looking up contact"
	msgSearch = "error searching contacts"
	msgCreate = "error saving contact"
	msgUpdate = "error updating contact"
	msgDelete = "error deleting contact"
)

// ContactService implements the contact operations on top of a store. Every
// operation is a single store call; failures are returned as *Error.
type ContactService struct {
	store store.Store
	newID func() string
	log   logger.Logger
}

// Option configures a ContactService.
type Option func(*ContactService)

// WithIDGenerator replaces the generator of contact ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *ContactService) { s.newID = newID }
}

// WithLogger sets the logger for storage failures.
func WithLogger(log logger.Logger) Option {
	return func(s *ContactService) { s.log = log }
}

// NewContactService creates the service on the given store. By default ids
// are random UUIDs and nothing is logged.
func NewContactService(st store.Store, opts ...Option) *ContactService {
	s := &ContactService{
		store: st,
		newID: uuid.NewString,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all contacts.
func (s *ContactService) List(ctx context.Context) ([]model.Contact, error) {
	contacts, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, msgList, err)
	}
	return nonNil(contacts), nil
}

// Get returns the contact with the given id.
func (s *ContactService) Get(ctx context.Context, id string) (model.Contact, error) {
	contact, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Contact{}, s.fail(ctx, msgGet, err)
	}
	return contact, nil
}

// Search returns the contacts matching the filter. An empty filter returns
// all contacts.
func (s *ContactService) Search(ctx context.Context, filter model.SearchFilter) ([]model.Contact, error) {
	var contacts []model.Contact
	var err error
	if filter.Empty() {
		contacts, err = s.store.FindAll(ctx)
	} else {
		contacts, err = s.store.Search(ctx, filter)
	}
	if err != nil {
		return nil, s.fail(ctx, msgSearch, err)
	}
	return nonNil(contacts), nil
}

// Create stores a new contact with a freshly generated id and returns it.
func (s *ContactService) Create(ctx context.Context, input model.ContactInput) (model.Contact, error) {
	contact := model.Contact{Id: s.newID()}
	input.Apply(&contact)
	if err := s.store.Insert(ctx, contact); err != nil {
		return model.Contact{}, s.fail(ctx, msgCreate, err)
	}
	return contact, nil
}

// Update merges the supplied fields into the contact and returns the result.
// Without any supplied field the stored contact is returned unchanged.
func (s *ContactService) Update(ctx context.Context, id string, input model.ContactInput) (model.Contact, error) {
	var contact model.Contact
	var err error
	if input.Empty() {
		contact, err = s.store.FindByID(ctx, id)
	} else {
		contact, err = s.store.Update(ctx, id, input)
	}
	if err != nil {
		return model.Contact{}, s.fail(ctx, msgUpdate, err)
	}
	return contact, nil
}

// Delete removes the contact with the given id.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.fail(ctx, msgDelete, err)
	}
	return nil
}

// fail classifies a store error. Only storage failures are logged; a missing
// contact is an ordinary outcome.
func (s *ContactService) fail(ctx context.Context, message string, err error) *Error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: message, Err: err}
	}
	s.log.Error(ctx, message, logger.Error(err))
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// nonNil makes an empty result serialize as an empty JSON array.
func nonNil(contacts []model.Contact) []model.Contact {
	if contacts == nil {
		return []model.Contact{}
	}
	return contacts
}
