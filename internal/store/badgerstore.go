package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
)

// contactPrefix starts the key of every contact document.
var contactPrefix = []byte("contact/")

// BadgerStore keeps contacts as BSON documents in an embedded Badger database.
// Searches scan all documents and filter in process.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens the Badger database in dir. An empty dir keeps all data in
// memory.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func contactKey(id string) []byte {
	return append(append([]byte{}, contactPrefix...), id...)
}

func (s *BadgerStore) FindAll(ctx context.Context) ([]model.Contact, error) {
	return s.scan(ctx, model.SearchFilter{})
}

func (s *BadgerStore) FindByID(_ context.Context, id string) (model.Contact, error) {
	var contact model.Contact
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		contact, err = getContact(txn, id)
		return err
	})
	return contact, err
}

func (s *BadgerStore) Search(ctx context.Context, filter model.SearchFilter) ([]model.Contact, error) {
	return s.scan(ctx, filter)
}

func (s *BadgerStore) Insert(_ context.Context, contact model.Contact) error {
	doc, err := bson.Marshal(contact)
	if err != nil {
		return fmt.Errorf("encode contact: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := contactKey(contact.Id)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("contact %s already exists", contact.Id)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, doc)
	})
}

func (s *BadgerStore) Update(_ context.Context, id string, changes model.ContactInput) (model.Contact, error) {
	var contact model.Contact
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		contact, err = getContact(txn, id)
		if err != nil {
			return err
		}
		if changes.Empty() {
			return nil
		}
		changes.Apply(&contact)
		doc, err := bson.Marshal(contact)
		if err != nil {
			return fmt.Errorf("encode contact: %w", err)
		}
		return txn.Set(contactKey(id), doc)
	})
	if err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

func (s *BadgerStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := contactKey(id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

func (s *BadgerStore) Close(_ context.Context) error {
	return s.db.Close()
}

// scan iterates over all contacts in key order and keeps those matching the filter.
func (s *BadgerStore) scan(ctx context.Context, filter model.SearchFilter) ([]model.Contact, error) {
	contacts := make([]model.Contact, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = contactPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(contactPrefix); it.ValidForPrefix(contactPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var contact model.Contact
			err := it.Item().Value(func(val []byte) error {
				return bson.Unmarshal(val, &contact)
			})
			if err != nil {
				return fmt.Errorf("decode contact %s: %w", it.Item().Key(), err)
			}
			if filter.Matches(contact) {
				contacts = append(contacts, contact)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func getContact(txn *badger.Txn, id string) (model.Contact, error) {
	var contact model.Contact
	item, err := txn.Get(contactKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return contact, ErrNotFound
	}
	if err != nil {
		return contact, err
	}
	err = item.Value(func(val []byte) error {
		return bson.Unmarshal(val, &contact)
	})
	return contact, err
}
