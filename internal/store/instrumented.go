package store

import (
	"context"
	"errors"
	"time"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
)

// instrumented decorates a Store with debug logging and latency metrics for
// every call.
type instrumented struct {
	next    Store
	log     logger.Logger
	metrics *metrics.Metrics
}

// Instrument wraps st so that each operation is logged and measured.
func Instrument(st Store, log logger.Logger, m *metrics.Metrics) Store {
	return &instrumented{next: st, log: log, metrics: m}
}

func (s *instrumented) FindAll(ctx context.Context) (contacts []model.Contact, err error) {
	defer func(start time.Time) { s.observe(ctx, "find_all", start, err) }(time.Now())
	return s.next.FindAll(ctx)
}

func (s *instrumented) FindByID(ctx context.Context, id string) (contact model.Contact, err error) {
	defer func(start time.Time) { s.observe(ctx, "find_by_id", start, err, logger.String("id", id)) }(time.Now())
	return s.next.FindByID(ctx, id)
}

func (s *instrumented) Search(ctx context.Context, filter model.SearchFilter) (contacts []model.Contact, err error) {
	defer func(start time.Time) { s.observe(ctx, "search", start, err, logger.Any("filter", filter)) }(time.Now())
	return s.next.Search(ctx, filter)
}

func (s *instrumented) Insert(ctx context.Context, contact model.Contact) (err error) {
	defer func(start time.Time) { s.observe(ctx, "insert", start, err, logger.String("id", contact.Id)) }(time.Now())
	return s.next.Insert(ctx, contact)
}

func (s *instrumented) Update(ctx context.Context, id string, changes model.ContactInput) (contact model.Contact, err error) {
	defer func(start time.Time) { s.observe(ctx, "update", start, err, logger.String("id", id)) }(time.Now())
	return s.next.Update(ctx, id, changes)
}

func (s *instrumented) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete", start, err, logger.String("id", id)) }(time.Now())
	return s.next.Delete(ctx, id)
}

func (s *instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}

func (s *instrumented) observe(ctx context.Context, operation string, start time.Time, err error, fields ...logger.Field) {
	d := time.Since(start)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	s.metrics.ObserveStorageOperation(operation, outcome, d)
	fields = append(fields,
		logger.String("operation", operation),
		logger.String("outcome", outcome),
		logger.Float64("duration_ms", float64(d.Microseconds())/1000),
	)
	s.log.Debug(ctx, "storage call", fields...)
}
