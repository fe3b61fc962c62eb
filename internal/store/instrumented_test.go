package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
)

// TestInstrumentRecordsOutcomes verifies that calls pass through unchanged and are counted by
// operation and outcome.
func TestInstrumentRecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStore(gomock.NewController(t))
	m := metrics.New()
	st := Instrument(mock, logger.Nop(), m)

	mock.EXPECT().FindByID(ctx, "a1").Return(model.Contact{Id: "a1"}, nil)
	mock.EXPECT().FindByID(ctx, "zz").Return(model.Contact{}, ErrNotFound)
	mock.EXPECT().Delete(ctx, "a1").Return(errors.New("timeout"))
	mock.EXPECT().FindAll(ctx).Return([]model.Contact{{Id: "a1"}, {Id: "b2"}}, nil)

	contact, err := st.FindByID(ctx, "a1")
	assert.NoError(t, err)
	assert.Equal(t, "a1", contact.Id)

	_, err = st.FindByID(ctx, "zz")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.EqualError(t, st.Delete(ctx, "a1"), "timeout")

	all, err := st.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	expected := `
# HELP contacts_storage_operations_total Number of storage operations by operation and outcome.
# TYPE contacts_storage_operations_total counter
contacts_storage_operations_total{operation="delete",outcome="error"} 1
contacts_storage_operations_total{operation="find_all",outcome="ok"} 1
contacts_storage_operations_total{operation="find_by_id",outcome="not_found"} 1
contacts_storage_operations_total{operation="find_by_id",outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "contacts_storage_operations_total"))
}
