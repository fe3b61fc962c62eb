package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
)

var contactColumns = []string{"id", "name", "surname", "age", "role"}

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT (.+) FROM contacts")
	mock.ExpectPrepare("SELECT (.+) FROM contacts WHERE id = ?")
	mock.ExpectPrepare("DELETE FROM contacts WHERE id = ?")
}

// expectSingleRowSelect instructs the mock object to expect that a select statement for a single
// contact will be executed.
func expectSingleRowSelect(mock sqlmock.Sqlmock, id string, name string, surname string, age float64, role string) {
	rows := mock.NewRows(contactColumns).AddRow(id, name, surname, age, role)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id = ?").
		WithArgs(id).
		WillReturnRows(rows)
}

// newSQLStore prepares the store on the mock database.
func newSQLStore(t *testing.T, db *sql.DB) *SQLStore {
	st, err := NewSQLStore(sqlx.NewDb(db, "mysql"))
	require.NoError(t, err)
	return st
}

func TestSQLFindAll(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	rows := mock.NewRows(contactColumns).
		AddRow("a1", "Aaron", "Alvarez", 30.0, "dev").
		AddRow("b2", "Berta", nil, nil, "ops").
		AddRow("c3", "Carla", "Castro", 41.0, nil)
	mock.ExpectQuery("SELECT (.+) FROM contacts").WillReturnRows(rows)

	contacts, err := newSQLStore(t, db).FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, "a1", contacts[0].Id)
	assert.Equal(t, "Aaron", *contacts[0].Name)
	assert.Equal(t, 30.0, *contacts[0].Age)
	assert.Nil(t, contacts[1].Surname)
	assert.Nil(t, contacts[1].Age)
	assert.Nil(t, contacts[2].Role)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLFindByID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	expectSingleRowSelect(mock, "a1", "Ana", "Ruiz", 28, "dev")

	contact, err := newSQLStore(t, db).FindByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, "Ana", *contact.Name)
	assert.Equal(t, "Ruiz", *contact.Surname)
	assert.Equal(t, 28.0, *contact.Age)
	assert.Equal(t, "dev", *contact.Role)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLFindByIDNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id = ?").
		WithArgs("missing").
		WillReturnRows(mock.NewRows(contactColumns))

	_, err := newSQLStore(t, db).FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLSearch verifies the generated WHERE clause and the escaping of LIKE wildcards.
func TestSQLSearch(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	query := "SELECT id, name, surname, age, role FROM contacts " +
		"WHERE LOWER(name) LIKE ? AND LOWER(surname) LIKE ? AND role = BINARY ? AND age = ?"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("%mar%", `%100\%%`, "dev", 30.0).
		WillReturnRows(mock.NewRows(contactColumns).AddRow("m1", "Maria", "100%", 30.0, "dev"))

	age := 30.0
	contacts, err := newSQLStore(t, db).Search(context.Background(), model.SearchFilter{
		Name:    "MAR",
		Surname: "100%",
		Role:    "dev",
		Age:     &age,
	})

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "m1", contacts[0].Id)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLSearchWithoutCriteria(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, surname, age, role FROM contacts")).
		WillReturnRows(mock.NewRows(contactColumns))

	contacts, err := newSQLStore(t, db).Search(context.Background(), model.SearchFilter{})

	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLInsert(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("a1", "Ana", "Ruiz", 28.0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name, surname, age := "Ana", "Ruiz", 28.0
	err := newSQLStore(t, db).Insert(context.Background(), model.Contact{
		Id:      "a1",
		Name:    &name,
		Surname: &surname,
		Age:     &age,
	})

	require.NoError(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLUpdatePartial verifies that only the supplied columns are written and the row is read back.
func TestSQLUpdatePartial(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET age=? WHERE id=?")).
		WithArgs(29.0, "a1").
		WillReturnResult(sqlmock.NewResult(-1, 1))
	expectSingleRowSelect(mock, "a1", "Ana", "Ruiz", 29, "dev")

	age := 29.0
	contact, err := newSQLStore(t, db).Update(context.Background(), "a1", model.ContactInput{Age: &age})

	require.NoError(t, err)
	assert.Equal(t, 29.0, *contact.Age)
	assert.Equal(t, "Ana", *contact.Name)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLUpdateNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET name=?, role=? WHERE id=?")).
		WithArgs("Rudi", "ops", "missing").
		WillReturnResult(sqlmock.NewResult(-1, 0))
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id = ?").
		WithArgs("missing").
		WillReturnRows(mock.NewRows(contactColumns))

	name, role := "Rudi", "ops"
	_, err := newSQLStore(t, db).Update(context.Background(), "missing", model.ContactInput{Name: &name, Role: &role})

	assert.ErrorIs(t, err, ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLDelete(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(-1, 1))
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(-1, 0))

	st := newSQLStore(t, db)
	assert.NoError(t, st.Delete(context.Background(), "a1"))
	assert.ErrorIs(t, st.Delete(context.Background(), "a1"), ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSQLStorageFailure(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WillReturnError(errors.New("connection reset"))

	_, err := newSQLStore(t, db).FindAll(context.Background())

	assert.EqualError(t, err, "connection reset")
	assert.NotErrorIs(t, err, ErrNotFound)
}
