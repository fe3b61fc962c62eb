package store

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
)

// likeEscaper escapes the wildcard characters of a MySQL LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQLStore keeps contacts in the MySQL table "contacts".
type SQLStore struct {
	db *sqlx.DB

	// insert is a prepared statement for creating a contact.
	insert *sqlx.NamedStmt

	// selectAll is a prepared statement for selecting all contacts.
	selectAll *sqlx.Stmt

	// selectWhereId is a prepared statement for selecting the contact with a given id.
	selectWhereId *sqlx.Stmt

	// deleteWhereId is a prepared statement for deleting the contact with a given id.
	deleteWhereId *sqlx.Stmt
}

// OpenSQL opens a MySQL connection pool for the given DSN, e.g.
// "dirk:secret@tcp(localhost:3306)/test".
func OpenSQL(dsn string) (*SQLStore, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	st, err := NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// NewSQLStore prepares all statements on the given database. The database can
// be a real one for production use or a mock database within unit tests.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	var err error
	st := &SQLStore{db: db}

	// Prepared statements offer a significant speed increase if executed many times.
	st.insert, err = db.PrepareNamed(`
		INSERT INTO contacts (id, name, surname, age, role)
		VALUES (:id, :name, :surname, :age, :role)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	st.selectAll, err = db.Preparex(`
		SELECT id, name, surname, age, role FROM contacts
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select: %w", err)
	}
	st.selectWhereId, err = db.Preparex(`
		SELECT id, name, surname, age, role FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	st.deleteWhereId, err = db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare delete: %w", err)
	}
	return st, nil
}

func (s *SQLStore) FindAll(ctx context.Context) ([]model.Contact, error) {
	contacts := make([]model.Contact, 0)
	if err := s.selectAll.SelectContext(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (model.Contact, error) {
	var contacts []model.Contact
	if err := s.selectWhereId.SelectContext(ctx, &contacts, id); err != nil {
		return model.Contact{}, err
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrNotFound
	}
	return contacts[0], nil
}

// Search filters in the database. LIKE patterns are lower-cased on both sides
// so the match does not depend on the column collation.
func (s *SQLStore) Search(ctx context.Context, filter model.SearchFilter) ([]model.Contact, error) {
	var where []string
	var args []interface{}
	if filter.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, containsPattern(filter.Name))
	}
	if filter.Surname != "" {
		where = append(where, "LOWER(surname) LIKE ?")
		args = append(args, containsPattern(filter.Surname))
	}
	if filter.Role != "" {
		where = append(where, "role = BINARY ?")
		args = append(args, filter.Role)
	}
	if filter.Age != nil {
		where = append(where, "age = ?")
		args = append(args, *filter.Age)
	}

	sql := "SELECT id, name, surname, age, role FROM contacts"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	contacts := make([]model.Contact, 0)
	if err := s.db.SelectContext(ctx, &contacts, sql, args...); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (s *SQLStore) Insert(ctx context.Context, contact model.Contact) error {
	_, err := s.insert.ExecContext(ctx, &contact)
	return err
}

// Update writes the supplied columns and reads the row back. MySQL reports
// zero affected rows when the values did not change, so existence is decided
// by the read.
func (s *SQLStore) Update(ctx context.Context, id string, changes model.ContactInput) (model.Contact, error) {
	var args []interface{}
	sql := "UPDATE contacts SET "
	if changes.Name != nil {
		args = append(args, changes.Name)
		sql += "name=?, "
	}
	if changes.Surname != nil {
		args = append(args, changes.Surname)
		sql += "surname=?, "
	}
	if changes.Age != nil {
		args = append(args, changes.Age)
		sql += "age=?, "
	}
	if changes.Role != nil {
		args = append(args, changes.Role)
		sql += "role=?, "
	}
	if len(args) > 0 {
		sql = sql[:len(sql)-2]
		sql += " WHERE id=?"
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, sql, args...); err != nil {
			return model.Contact{}, err
		}
	}
	return s.FindByID(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.deleteWhereId.ExecContext(ctx, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close(_ context.Context) error {
	return s.db.Close()
}

// containsPattern turns a search term into a lower-case LIKE pattern that
// matches the term anywhere in the column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
