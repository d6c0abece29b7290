package ledger

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ea-systems/ledger/pkg/envelope"
)

func TestSQLStorage_Init(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error opening a stub database connection: %s", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(sqlStorageSchema)).WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewSQLStorage(context.Background(), db)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestSQLStorage_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error opening a stub database connection: %s", err)
	}
	defer func() { _ = db.Close() }()

	env := &envelope.Envelope{
		Header: envelope.Header{Channel: "telemetry", BodyHash: "deadbeef", Timestamp: 42},
	}

	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs("telemetry", "", "deadbeef", uint64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := NewSQLStorage(context.Background(), db)
	if err := s.Append(env); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestSQLStorage_Len(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error opening a stub database connection: %s", err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(rows)

	s := NewSQLStorage(context.Background(), db)
	if got, want := s.Len(), 3; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestSQLStorage_ReadRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error opening a stub database connection: %s", err)
	}
	defer func() { _ = db.Close() }()

	env := &envelope.Envelope{Header: envelope.Header{Channel: "telemetry", BodyHash: "deadbeef", Timestamp: 1}}
	blob, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}

	rows := sqlmock.NewRows([]string{"envelope_json"}).AddRow(string(blob))
	mock.ExpectQuery("SELECT envelope_json FROM ledger_entries").
		WithArgs(10, 0).
		WillReturnRows(rows)

	s := NewSQLStorage(context.Background(), db)
	got, err := s.ReadRange(0, 10)
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	if len(got) != 1 || got[0].Header.Channel != "telemetry" {
		t.Fatalf("ReadRange() = %+v, want one telemetry envelope", got)
	}
}
