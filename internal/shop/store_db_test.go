package shop

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	selectSnapshot = `SELECT doc FROM snapshots WHERE key = $1`
	upsertSnapshot = `INSERT INTO snapshots (key, doc) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc`
)

func newSnapshotsMock(t *testing.T) (*PostgresSnapshots, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresSnapshots(db), mock
}

func TestPostgresSnapshots_LoadProducts(t *testing.T) {
	s, mock := newSnapshotsMock(t)

	doc, _ := json.Marshal([]Product{
		{ID: "p_1", Name: "Keyboard", PriceCents: 4990, Stock: 3, Image: "img"},
	})

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs("products").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(doc))

	got, err := s.LoadProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadProducts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p_1" || got[0].Stock != 3 {
		t.Fatalf("products=%+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSnapshots_AbsentRecordLoadsEmpty(t *testing.T) {
	s, mock := newSnapshotsMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs("cart").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	got, err := s.LoadCart(context.Background())
	if err != nil {
		t.Fatalf("LoadCart: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("cart=%+v want empty", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSnapshots_UnparsableRecordLoadsEmpty(t *testing.T) {
	s, mock := newSnapshotsMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs("products").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte("{not json")))

	got, err := s.LoadProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadProducts: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("products=%+v want empty", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSnapshots_SaveCartRewritesRecord(t *testing.T) {
	s, mock := newSnapshotsMock(t)

	items := []CartItem{
		{ProductID: "p_1", Name: "Keyboard", PriceCents: 4990, Image: "img", Quantity: 2},
	}
	doc, _ := json.Marshal(items)

	mock.ExpectExec(regexp.QuoteMeta(upsertSnapshot)).
		WithArgs("cart", doc).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SaveCart(context.Background(), items); err != nil {
		t.Fatalf("SaveCart: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
