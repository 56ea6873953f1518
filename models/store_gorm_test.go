package models

import (
	"context"
	"errors"
	"os"
	"testing"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"mysql 1062", &mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"other mysql", &mysqlDriver.MySQLError{Number: 1146, Message: "Table doesn't exist"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := isDuplicateKeyError(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

// Runs against the database described by DB_* when INTEGRATION_TESTS is set.
func TestGormStoreIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("INTEGRATION_TESTS not set")
	}
	db, err := gorm.Open(mysql.Open(config.DatabaseDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := MigrateTable(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := NewGormStore(db)
	ctx := context.Background()

	input := validInput()
	input.InvoiceNumber = "IT-" + uuid.NewString()[:8]
	inv := input.ToInvoice()
	if err := store.InsertInvoice(ctx, inv); err != nil {
		t.Fatalf("insert: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteInvoice(ctx, inv.ID) })

	got, err := store.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Details) != 2 || got.Details[0].Title != "Design" {
		t.Fatalf("items not stored in order: %+v", got.Details)
	}
	if !got.Total.Equal(inv.Total) {
		t.Fatalf("expected total %s, got %s", inv.Total, got.Total)
	}

	dup := input.ToInvoice()
	err = store.InsertInvoice(ctx, dup)
	if _, ok := utils.IsValidationError(err); !ok {
		t.Fatalf("expected duplicate validation error, got %v", err)
	}

	got.Details = got.Details[:1]
	if err := store.SaveInvoice(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	reloaded, _ := store.GetInvoice(ctx, inv.ID)
	if len(reloaded.Details) != 1 {
		t.Fatalf("expected items to be replaced, got %d", len(reloaded.Details))
	}

	if err := store.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetInvoice(ctx, inv.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
