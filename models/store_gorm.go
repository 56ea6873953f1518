package models

import (
	"context"
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/invoice_backend/utils"
	"gorm.io/gorm"
)

// GormStore is the MySQL-backed InvoiceStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC, id ASC")
	})
}

func (s *GormStore) ListInvoices(ctx context.Context) ([]*Invoice, error) {
	var invoices []*Invoice
	err := preloadDetails(s.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *GormStore) GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	var inv Invoice
	err := preloadDetails(s.db.WithContext(ctx)).First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (s *GormStore) InvoiceNumberTaken(ctx context.Context, number string, exceptId int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Invoice{}).
		Where("invoice_number = ? AND id <> ?", number, exceptId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) InsertInvoice(ctx context.Context, inv *Invoice) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(inv).Error
	})
	if isDuplicateKeyError(err) {
		return duplicateInvoiceNumberError()
	}
	return err
}

// SaveInvoice replaces the invoice row and all of its items.
func (s *GormStore) SaveInvoice(ctx context.Context, inv *Invoice) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Invoice
		if err := tx.Select("id", "created_at").First(&existing, inv.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		inv.CreatedAt = existing.CreatedAt

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Details").Save(inv).Error; err != nil {
			return err
		}
		for i := range inv.Details {
			inv.Details[i].ID = 0
			inv.Details[i].InvoiceId = inv.ID
			inv.Details[i].Position = i
		}
		if len(inv.Details) > 0 {
			if err := tx.Create(&inv.Details).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if isDuplicateKeyError(err) {
		return duplicateInvoiceNumberError()
	}
	return err
}

func (s *GormStore) DeleteInvoice(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Invoice{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrorRecordNotFound
		}
		return nil
	})
}

func (s *GormStore) ListTemplates(ctx context.Context) ([]*InvoiceTemplate, error) {
	var templates []*InvoiceTemplate
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *GormStore) GetTemplate(ctx context.Context, id int) (*InvoiceTemplate, error) {
	var tpl InvoiceTemplate
	if err := s.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (s *GormStore) InsertTemplate(ctx context.Context, tpl *InvoiceTemplate) error {
	return s.db.WithContext(ctx).Create(tpl).Error
}

func (s *GormStore) DeleteTemplate(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&InvoiceTemplate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
