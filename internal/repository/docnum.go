package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// nextDocumentNo produces the next sequential document number of the form
// <prefix>-YYYYMMDD-NNNNN. An advisory transaction lock on the day prefix
// prevents two concurrent transactions from counting the same sequence.
func nextDocumentNo(ctx context.Context, db *gorm.DB, tableModel interface{}, column, prefix string) (string, error) {
	tx := GetDB(ctx, db)

	today := time.Now().Format("20060102")
	full := prefix + "-" + today + "-"

	tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", full)

	var count int64
	if err := tx.Model(tableModel).
		Where(column+" LIKE ?", full+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", full, count+1), nil
}
