package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Otp{},
		&Event{},
		&EventAction{},
		&Registration{},
		&Notification{},
		&Subscription{},
		&Post{},
		&Comment{},
	)
}

// isUniqueViolation recognizes unique constraint failures from both the
// postgres and the sqlite drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

type groupCount struct {
	Bucket string
	Count  int64
}

func countBy(db *gorm.DB, model any, column string) (map[string]int64, error) {
	var rows []groupCount

	result := db.Model(model).
		Select(column + " AS bucket, COUNT(*) AS count").
		Group(column).
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Bucket] = r.Count
	}

	return counts, nil
}
