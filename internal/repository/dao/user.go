package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Name   string `gorm:"not null"`
	Phone  string
	Avatar string
	Role   string `gorm:"not null;index"`
	Status string `gorm:"not null;default:ACTIVE"`
	Points int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// List returns users ordered by id. An empty role lists every user.
func (d *UserDAO) List(ctx context.Context, role string) ([]User, error) {
	var users []User

	q := d.db.WithContext(ctx).Order("id")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if result := q.Find(&users); result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (d *UserDAO) UpdateProfile(ctx context.Context, id uint, name, phone, avatar string) (User, error) {
	values := map[string]any{
		"name":  name,
		"phone": phone,
	}
	if avatar != "" {
		values["avatar"] = avatar
	}

	if err := d.update(d.db.WithContext(ctx).Where("id = ?", id), values); err != nil {
		return User{}, err
	}

	return d.FindByID(ctx, id)
}

func (d *UserDAO) UpdatePassword(ctx context.Context, email, hash string) error {
	return d.update(d.db.WithContext(ctx).Where("email = ?", email), map[string]any{"password": hash})
}

func (d *UserDAO) UpdateRole(ctx context.Context, id uint, role string) (User, error) {
	if err := d.update(d.db.WithContext(ctx).Where("id = ?", id), map[string]any{"role": role}); err != nil {
		return User{}, err
	}

	return d.FindByID(ctx, id)
}

func (d *UserDAO) UpdateStatus(ctx context.Context, id uint, status string) (User, error) {
	if err := d.update(d.db.WithContext(ctx).Where("id = ?", id), map[string]any{"status": status}); err != nil {
		return User{}, err
	}

	return d.FindByID(ctx, id)
}

func (d *UserDAO) CountByRole(ctx context.Context) (map[string]int64, error) {
	return countBy(d.db.WithContext(ctx), &User{}, "role")
}

func (d *UserDAO) update(q *gorm.DB, values map[string]any) error {
	result := q.Model(&User{}).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
