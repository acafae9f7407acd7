package dao_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

func seedUser(t *testing.T, db *gorm.DB, role domain.Role) dao.User {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&dao.User{}).Count(&count).Error)

	u, err := dao.NewUserDAO(db).Insert(context.Background(), dao.User{
		Email:    fmt.Sprintf("seed%d-%d@example.com", count, time.Now().UnixNano()),
		Password: "hash",
		Name:     "Seed",
		Role:     string(role),
	})
	require.NoError(t, err)

	return u
}

func seedEvent(t *testing.T, db *gorm.DB, creatorID uint, status domain.EventStatus, capacity int) dao.Event {
	t.Helper()

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	e, err := dao.NewEventDAO(db).Insert(context.Background(), dao.Event{
		Name:            "Food bank shift",
		Description:     "Sort and pack donations.",
		Date:            start,
		EndDate:         start.Add(2 * time.Hour),
		Location:        "Warehouse 4",
		Category:        domain.CategoryCommunity,
		Points:          domain.CategoryPoints(domain.CategoryCommunity),
		Images:          []string{},
		Status:          string(status),
		CreatorID:       creatorID,
		MaxParticipants: capacity,
	})
	require.NoError(t, err)

	return e
}

func seedRegistration(t *testing.T, db *gorm.DB, eventID, volunteerID uint, status domain.RegistrationStatus) dao.Registration {
	t.Helper()

	reg := dao.Registration{EventID: eventID, VolunteerID: volunteerID, Status: string(status)}
	require.NoError(t, db.Omit("Event", "Volunteer").Create(&reg).Error)

	return reg
}

func points(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()

	u, err := dao.NewUserDAO(db).FindByID(context.Background(), id)
	require.NoError(t, err)

	return u.Points
}
