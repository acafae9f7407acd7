package service

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

type UserCounter interface {
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
}

type EventCounter interface {
	CountByStatus(ctx context.Context) (map[domain.EventStatus]int64, error)
}

type RegistrationCounter interface {
	CountByStatus(ctx context.Context) (map[domain.RegistrationStatus]int64, error)
}

type StatsService struct {
	users  UserCounter
	events EventCounter
	regs   RegistrationCounter
}

func NewStatsService(users UserCounter, events EventCounter, regs RegistrationCounter) *StatsService {
	return &StatsService{
		users:  users,
		events: events,
		regs:   regs,
	}
}

func (s *StatsService) Get(ctx context.Context) (domain.Stats, error) {
	users, err := s.users.CountByRole(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("s.users.CountByRole -> %w", err)
	}

	events, err := s.events.CountByStatus(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("s.events.CountByStatus -> %w", err)
	}

	regs, err := s.regs.CountByStatus(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("s.regs.CountByStatus -> %w", err)
	}

	return domain.Stats{
		UsersByRole:           users,
		EventsByStatus:        events,
		RegistrationsByStatus: regs,
	}, nil
}
