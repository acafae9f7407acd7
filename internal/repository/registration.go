package repository

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound     = dao.ErrRegistrationNotFound
	ErrRegistrationExists       = dao.ErrRegistrationExists
	ErrCapacityExceeded         = dao.ErrCapacityExceeded
	ErrEventNotOpen             = dao.ErrEventNotOpen
	ErrRegistrationStateChanged = dao.ErrRegistrationStateChanged
)

type RegistrationDAO interface {
	Register(ctx context.Context, eventID, volunteerID uint) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByEventAndVolunteer(ctx context.Context, eventID, volunteerID uint) (dao.Registration, error)
	ListByVolunteer(ctx context.Context, volunteerID uint) ([]dao.Registration, error)
	ListByEvent(ctx context.Context, eventID uint) ([]dao.Registration, error)
	HasParticipant(ctx context.Context, eventID, userID uint) (bool, error)
	DeletePending(ctx context.Context, id uint) error
	Transition(ctx context.Context, id uint, conditions, values map[string]any) (dao.Registration, error)
	Complete(ctx context.Context, id uint, bonus int) (dao.Registration, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type RegistrationRepository struct {
	dao   RegistrationDAO
	users *UserRepository
	evts  *EventRepository
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao:   dao,
		users: &UserRepository{},
		evts:  &EventRepository{},
	}
}

func (r *RegistrationRepository) Register(ctx context.Context, eventID, volunteerID uint) (domain.Registration, error) {
	created, err := r.dao.Register(ctx, eventID, volunteerID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Register -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByEventAndVolunteer(ctx context.Context, eventID, volunteerID uint) (domain.Registration, error) {
	found, err := r.dao.FindByEventAndVolunteer(ctx, eventID, volunteerID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByEventAndVolunteer -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) ListByVolunteer(ctx context.Context, volunteerID uint) ([]domain.Registration, error) {
	found, err := r.dao.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByVolunteer -> %w", err)
	}

	return r.listToDomain(found), nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	found, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	return r.listToDomain(found), nil
}

func (r *RegistrationRepository) HasParticipant(ctx context.Context, eventID, userID uint) (bool, error) {
	ok, err := r.dao.HasParticipant(ctx, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("r.dao.HasParticipant -> %w", err)
	}

	return ok, nil
}

func (r *RegistrationRepository) DeletePending(ctx context.Context, id uint) error {
	if err := r.dao.DeletePending(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeletePending -> %w", err)
	}

	return nil
}

// SetStatus moves a registration from one status to another.
func (r *RegistrationRepository) SetStatus(ctx context.Context, id uint, from, to domain.RegistrationStatus) (domain.Registration, error) {
	return r.transition(ctx, id,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(to)},
	)
}

// Complete marks an approved registration completed unless a cancellation is
// pending. The volunteer bonus is paid when the event has not completed yet.
func (r *RegistrationRepository) Complete(ctx context.Context, id uint) (domain.Registration, error) {
	reg, err := r.dao.Complete(ctx, id, domain.VolunteerCompletionBonus)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Complete -> %w", err)
	}

	return r.daoToDomain(reg), nil
}

func (r *RegistrationRepository) RequestCancel(ctx context.Context, id uint) (domain.Registration, error) {
	return r.transition(ctx, id,
		map[string]any{"status": string(domain.RegistrationStatusApproved), "cancel_request": false},
		map[string]any{"cancel_request": true},
	)
}

// ResolveCancel settles a pending cancellation. Approving cancels the
// registration, rejecting keeps it approved. Both clear the flag.
func (r *RegistrationRepository) ResolveCancel(ctx context.Context, id uint, approve bool) (domain.Registration, error) {
	values := map[string]any{"cancel_request": false}
	if approve {
		values["status"] = string(domain.RegistrationStatusCancelled)
	}

	return r.transition(ctx, id,
		map[string]any{"status": string(domain.RegistrationStatusApproved), "cancel_request": true},
		values,
	)
}

func (r *RegistrationRepository) CountByStatus(ctx context.Context) (map[domain.RegistrationStatus]int64, error) {
	counts, err := r.dao.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	byStatus := make(map[domain.RegistrationStatus]int64, len(counts))
	for k, v := range counts {
		byStatus[domain.RegistrationStatus(k)] = v
	}

	return byStatus, nil
}

func (r *RegistrationRepository) transition(ctx context.Context, id uint, conditions, values map[string]any) (domain.Registration, error) {
	updated, err := r.dao.Transition(ctx, id, conditions, values)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Transition -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *RegistrationRepository) listToDomain(regs []dao.Registration) []domain.Registration {
	out := make([]domain.Registration, len(regs))
	for i, reg := range regs {
		out[i] = r.daoToDomain(reg)
	}

	return out
}

func (r *RegistrationRepository) daoToDomain(reg dao.Registration) domain.Registration {
	out := domain.Registration{
		ID:            reg.ID,
		EventID:       reg.EventID,
		VolunteerID:   reg.VolunteerID,
		Status:        domain.RegistrationStatus(reg.Status),
		CancelRequest: reg.CancelRequest,
		CreatedAt:     reg.CreatedAt,
		UpdatedAt:     reg.UpdatedAt,
	}
	if reg.Event.ID != 0 {
		e := r.evts.daoToDomain(reg.Event)
		out.Event = &e
	}
	if reg.Volunteer.ID != 0 {
		u := r.users.daoToDomain(reg.Volunteer)
		out.Volunteer = &u
	}

	return out
}
