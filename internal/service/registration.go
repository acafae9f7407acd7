package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
)

var (
	ErrRegistrationNotFound       = repository.ErrRegistrationNotFound
	ErrRegistrationExists         = repository.ErrRegistrationExists
	ErrCapacityExceeded           = repository.ErrCapacityExceeded
	ErrEventNotOpen               = repository.ErrEventNotOpen
	ErrRegistrationNotPending     = errors.New("registration is not pending")
	ErrRegistrationNotCompletable = errors.New("registration cannot be completed")
	ErrRegistrationNotCancellable = errors.New("registration cannot be cancelled")
	ErrCancelAlreadyRequested     = errors.New("cancellation already requested")
	ErrNoCancelRequest            = errors.New("no pending cancellation request")
	ErrInvalidRegistrationStatus  = errors.New("status must be approved or rejected")
)

type RegistrationRepository interface {
	Register(ctx context.Context, eventID, volunteerID uint) (domain.Registration, error)
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByEventAndVolunteer(ctx context.Context, eventID, volunteerID uint) (domain.Registration, error)
	ListByVolunteer(ctx context.Context, volunteerID uint) ([]domain.Registration, error)
	ListByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error)
	DeletePending(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, id uint, from, to domain.RegistrationStatus) (domain.Registration, error)
	Complete(ctx context.Context, id uint) (domain.Registration, error)
	RequestCancel(ctx context.Context, id uint) (domain.Registration, error)
	ResolveCancel(ctx context.Context, id uint, approve bool) (domain.Registration, error)
}

type RegistrationEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type RegistrationService struct {
	repo     RegistrationRepository
	events   RegistrationEventRepository
	notifier Notifier
}

func NewRegistrationService(repo RegistrationRepository, events RegistrationEventRepository, notifier Notifier) *RegistrationService {
	return &RegistrationService{
		repo:     repo,
		events:   events,
		notifier: notifier,
	}
}

func (s *RegistrationService) Register(ctx context.Context, caller domain.User, eventID uint) (domain.Registration, error) {
	if caller.Role != domain.RoleVolunteer {
		return domain.Registration{}, ErrPermissionDenied
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if event.Status != domain.EventStatusApproved {
		return domain.Registration{}, ErrEventNotOpen
	}

	reg, err := s.repo.Register(ctx, eventID, caller.ID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.Register -> %w", err)
	}

	s.notifier.Notify(event.CreatorID, domain.NotificationNewRegistration,
		fmt.Sprintf("%s registered for %q", caller.Name, event.Name))

	return reg, nil
}

// Cancel withdraws the caller's registration. Pending registrations are
// removed outright; approved ones only raise a cancellation request that
// the event manager has to resolve. The returned bool reports a removal.
func (s *RegistrationService) Cancel(ctx context.Context, caller domain.User, eventID uint) (domain.Registration, bool, error) {
	reg, err := s.repo.FindByEventAndVolunteer(ctx, eventID, caller.ID)
	if err != nil {
		return domain.Registration{}, false, fmt.Errorf("s.repo.FindByEventAndVolunteer -> %w", err)
	}

	switch reg.Status {
	case domain.RegistrationStatusPending:
		if err = s.repo.DeletePending(ctx, reg.ID); err != nil {
			if errors.Is(err, repository.ErrRegistrationStateChanged) {
				return domain.Registration{}, false, ErrRegistrationNotCancellable
			}
			return domain.Registration{}, false, fmt.Errorf("s.repo.DeletePending -> %w", err)
		}

		return reg, true, nil
	case domain.RegistrationStatusApproved:
		if reg.CancelRequest {
			return domain.Registration{}, false, ErrCancelAlreadyRequested
		}

		updated, err := s.repo.RequestCancel(ctx, reg.ID)
		if err != nil {
			if errors.Is(err, repository.ErrRegistrationStateChanged) {
				return domain.Registration{}, false, ErrCancelAlreadyRequested
			}
			return domain.Registration{}, false, fmt.Errorf("s.repo.RequestCancel -> %w", err)
		}

		if event, err := s.events.FindByID(ctx, eventID); err == nil {
			s.notifier.Notify(event.CreatorID, domain.NotificationCancelRequested,
				fmt.Sprintf("%s asked to cancel their registration for %q", caller.Name, event.Name))
		}

		return updated, false, nil
	default:
		return domain.Registration{}, false, ErrRegistrationNotCancellable
	}
}

// UpdateStatus approves or rejects a pending registration.
func (s *RegistrationService) UpdateStatus(ctx context.Context, caller domain.User, id uint, status domain.RegistrationStatus) (domain.Registration, error) {
	if status != domain.RegistrationStatusApproved && status != domain.RegistrationStatusRejected {
		return domain.Registration{}, validationErr(ErrInvalidRegistrationStatus)
	}

	reg, event, err := s.managed(ctx, caller, id)
	if err != nil {
		return domain.Registration{}, err
	}
	if reg.Status != domain.RegistrationStatusPending {
		return domain.Registration{}, ErrRegistrationNotPending
	}

	updated, err := s.repo.SetStatus(ctx, id, domain.RegistrationStatusPending, status)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationStateChanged) {
			return domain.Registration{}, ErrRegistrationNotPending
		}
		return domain.Registration{}, fmt.Errorf("s.repo.SetStatus -> %w", err)
	}

	typ, verb := domain.NotificationRegistrationApproved, "approved"
	if status == domain.RegistrationStatusRejected {
		typ, verb = domain.NotificationRegistrationRejected, "rejected"
	}
	s.notifier.Notify(reg.VolunteerID, typ, fmt.Sprintf("Your registration for %q was %s", event.Name, verb))

	return updated, nil
}

func (s *RegistrationService) Complete(ctx context.Context, caller domain.User, id uint) (domain.Registration, error) {
	reg, event, err := s.managed(ctx, caller, id)
	if err != nil {
		return domain.Registration{}, err
	}
	if reg.Status != domain.RegistrationStatusApproved || reg.CancelRequest {
		return domain.Registration{}, ErrRegistrationNotCompletable
	}

	updated, err := s.repo.Complete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationStateChanged) {
			return domain.Registration{}, ErrRegistrationNotCompletable
		}
		return domain.Registration{}, fmt.Errorf("s.repo.Complete -> %w", err)
	}

	s.notifier.Notify(reg.VolunteerID, domain.NotificationRegistrationCompleted,
		fmt.Sprintf("Your participation in %q was marked completed", event.Name))

	return updated, nil
}

// ResolveCancelRequest settles a volunteer's cancellation request. The
// registration must be approved and flagged.
func (s *RegistrationService) ResolveCancelRequest(ctx context.Context, caller domain.User, id uint, approve bool) (domain.Registration, error) {
	reg, event, err := s.managed(ctx, caller, id)
	if err != nil {
		return domain.Registration{}, err
	}
	if !reg.CancelRequest || reg.Status != domain.RegistrationStatusApproved {
		return domain.Registration{}, validationErr(ErrNoCancelRequest)
	}

	updated, err := s.repo.ResolveCancel(ctx, id, approve)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationStateChanged) {
			return domain.Registration{}, validationErr(ErrNoCancelRequest)
		}
		return domain.Registration{}, fmt.Errorf("s.repo.ResolveCancel -> %w", err)
	}

	typ, msg := domain.NotificationCancelRejected, fmt.Sprintf("Your cancellation for %q was declined", event.Name)
	if approve {
		typ, msg = domain.NotificationCancelApproved, fmt.Sprintf("Your cancellation for %q was accepted", event.Name)
	}
	s.notifier.Notify(reg.VolunteerID, typ, msg)

	return updated, nil
}

func (s *RegistrationService) ListMine(ctx context.Context, caller domain.User) ([]domain.Registration, error) {
	regs, err := s.repo.ListByVolunteer(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByVolunteer -> %w", err)
	}

	return regs, nil
}

func (s *RegistrationService) ListForEvent(ctx context.Context, caller domain.User, eventID uint) ([]domain.Registration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !isManagerOf(caller, event) {
		return nil, ErrPermissionDenied
	}

	regs, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	return regs, nil
}

// managed loads a registration and its event and checks that the caller
// manages the event.
func (s *RegistrationService) managed(ctx context.Context, caller domain.User, id uint) (domain.Registration, domain.Event, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	event, err := s.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.Registration{}, domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !isManagerOf(caller, event) {
		return domain.Registration{}, domain.Event{}, ErrPermissionDenied
	}

	return reg, event, nil
}
