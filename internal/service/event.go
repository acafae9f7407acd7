package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/storage"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
)

var (
	ErrEventNotFound         = repository.ErrEventNotFound
	ErrEventNotPending       = repository.ErrEventNotPending
	ErrInvalidEventAction    = repository.ErrInvalidEventAction
	ErrEventAlreadyCompleted = errors.New("event already completed")
	ErrEventNotApproved      = errors.New("event is not approved")
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	List(ctx context.Context, status domain.EventStatus, creatorID uint) ([]domain.Event, error)
	UpdatePending(ctx context.Context, event domain.Event) (domain.Event, error)
	Review(ctx context.Context, id uint, status domain.EventStatus) (domain.Event, error)
	Complete(ctx context.Context, id uint, now time.Time) (domain.CompletionResult, error)
	FindDue(ctx context.Context, now time.Time) ([]uint, error)
	Delete(ctx context.Context, id uint) (domain.Event, error)
	RecordAction(ctx context.Context, eventID, userID uint, action domain.EventActionType) (domain.EventCounters, error)
}

// EventInput carries the editable fields of an event. Image refs are already
// staged in storage by the caller.
type EventInput struct {
	Name            string
	Description     string
	Date            time.Time
	EndDate         time.Time
	Location        string
	Category        string
	MaxParticipants *int
	CoverImage      string
	Images          []string
}

func (in EventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(3, 200)),
		validation.Field(&in.Description, validation.Required, validation.RuneLength(10, 5000)),
		validation.Field(&in.Date, validation.Required),
		validation.Field(&in.EndDate, validation.Required, validation.By(func(any) error {
			if !in.EndDate.After(in.Date) {
				return errors.New("must be after the start date")
			}
			return nil
		})),
		validation.Field(&in.Location, validation.Required),
		validation.Field(&in.Category, validation.Required),
		validation.Field(&in.MaxParticipants, validation.By(func(any) error {
			if in.MaxParticipants != nil && *in.MaxParticipants <= 0 {
				return errors.New("must be a positive integer")
			}
			return nil
		})),
	)
}

func (in EventInput) staged() []string {
	refs := make([]string, 0, len(in.Images)+1)
	if in.CoverImage != "" {
		refs = append(refs, in.CoverImage)
	}
	return append(refs, in.Images...)
}

type EventService struct {
	repo     EventRepository
	store    storage.Storage
	notifier Notifier
	now      func() time.Time
}

func NewEventService(repo EventRepository, store storage.Storage, notifier Notifier) *EventService {
	return &EventService{
		repo:     repo,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, caller domain.User, in EventInput) (event domain.Event, err error) {
	defer s.discardOnError(ctx, in.staged(), &err)

	if !caller.Role.CanManageEvents() {
		return domain.Event{}, ErrPermissionDenied
	}
	if err = in.Validate(); err != nil {
		return domain.Event{}, validationErr(err)
	}

	capacity := 0
	if in.MaxParticipants != nil {
		capacity = *in.MaxParticipants
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}

	event, err = s.repo.Create(ctx, domain.Event{
		Name:            in.Name,
		Description:     in.Description,
		Date:            in.Date,
		EndDate:         in.EndDate,
		Location:        in.Location,
		Category:        in.Category,
		Points:          domain.CategoryPoints(in.Category),
		CoverImage:      in.CoverImage,
		Images:          images,
		Status:          domain.EventStatusPending,
		CreatorID:       caller.ID,
		MaxParticipants: capacity,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return event, nil
}

// UpdateEvent edits a pending event. The text fields and the capacity are
// replaced as given, so a nil capacity makes the event unlimited. A new cover
// or a new gallery replaces the stored one; the replaced assets are removed
// once the update persisted.
func (s *EventService) UpdateEvent(ctx context.Context, caller domain.User, id uint, in EventInput) (event domain.Event, err error) {
	defer s.discardOnError(ctx, in.staged(), &err)

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if current.CreatorID != caller.ID {
		return domain.Event{}, ErrPermissionDenied
	}
	if current.Status != domain.EventStatusPending {
		return domain.Event{}, ErrEventNotPending
	}
	if err = in.Validate(); err != nil {
		return domain.Event{}, validationErr(err)
	}

	next := current
	next.Name = in.Name
	next.Description = in.Description
	next.Date = in.Date
	next.EndDate = in.EndDate
	next.Location = in.Location
	next.Category = in.Category
	next.Points = domain.CategoryPoints(in.Category)
	next.MaxParticipants = 0
	if in.MaxParticipants != nil {
		next.MaxParticipants = *in.MaxParticipants
	}

	var replaced []string
	if in.CoverImage != "" {
		if current.CoverImage != "" {
			replaced = append(replaced, current.CoverImage)
		}
		next.CoverImage = in.CoverImage
	}
	if len(in.Images) > 0 {
		replaced = append(replaced, current.Images...)
		next.Images = in.Images
	}

	event, err = s.repo.UpdatePending(ctx, next)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.UpdatePending -> %w", err)
	}
	event.ParticipantCount = current.ParticipantCount

	s.removeAssets(ctx, event.ID, replaced)

	return event, nil
}

func (s *EventService) ApproveEvent(ctx context.Context, caller domain.User, id uint) (domain.Event, error) {
	return s.review(ctx, caller, id, domain.EventStatusApproved)
}

func (s *EventService) RejectEvent(ctx context.Context, caller domain.User, id uint) (domain.Event, error) {
	return s.review(ctx, caller, id, domain.EventStatusRejected)
}

func (s *EventService) review(ctx context.Context, caller domain.User, id uint, status domain.EventStatus) (domain.Event, error) {
	if caller.Role != domain.RoleAdmin {
		return domain.Event{}, ErrPermissionDenied
	}

	event, err := s.repo.Review(ctx, id, status)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Review -> %w", err)
	}

	typ, verb := domain.NotificationEventApproved, "approved"
	if status == domain.EventStatusRejected {
		typ, verb = domain.NotificationEventRejected, "rejected"
	}
	s.notifier.Notify(event.CreatorID, typ, fmt.Sprintf("Your event %q was %s", event.Name, verb))

	return event, nil
}

// CompleteEvent lets the creator close an approved event and pay out points.
func (s *EventService) CompleteEvent(ctx context.Context, caller domain.User, id uint) (domain.CompletionResult, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if event.CreatorID != caller.ID {
		return domain.CompletionResult{}, ErrPermissionDenied
	}

	switch event.Status {
	case domain.EventStatusApproved:
	case domain.EventStatusCompleted:
		return domain.CompletionResult{}, ErrEventAlreadyCompleted
	default:
		return domain.CompletionResult{}, ErrEventNotApproved
	}

	res, err := s.repo.Complete(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrEventNotCompletable) {
			return domain.CompletionResult{}, ErrEventAlreadyCompleted
		}
		return domain.CompletionResult{}, fmt.Errorf("s.repo.Complete -> %w", err)
	}

	s.notifyCompleted(event, res)

	return res, nil
}

// CompleteDue completes every approved event whose end date has passed and
// returns how many were completed by this call.
func (s *EventService) CompleteDue(ctx context.Context) (int, error) {
	now := s.now()

	ids, err := s.repo.FindDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindDue -> %w", err)
	}

	completed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}

		res, err := s.repo.Complete(ctx, id, now)
		if err != nil {
			if !errors.Is(err, repository.ErrEventNotCompletable) {
				zap.L().Error("failed to complete event", zap.Uint("event_id", id), zap.Error(err))
			}
			continue
		}

		event, err := s.repo.FindByID(ctx, id)
		if err != nil {
			zap.L().Warn("completed event vanished", zap.Uint("event_id", id), zap.Error(err))
			event = domain.Event{ID: id}
		}
		s.notifyCompleted(event, res)
		completed++
	}

	return completed, nil
}

func (s *EventService) notifyCompleted(event domain.Event, res domain.CompletionResult) {
	msg := fmt.Sprintf("Event %q is completed, you earned %d points", event.Name, res.VolunteerBonus)
	for _, uid := range res.VolunteerIDs {
		s.notifier.Notify(uid, domain.NotificationEventCompleted, msg)
	}
}

func (s *EventService) DeleteEvent(ctx context.Context, caller domain.User, id uint) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !isManagerOf(caller, event) {
		return ErrPermissionDenied
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	s.removeAssets(ctx, id, deleted.Assets())

	return nil
}

func (s *EventService) ListPublicEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.List(ctx, domain.EventStatusApproved, 0)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return events, nil
}

func (s *EventService) GetPublicEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if event.Status != domain.EventStatusApproved {
		return domain.Event{}, ErrEventNotFound
	}

	return event, nil
}

func (s *EventService) ListManagedEvents(ctx context.Context, caller domain.User) ([]domain.Event, error) {
	if !caller.Role.CanManageEvents() {
		return nil, ErrPermissionDenied
	}

	events, err := s.repo.List(ctx, "", caller.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return events, nil
}

// ListEvents is the admin view over every event, optionally filtered by status.
func (s *EventService) ListEvents(ctx context.Context, caller domain.User, status domain.EventStatus) ([]domain.Event, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, ErrPermissionDenied
	}

	events, err := s.repo.List(ctx, status, 0)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, caller domain.User, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !isManagerOf(caller, event) {
		return domain.Event{}, ErrPermissionDenied
	}

	return event, nil
}

func (s *EventService) LikeEvent(ctx context.Context, caller domain.User, id uint) (domain.EventCounters, error) {
	return s.act(ctx, caller, id, domain.EventActionLike)
}

func (s *EventService) ShareEvent(ctx context.Context, caller domain.User, id uint) (domain.EventCounters, error) {
	return s.act(ctx, caller, id, domain.EventActionShare)
}

func (s *EventService) ViewEvent(ctx context.Context, caller domain.User, id uint) (domain.EventCounters, error) {
	return s.act(ctx, caller, id, domain.EventActionView)
}

func (s *EventService) act(ctx context.Context, caller domain.User, id uint, action domain.EventActionType) (domain.EventCounters, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.EventCounters{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if event.Status != domain.EventStatusApproved && event.Status != domain.EventStatusCompleted {
		return domain.EventCounters{}, ErrEventNotFound
	}

	counters, err := s.repo.RecordAction(ctx, id, caller.ID, action)
	if err != nil {
		return domain.EventCounters{}, fmt.Errorf("s.repo.RecordAction -> %w", err)
	}

	return counters, nil
}

func (s *EventService) discardOnError(ctx context.Context, staged []string, err *error) {
	if *err == nil || len(staged) == 0 {
		return
	}

	s.removeAssets(ctx, 0, staged)
}

func (s *EventService) removeAssets(ctx context.Context, eventID uint, refs []string) {
	if s.store == nil || len(refs) == 0 {
		return
	}

	for ref, err := range storage.RemoveAll(context.WithoutCancel(ctx), s.store, refs) {
		zap.L().Warn("failed to remove event asset",
			zap.Uint("event_id", eventID), zap.String("ref", ref), zap.Error(err))
	}
}
