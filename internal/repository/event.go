package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

var (
	ErrEventNotFound       = dao.ErrEventNotFound
	ErrEventNotPending     = dao.ErrEventNotPending
	ErrEventNotCompletable = dao.ErrEventNotCompletable
	ErrInvalidEventAction  = dao.ErrInvalidEventAction
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	List(ctx context.Context, status string, creatorID uint) ([]dao.Event, error)
	UpdatePending(ctx context.Context, event dao.Event) (dao.Event, error)
	Review(ctx context.Context, id uint, status string) (dao.Event, error)
	Complete(ctx context.Context, id uint, now time.Time, creatorBonus, volunteerBonus int) (dao.Completion, error)
	FindDue(ctx context.Context, now time.Time) ([]uint, error)
	Delete(ctx context.Context, id uint) (dao.Event, error)
	ParticipantCounts(ctx context.Context, ids []uint) (map[uint]int, error)
	RecordAction(ctx context.Context, eventID, userID uint, actionType string) (dao.EventCounters, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	event := r.daoToDomain(found)
	if err = r.fillParticipants(ctx, []*domain.Event{&event}); err != nil {
		return domain.Event{}, err
	}

	return event, nil
}

func (r *EventRepository) List(ctx context.Context, status domain.EventStatus, creatorID uint) ([]domain.Event, error) {
	found, err := r.dao.List(ctx, string(status), creatorID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.Event, len(found))
	refs := make([]*domain.Event, len(found))
	for i, e := range found {
		events[i] = r.daoToDomain(e)
		refs[i] = &events[i]
	}
	if err = r.fillParticipants(ctx, refs); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepository) UpdatePending(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.UpdatePending(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.UpdatePending -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) Review(ctx context.Context, id uint, status domain.EventStatus) (domain.Event, error) {
	reviewed, err := r.dao.Review(ctx, id, string(status))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Review -> %w", err)
	}

	return r.daoToDomain(reviewed), nil
}

func (r *EventRepository) Complete(ctx context.Context, id uint, now time.Time) (domain.CompletionResult, error) {
	c, err := r.dao.Complete(ctx, id, now.UTC(), domain.ManagerCompletionBonus, domain.VolunteerCompletionBonus)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("r.dao.Complete -> %w", err)
	}

	return domain.CompletionResult{
		EventID:        c.EventID,
		CreatorID:      c.CreatorID,
		CreatorBonus:   domain.ManagerCompletionBonus,
		VolunteerIDs:   c.VolunteerIDs,
		VolunteerBonus: domain.VolunteerCompletionBonus,
	}, nil
}

func (r *EventRepository) FindDue(ctx context.Context, now time.Time) ([]uint, error) {
	ids, err := r.dao.FindDue(ctx, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindDue -> %w", err)
	}

	return ids, nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) (domain.Event, error) {
	deleted, err := r.dao.Delete(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return r.daoToDomain(deleted), nil
}

func (r *EventRepository) RecordAction(ctx context.Context, eventID, userID uint, action domain.EventActionType) (domain.EventCounters, error) {
	c, err := r.dao.RecordAction(ctx, eventID, userID, string(action))
	if err != nil {
		return domain.EventCounters{}, fmt.Errorf("r.dao.RecordAction -> %w", err)
	}

	return domain.EventCounters{
		EventID: c.EventID,
		Likes:   c.Likes,
		Shares:  c.Shares,
		Views:   c.Views,
		Liked:   c.Liked,
	}, nil
}

func (r *EventRepository) CountByStatus(ctx context.Context) (map[domain.EventStatus]int64, error) {
	counts, err := r.dao.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	byStatus := make(map[domain.EventStatus]int64, len(counts))
	for k, v := range counts {
		byStatus[domain.EventStatus(k)] = v
	}

	return byStatus, nil
}

func (r *EventRepository) fillParticipants(ctx context.Context, events []*domain.Event) error {
	ids := make([]uint, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	counts, err := r.dao.ParticipantCounts(ctx, ids)
	if err != nil {
		return fmt.Errorf("r.dao.ParticipantCounts -> %w", err)
	}
	for _, e := range events {
		e.ParticipantCount = counts[e.ID]
	}

	return nil
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Date:            e.Date.UTC(),
		EndDate:         e.EndDate.UTC(),
		Location:        e.Location,
		Category:        e.Category,
		Points:          e.Points,
		CoverImage:      e.CoverImage,
		Images:          e.Images,
		Status:          string(e.Status),
		CreatorID:       e.CreatorID,
		MaxParticipants: e.MaxParticipants,
		Likes:           e.Likes,
		Shares:          e.Shares,
		Views:           e.Views,
		CompletedAt:     e.CompletedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	images := e.Images
	if images == nil {
		images = []string{}
	}

	return domain.Event{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Date:            e.Date,
		EndDate:         e.EndDate,
		Location:        e.Location,
		Category:        e.Category,
		Points:          e.Points,
		CoverImage:      e.CoverImage,
		Images:          images,
		Status:          domain.EventStatus(e.Status),
		CreatorID:       e.CreatorID,
		MaxParticipants: e.MaxParticipants,
		Likes:           e.Likes,
		Shares:          e.Shares,
		Views:           e.Views,
		CompletedAt:     e.CompletedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
