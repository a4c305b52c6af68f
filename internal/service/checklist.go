package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/ordering"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// ChecklistService implements business logic for trip checklists. Check state
// is per user: toggling an item only affects the caller's own view.
type ChecklistService struct {
	trips  repo.TripRepo
	checks repo.ChecklistRepo
}

// NewChecklistService constructs a ChecklistService backed by the provided repos.
func NewChecklistService(trips repo.TripRepo, checks repo.ChecklistRepo) *ChecklistService {
	return &ChecklistService{trips: trips, checks: checks}
}

// Create adds a new checklist to a trip.
func (s *ChecklistService) Create(ctx context.Context, userID, tripID uuid.UUID, title string) (domain.Checklist, error) {
	if _, _, err := verifyMember(ctx, s.trips, tripID, userID); err != nil {
		return domain.Checklist{}, fmt.Errorf("service.ChecklistService.Create: %w", err)
	}
	if strings.TrimSpace(title) == "" {
		return domain.Checklist{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	cl, err := s.checks.Create(ctx, domain.Checklist{TripID: tripID, Title: title})
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("service.ChecklistService.Create: %w", err)
	}
	cl.Items = []domain.ChecklistItem{}
	return cl, nil
}

// List returns a trip's checklists with items and the caller's check state.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ChecklistService) List(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Checklist, error) {
	if _, _, err := verifyMember(ctx, s.trips, tripID, userID); err != nil {
		return nil, fmt.Errorf("service.ChecklistService.List: %w", err)
	}

	lists, err := s.checks.ListByTrip(ctx, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ChecklistService.List: %w", err)
	}
	if lists == nil {
		return []domain.Checklist{}, nil
	}
	return lists, nil
}

// AddItem appends an item to a checklist, positioned after existing items.
func (s *ChecklistService) AddItem(ctx context.Context, userID, checklistID uuid.UUID, text string) (domain.ChecklistItem, error) {
	cl, err := s.verifyChecklist(ctx, userID, checklistID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.AddItem: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ChecklistItem{}, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}

	siblings, err := s.checks.ListItems(ctx, cl.ID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.AddItem: %w", err)
	}

	item, err := s.checks.AddItem(ctx, domain.ChecklistItem{
		ChecklistID: cl.ID,
		Text:        text,
		SortOrder: ordering.NextPosition(lo.Map(siblings, func(it domain.ChecklistItem, _ int) int {
			return it.SortOrder
		})),
	})
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.AddItem: %w", err)
	}
	return item, nil
}

// ToggleItem flips the caller's check state for an item and returns the item
// with the new state.
func (s *ChecklistService) ToggleItem(ctx context.Context, userID, itemID uuid.UUID) (domain.ChecklistItem, error) {
	item, err := s.checks.GetItem(ctx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.ToggleItem: %w", err)
	}
	if _, err := s.verifyChecklist(ctx, userID, item.ChecklistID); err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.ToggleItem: %w", err)
	}

	checked, err := s.checks.GetChecked(ctx, itemID, userID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.ToggleItem: %w", err)
	}
	if err := s.checks.SetChecked(ctx, itemID, userID, !checked); err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.ChecklistService.ToggleItem: %w", err)
	}

	item.Checked = !checked
	return item, nil
}

// Reorder assigns positions 0..n-1 following orderedIDs, which must be a
// permutation of the checklist's current item set.
func (s *ChecklistService) Reorder(ctx context.Context, userID, checklistID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.ChecklistItem, error) {
	if _, err := s.verifyChecklist(ctx, userID, checklistID); err != nil {
		return nil, fmt.Errorf("service.ChecklistService.Reorder: %w", err)
	}

	current, err := s.checks.ListItems(ctx, checklistID)
	if err != nil {
		return nil, fmt.Errorf("service.ChecklistService.Reorder: %w", err)
	}

	positions, err := ordering.Apply(
		lo.Map(current, func(it domain.ChecklistItem, _ int) uuid.UUID { return it.ID }),
		orderedIDs,
	)
	if err != nil {
		return nil, err
	}

	if err := s.checks.UpdateItemPositions(ctx, positions); err != nil {
		return nil, fmt.Errorf("service.ChecklistService.Reorder: %w", err)
	}

	byID := lo.SliceToMap(current, func(it domain.ChecklistItem) (uuid.UUID, domain.ChecklistItem) { return it.ID, it })
	reordered := make([]domain.ChecklistItem, len(orderedIDs))
	for i, id := range orderedIDs {
		it := byID[id]
		it.SortOrder = i
		reordered[i] = it
	}
	return reordered, nil
}

// DeleteItem removes an item and everyone's check state for it.
func (s *ChecklistService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.checks.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("service.ChecklistService.DeleteItem: %w", err)
	}
	if _, err := s.verifyChecklist(ctx, userID, item.ChecklistID); err != nil {
		return fmt.Errorf("service.ChecklistService.DeleteItem: %w", err)
	}

	if err := s.checks.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("service.ChecklistService.DeleteItem: %w", err)
	}
	return nil
}

// verifyChecklist loads a checklist and checks the caller's trip membership.
func (s *ChecklistService) verifyChecklist(ctx context.Context, userID, checklistID uuid.UUID) (domain.Checklist, error) {
	cl, err := s.checks.GetByID(ctx, checklistID)
	if err != nil {
		return domain.Checklist{}, err
	}
	if _, _, err := verifyMember(ctx, s.trips, cl.TripID, userID); err != nil {
		return domain.Checklist{}, err
	}
	return cl, nil
}
