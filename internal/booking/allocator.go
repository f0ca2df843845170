package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Allocator decides whether a (date, timeSlot, branch, serviceType) tuple
// may be reserved. Two allocation modes exist: branch-scoped for regular
// services, and global for Online Consultation, where the branch is ignored
// and the date must be a Saturday.
//
// The allocator is an early-rejection check only; the partial unique
// indexes in Postgres are the authoritative guard against races.
type Allocator struct {
	repo Repository
}

func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

// IsSlotFree reports whether the slot can be reserved. exclude skips one
// booking id from the conflict scan, so a reschedule never conflicts with
// the booking's own current slot; pass uuid.Nil otherwise.
func (a *Allocator) IsSlotFree(ctx context.Context, date time.Time, timeSlot string, branch Branch, serviceType string, exclude uuid.UUID) (bool, error) {
	// The placeholder never occupies a slot.
	if timeSlot == SlotUnscheduled {
		return true, nil
	}

	date = DateOnly(date)

	if IsOnlineService(serviceType) {
		if !IsSaturday(date) {
			return false, nil
		}
		n, err := a.repo.CountActiveOnlineForSlot(ctx, date, timeSlot, exclude)
		if err != nil {
			return false, fmt.Errorf("check online slot: %w", err)
		}
		return n == 0, nil
	}

	n, err := a.repo.CountActiveForSlot(ctx, date, timeSlot, branch, exclude)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return n == 0, nil
}

// ListAvailableSlots walks the canonical slot list in order and keeps the
// free ones. For the online service a non-Saturday date yields an empty
// list immediately.
func (a *Allocator) ListAvailableSlots(ctx context.Context, date time.Time, branch Branch, serviceType string, exclude uuid.UUID) ([]string, error) {
	date = DateOnly(date)

	if IsOnlineService(serviceType) && !IsSaturday(date) {
		return []string{}, nil
	}

	free := make([]string, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		ok, err := a.IsSlotFree(ctx, date, slot, branch, serviceType, exclude)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, slot)
		}
	}
	return free, nil
}
