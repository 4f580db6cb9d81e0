package repository

import "errors"

// Policy outcomes reported by guarded mutations. They are distinct from infrastructure
// failures, which are returned wrapped with context.
var (
	ErrInsufficientStock           = errors.New("insufficient medication stock")
	ErrQuantityExceedsPrescription = errors.New("quantity exceeds remaining prescribed amount")
	ErrSlotTaken                   = errors.New("slot already booked")
	ErrStatusTransition            = errors.New("appointment is no longer scheduled")
	ErrEmailTaken                  = errors.New("email already registered")
)

const activeSlotConstraint = "appointments_active_slot_key"

func clampPage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}
