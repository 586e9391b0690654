package service

import "errors"

// Error kinds. Every service error wraps exactly one of these so transports can
// classify it with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrInvalidEventID     = newError(ErrInvalidArgument, "invalid event id")
	ErrInvalidStallID     = newError(ErrInvalidArgument, "invalid stall id")
	ErrInvalidBookingID   = newError(ErrInvalidArgument, "invalid booking id")
	ErrInvalidAmount      = newError(ErrInvalidArgument, "amount must not be negative")
	ErrInvalidRating      = newError(ErrInvalidArgument, "rating must be between 1 and 5")
	ErrInvalidStallFields = newError(ErrInvalidArgument, "name and tier are required, price and qtyTotal must not be negative")
	ErrStallEventMismatch = newError(ErrInvalidArgument, "stall does not belong to this event")

	ErrEventNotFound   = newError(ErrNotFound, "event not found")
	ErrStallNotFound   = newError(ErrNotFound, "stall not found")
	ErrBookingNotFound = newError(ErrNotFound, "booking not found")

	ErrNotBookingOwner   = newError(ErrForbidden, "booking belongs to another creator")
	ErrNotEventOrganizer = newError(ErrForbidden, "only the event organizer can manage its stalls")

	ErrSoldOut           = newError(ErrConflict, "stall is sold out")
	ErrAlreadyBooked     = newError(ErrConflict, "stall already booked by this creator")
	ErrAlreadyReviewed   = newError(ErrConflict, "booking already reviewed")
	ErrBookingCancelled  = newError(ErrConflict, "booking is cancelled")
	ErrCapacityBelowSold = newError(ErrConflict, "qtyTotal cannot be lower than the units already sold")
	ErrStallHasSales     = newError(ErrConflict, "stall has sold units and cannot be deleted")
	ErrStallHasBookings  = newError(ErrConflict, "stall has booking history and cannot be deleted")
)

// errInventoryMismatch means qty_left could not be restored on cancel; the stall
// row no longer agrees with the booking ledger.
var errInventoryMismatch = errors.New("stall capacity does not match bookings")
