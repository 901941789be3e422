package settlement

import (
	"time"

	"bitcoin-standard-go/internal/models"
)

// LockedAmount sums the amounts of lots whose lock window has not expired.
// A lot contributes either all of its amount or none: there is no partial
// unlock.
func LockedAmount(lots []models.Lot, now time.Time) int64 {
	var locked int64
	for _, lot := range lots {
		if lot.LockedUntil.After(now) {
			locked += lot.Amount
		}
	}
	return locked
}

// AvailableAmount is the sellable part of a holding. If the locked sum
// exceeds the holding the result clamps to zero and drift is reported; that
// combination only occurs when holdings and lots have diverged and is a
// reconciliation signal, not a normal state.
func AvailableAmount(holdingAmount, lockedAmount int64) (available int64, drift bool) {
	if lockedAmount > holdingAmount {
		return 0, true
	}
	return holdingAmount - lockedAmount, false
}

// ClassifyLock maps a holding/locked pair onto the display status.
func ClassifyLock(holdingAmount, lockedAmount int64) models.LockStatus {
	switch {
	case lockedAmount == 0:
		return models.LockStatusUnlocked
	case lockedAmount >= holdingAmount:
		return models.LockStatusLocked
	default:
		return models.LockStatusPartial
	}
}
