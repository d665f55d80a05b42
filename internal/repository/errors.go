package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrListingSold     = errors.New("listing already sold")
	ErrOfferNotPending = errors.New("offer is not in pending status")
	ErrNotSeller       = errors.New("not the listing seller")
	ErrConflict        = errors.New("concurrent update conflict")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
