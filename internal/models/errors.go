package models

import "errors"

// Domain rejections from the shipment service. Anything else coming back
// from a submission is a transport failure.
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrDeviceInactive  = errors.New("device is inactive")
	ErrUserNotFound    = errors.New("user not found")
	ErrDeviceNotFound  = errors.New("device not found")
)

// IsDomainError reports whether err is a rejection by the service itself
// rather than a transport failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrDeviceInactive) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDeviceNotFound)
}
