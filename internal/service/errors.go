package service

import (
	"net/http"

	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// Sentinel errors surfaced by the services. They are DomainErrors so the
// HTTP layer renders them directly; compare with errors.Is.
var (
	ErrEmailAlreadyUsed   = apperrors.NewDomainError("EMAIL_ALREADY_USED", "email already registered", http.StatusConflict, nil)
	ErrInvalidCredentials = apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

	ErrCarNotFound       = apperrors.NewDomainError("CAR_NOT_FOUND", "car not found", http.StatusNotFound, nil)
	ErrLicensePlateInUse = apperrors.NewDomainError("LICENSE_PLATE_IN_USE", "license plate already registered", http.StatusBadRequest, nil)
	ErrCarParked         = apperrors.NewDomainError("CAR_PARKED", "car has an active parking session", http.StatusConflict, nil)

	ErrSpotNotFound    = apperrors.NewDomainError("SPOT_NOT_FOUND", "parking spot not found", http.StatusNotFound, nil)
	ErrSpotOccupied    = apperrors.NewDomainError("SPOT_OCCUPIED", "parking spot is occupied", http.StatusConflict, nil)
	ErrNoSpotAvailable = apperrors.NewDomainError("NO_SPOT_AVAILABLE", "no parking spot available", http.StatusConflict, nil)

	// A park request reports a missing car or spot as a conflict with the
	// request, like every other park failure.
	ErrParkCarNotFound  = apperrors.NewDomainError("CAR_NOT_FOUND", "car not found", http.StatusConflict, nil)
	ErrParkSpotNotFound = apperrors.NewDomainError("SPOT_NOT_FOUND", "parking spot not found", http.StatusConflict, nil)

	ErrCarAlreadyParked     = apperrors.NewDomainError("CAR_ALREADY_PARKED", "car is already parked", http.StatusConflict, nil)
	ErrSessionNotFound      = apperrors.NewDomainError("SESSION_NOT_FOUND", "parking session not found", http.StatusNotFound, nil)
	ErrSessionAlreadyClosed = apperrors.NewDomainError("SESSION_ALREADY_CLOSED", "parking session already closed", http.StatusConflict, nil)
)
