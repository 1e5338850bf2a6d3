package auth

import "errors"

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrFieldsRequired     = errors.New("all fields are required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrDeliveryFailed     = errors.New("failed to deliver OTP email")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrSessionNotFound    = errors.New("session not found")
)
