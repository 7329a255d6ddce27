package domain

import "errors"

var (
	ErrAuthorizationFailed = errors.New("channel authorization failed")
	ErrTransportClosed     = errors.New("transport closed")
	ErrNotConnected        = errors.New("not connected")
	ErrSubscriptionFailed  = errors.New("channel subscription failed")
	ErrInvalidToken        = errors.New("invalid access token")
	ErrTokenExpired        = errors.New("access token expired")
)
