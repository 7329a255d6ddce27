package contracts

import "context"

// Grant is the signed authorization blob the push service expects inside
// a private-channel subscribe frame.
type Grant struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// ChannelAuthorizer proves the client's right to subscribe to a private
// channel. Implementations perform the out-of-band HTTP exchange; tests
// substitute a fake so connection logic runs without a real socket.
type ChannelAuthorizer interface {
	Authorize(ctx context.Context, socketID, channel string) (Grant, error)
}
