package contracts

import (
	"context"

	"huddle/internal/core/domain"
)

// CommunityAPI is the authoritative backend. The optimistic flows call the
// Toggle/Send operations as their confirm step; a returned error signals
// rollback of the local mutation.
type CommunityAPI interface {
	ToggleReaction(ctx context.Context, postID int64) error
	ToggleBookmark(ctx context.Context, postID int64) error
	SendMessage(ctx context.Context, threadID int64, clientMsgID, body string) (domain.Message, error)
	RecentThreads(ctx context.Context) ([]domain.Thread, error)
}
