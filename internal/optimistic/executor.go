package optimistic

import (
	"context"
	"errors"
)

// LikeResult is the server's view of a like after a toggle.
type LikeResult struct {
	Liked      bool
	LikesCount int64
}

// Executor performs the remote side of each mutation. Every call issues
// exactly one request and never retries. A nil LikeResult is a valid
// confirmation with no canonical data.
type Executor interface {
	TogglePostLike(ctx context.Context, postID string) (*LikeResult, error)
	ToggleCommentLike(ctx context.Context, commentID string) (*LikeResult, error)
	CreateComment(ctx context.Context, postID, content string, anonymous bool) (*Comment, error)
}

// Fetcher loads authoritative state for a full refresh.
type Fetcher interface {
	FetchPosts(ctx context.Context) ([]Post, error)
	FetchComments(ctx context.Context, postID string) ([]Comment, error)
}

// Rejection is implemented by errors that carry a server refusal with a
// user-facing reason (non-2xx with a structured payload).
type Rejection interface {
	error
	RejectReason() string
}

// OutcomeKind classifies how a network call ended.
type OutcomeKind int

const (
	Confirmed OutcomeKind = iota
	Rejected
	NetworkFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	default:
		return "network_failed"
	}
}

// Outcome is the classified result of one executor call.
type Outcome struct {
	Kind   OutcomeKind
	Reason string // Rejected
	Cause  error  // Rejected, NetworkFailed

	Like    *LikeResult // toggle confirmations
	Comment *Comment    // add_comment confirmations
}

// Classify maps an executor error onto an outcome kind. Anything that is
// not a Rejection, including context deadlines, counts as NetworkFailed.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: Confirmed}
	}
	var rej Rejection
	if errors.As(err, &rej) {
		return Outcome{Kind: Rejected, Reason: rej.RejectReason(), Cause: err}
	}
	return Outcome{Kind: NetworkFailed, Cause: err}
}
