package optimistic

import "fmt"

// Kind names a mutation type.
type Kind string

const (
	KindTogglePostLike    Kind = "toggle_post_like"
	KindToggleCommentLike Kind = "toggle_comment_like"
	KindAddComment        Kind = "add_comment"
)

const (
	fieldLike     = "like"
	fieldComments = "comments"
)

// State is the lifecycle of an intent.
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Intent is a mutation that has been applied locally, together with the
// transform that reverts exactly its own delta.
type Intent struct {
	ID     string
	Kind   Kind
	Target string // post id for likes and comments, comment id for comment likes
	Field  string

	// LikedAfter is the liked flag the toggle produced locally.
	LikedAfter bool

	// add_comment payload
	TempID    string
	Content   string
	Anonymous bool

	gen  uint64
	undo func(*Store)
}

// Key identifies the entity field the intent owns.
func (in *Intent) Key() string { return in.Target + "#" + in.Field }

// Undo reverts the intent's local delta on s.
func (in *Intent) Undo(s *Store) {
	if in.undo != nil {
		in.undo(s)
	}
}
