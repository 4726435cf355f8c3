package optimistic

import (
	"errors"

	"go.uber.org/zap"
)

// ErrAlreadyResolved is returned when an intent is resolved twice or was
// never tracked.
var ErrAlreadyResolved = errors.New("intent already resolved")

// Reconciler finalizes intents once their network call has completed.
// Each intent moves Pending -> Confirmed or Pending -> RolledBack exactly once.
type Reconciler struct {
	store    *Store
	notifier Notifier
	log      *zap.Logger

	pending  map[string]*Intent
	inflight map[string]int    // Intent.Key() -> pending intents on that field
	latest   map[string]string // Intent.Key() -> id of the last intent applied on that field
}

func NewReconciler(store *Store, notifier Notifier, log *zap.Logger) *Reconciler {
	if notifier == nil {
		notifier = NotifierFunc(func(Toast) {})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		store:    store,
		notifier: notifier,
		log:      log,
		pending:  make(map[string]*Intent),
		inflight: make(map[string]int),
		latest:   make(map[string]string),
	}
}

// Track registers an applied intent as pending.
func (r *Reconciler) Track(in *Intent) {
	r.pending[in.ID] = in
	r.inflight[in.Key()]++
	r.latest[in.Key()] = in.ID
}

// Pending returns the number of unresolved intents.
func (r *Reconciler) Pending() int { return len(r.pending) }

// Resolve applies the outcome of in's network call to the store and emits
// exactly one toast.
func (r *Reconciler) Resolve(in *Intent, out Outcome) (State, error) {
	if _, ok := r.pending[in.ID]; !ok {
		return StatePending, ErrAlreadyResolved
	}
	delete(r.pending, in.ID)
	key := in.Key()
	r.inflight[key]--
	// Server fields are only canonical for the newest local intent on the
	// field, and only once nothing else on it is in flight.
	last := r.inflight[key] == 0 && r.latest[key] == in.ID
	if r.inflight[key] == 0 {
		delete(r.inflight, key)
		delete(r.latest, key)
	}

	// A full refetch replaced the state this intent touched; the server's
	// answer is already reflected there.
	stale := in.gen != r.store.Generation()

	fields := []zap.Field{
		zap.String("intent", in.ID),
		zap.String("kind", string(in.Kind)),
		zap.String("target", in.Target),
		zap.Stringer("outcome", out.Kind),
		zap.Bool("stale", stale),
	}

	if out.Kind == Confirmed {
		if !stale {
			r.merge(in, out, last)
		}
		r.log.Debug("intent confirmed", fields...)
		r.notifier.Notify(Toast{Level: LevelSuccess, Message: successMessage(in, out), IntentID: in.ID})
		return StateConfirmed, nil
	}

	if !stale {
		in.Undo(r.store)
	}
	msg := GenericFailure
	switch out.Kind {
	case Rejected:
		if out.Reason != "" {
			msg = out.Reason
		}
		r.log.Warn("intent rejected", append(fields, zap.String("reason", out.Reason))...)
	default:
		r.log.Error("intent network failure", append(fields, zap.Error(out.Cause))...)
	}
	r.notifier.Notify(Toast{Level: LevelError, Message: msg, IntentID: in.ID})
	return StateRolledBack, nil
}

func (r *Reconciler) merge(in *Intent, out Outcome, last bool) {
	switch in.Kind {
	case KindAddComment:
		if out.Comment == nil {
			return
		}
		if err := r.store.ReplaceID(in.TempID, out.Comment.ID); err != nil {
			r.log.Warn("placeholder comment vanished before confirmation", zap.String("temp_id", in.TempID), zap.Error(err))
			return
		}
		c := *out.Comment
		if c.PostID == "" {
			c.PostID = in.Target
		}
		r.store.UpsertComment(c)
	case KindTogglePostLike:
		if out.Like == nil || !last {
			return
		}
		if p, ok := r.store.Post(in.Target); ok {
			p.Liked, p.LikesCount = out.Like.Liked, nonNegative(out.Like.LikesCount)
			r.store.UpsertPost(p)
		}
	case KindToggleCommentLike:
		if out.Like == nil || !last {
			return
		}
		if c, ok := r.store.Comment(in.Target); ok {
			c.Liked, c.LikesCount = out.Like.Liked, nonNegative(out.Like.LikesCount)
			r.store.UpsertComment(c)
		}
	}
}

func successMessage(in *Intent, out Outcome) string {
	liked := in.LikedAfter
	if out.Like != nil {
		liked = out.Like.Liked
	}
	switch in.Kind {
	case KindAddComment:
		return "Comment added"
	case KindTogglePostLike:
		if liked {
			return "Post liked"
		}
		return "Post unliked"
	case KindToggleCommentLike:
		if liked {
			return "Comment liked"
		}
		return "Comment unliked"
	}
	return "Saved"
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
