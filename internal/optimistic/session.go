package optimistic

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Observer is told about every resolved intent (metrics).
type Observer func(kind Kind, outcome OutcomeKind, latency time.Duration)

type Option func(*Session)

func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

func WithFetcher(f Fetcher) Option { return func(s *Session) { s.fetcher = f } }

// WithTimeout bounds each executor call. A timeout is a NetworkFailed outcome.
func WithTimeout(d time.Duration) Option { return func(s *Session) { s.timeout = d } }

func WithObserver(o Observer) Option { return func(s *Session) { s.observer = o } }

// ErrNoFetcher is returned by Refresh when the session has no Fetcher.
var ErrNoFetcher = errors.New("session has no fetcher")

// Session owns one user's Store and runs mutations against it. Appliers and
// reconcilers run under the session lock and never block on I/O; executor
// calls run on their own goroutines.
type Session struct {
	mu      sync.Mutex
	store   *Store
	applier *Applier
	rec     *Reconciler

	exec     Executor
	fetcher  Fetcher
	notifier Notifier
	observer Observer
	log      *zap.Logger
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewSession(store *Store, exec Executor, opts ...Option) *Session {
	s := &Session{
		store:    store,
		applier:  NewApplier(),
		exec:     exec,
		notifier: NotifierFunc(func(Toast) {}),
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.rec = NewReconciler(store, s.notifier, s.log)
	return s
}

// Pending is the handle of an in-flight intent.
type Pending struct {
	intent *Intent
	done   chan struct{}

	state   State
	outcome Outcome
}

func (p *Pending) ID() string { return p.intent.ID }

func (p *Pending) Kind() Kind { return p.intent.Kind }

// TempID is the placeholder comment id for add_comment intents.
func (p *Pending) TempID() string { return p.intent.TempID }

func (p *Pending) Done() <-chan struct{} { return p.done }

// State returns StatePending until the intent resolves.
func (p *Pending) State() State {
	select {
	case <-p.done:
		return p.state
	default:
		return StatePending
	}
}

// Outcome is only meaningful after Done is closed.
func (p *Pending) Outcome() Outcome {
	<-p.done
	return p.outcome
}

// Wait blocks until the intent resolves or ctx ends.
func (p *Pending) Wait(ctx context.Context) (State, error) {
	select {
	case <-p.done:
		return p.state, nil
	case <-ctx.Done():
		return StatePending, ctx.Err()
	}
}

func (s *Session) TogglePostLike(ctx context.Context, postID string) (*Pending, error) {
	s.mu.Lock()
	in, err := s.applier.TogglePostLike(s.store, postID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	p := s.launchLocked(ctx, in, func(ctx context.Context) Outcome {
		res, err := s.exec.TogglePostLike(ctx, postID)
		out := Classify(err)
		out.Like = res
		return out
	})
	s.mu.Unlock()
	return p, nil
}

func (s *Session) ToggleCommentLike(ctx context.Context, commentID string) (*Pending, error) {
	s.mu.Lock()
	in, err := s.applier.ToggleCommentLike(s.store, commentID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	p := s.launchLocked(ctx, in, func(ctx context.Context) Outcome {
		res, err := s.exec.ToggleCommentLike(ctx, commentID)
		out := Classify(err)
		out.Like = res
		return out
	})
	s.mu.Unlock()
	return p, nil
}

// AddComment shows the comment immediately under a temporary id. A blank
// draft returns a ValidationError, raises an error toast and leaves both
// the store and the network untouched.
func (s *Session) AddComment(ctx context.Context, postID, content string, anonymous bool) (*Pending, error) {
	s.mu.Lock()
	in, err := s.applier.AddComment(s.store, postID, content, anonymous)
	if err != nil {
		s.mu.Unlock()
		if IsValidation(err) {
			s.notifier.Notify(Toast{Level: LevelError, Message: err.Error()})
		}
		return nil, err
	}
	p := s.launchLocked(ctx, in, func(ctx context.Context) Outcome {
		c, err := s.exec.CreateComment(ctx, in.Target, in.Content, in.Anonymous)
		out := Classify(err)
		if err == nil {
			out.Comment = c
		}
		return out
	})
	s.mu.Unlock()
	return p, nil
}

func (s *Session) launchLocked(ctx context.Context, in *Intent, call func(context.Context) Outcome) *Pending {
	p := &Pending{intent: in, done: make(chan struct{})}
	s.rec.Track(in)
	s.log.Debug("intent applied", zap.String("intent", in.ID), zap.String("kind", string(in.Kind)), zap.String("target", in.Target))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		cctx, cancel := ctx, context.CancelFunc(func() {})
		if s.timeout > 0 {
			cctx, cancel = context.WithTimeout(ctx, s.timeout)
		}
		start := time.Now()
		out := call(cctx)
		cancel()

		s.mu.Lock()
		state, err := s.rec.Resolve(in, out)
		s.mu.Unlock()
		if err != nil {
			s.log.Error("resolve intent", zap.String("intent", in.ID), zap.Error(err))
		}
		if s.observer != nil {
			s.observer(in.Kind, out.Kind, time.Since(start))
		}
		p.state, p.outcome = state, out
		close(p.done)
	}()
	return p
}

// Refresh rebuilds the store from the server. Intents still in flight will
// not touch the rebuilt state when they resolve.
func (s *Session) Refresh(ctx context.Context) error {
	if s.fetcher == nil {
		return ErrNoFetcher
	}
	posts, err := s.fetcher.FetchPosts(ctx)
	if err != nil {
		return err
	}
	var comments []Comment
	for _, p := range posts {
		cs, err := s.fetcher.FetchComments(ctx, p.ID)
		if err != nil {
			return err
		}
		comments = append(comments, cs...)
	}

	s.mu.Lock()
	s.store.Reset(posts, comments)
	s.mu.Unlock()
	s.log.Debug("store refreshed", zap.Int("posts", len(posts)), zap.Int("comments", len(comments)))
	return nil
}

// Snapshot is a read-only copy of the store for rendering.
type Snapshot struct {
	Posts    []Post
	Comments map[string][]Comment
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Posts: s.store.Posts(), Comments: make(map[string][]Comment, len(s.store.postOrder))}
	for _, p := range snap.Posts {
		snap.Comments[p.ID] = s.store.Comments(p.ID)
	}
	return snap
}

func (s *Session) Post(id string) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Post(id)
}

func (s *Session) Comment(id string) (Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Comment(id)
}

// InFlight returns the number of unresolved intents.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Pending()
}

// Wait blocks until every launched intent has resolved.
func (s *Session) Wait() { s.wg.Wait() }
