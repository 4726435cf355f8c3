package optimistic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError is a local failure raised before any state change or
// network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrTemporaryEntity is returned when mutating an entity the server does
// not know yet (its id is still a placeholder).
var ErrTemporaryEntity = errors.New("entity is not confirmed yet")

// Applier turns user intents into synchronous store changes. It never
// touches the network.
type Applier struct {
	now func() time.Time
	seq uint64
}

func NewApplier() *Applier { return &Applier{now: time.Now} }

func (a *Applier) nextID(prefix string) string {
	a.seq++
	return fmt.Sprintf("%s%d-%d", prefix, a.now().UnixMilli(), a.seq)
}

// ToggleLike is the pure like transition. clamped reports that an unlike
// hit zero and the count did not move.
func ToggleLike(liked bool, count int64) (newLiked bool, newCount int64, clamped bool) {
	newLiked = !liked
	if newLiked {
		return newLiked, count + 1, false
	}
	if count <= 0 {
		return newLiked, 0, true
	}
	return newLiked, count - 1, false
}

// revertLike undoes one toggle against the current state, not the snapshot
// the toggle was applied to. A clamped toggle only flipped the flag, so only
// the flag flips back. If another toggle on the same field landed in between,
// the result keeps that toggle's count change: starting from {liked, 0}, a
// clamped unlike, a like and then the unlike's undo leave {unliked, 1}.
// Inputs like {liked, 0} only come from inconsistent server data, and the
// next merge or Refresh overwrites the field.
func revertLike(liked bool, count int64, clamped bool) (bool, int64) {
	if clamped {
		return !liked, count
	}
	l, c, _ := ToggleLike(liked, count)
	return l, c
}

func (a *Applier) TogglePostLike(s *Store, postID string) (*Intent, error) {
	p, ok := s.Post(postID)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if IsTempID(postID) {
		return nil, ErrTemporaryEntity
	}
	var clamped bool
	p.Liked, p.LikesCount, clamped = ToggleLike(p.Liked, p.LikesCount)
	s.UpsertPost(p)

	return &Intent{
		ID:         a.nextID("i-"),
		Kind:       KindTogglePostLike,
		Target:     postID,
		Field:      fieldLike,
		LikedAfter: p.Liked,
		gen:        s.Generation(),
		undo: func(s *Store) {
			cur, ok := s.Post(postID)
			if !ok {
				return
			}
			cur.Liked, cur.LikesCount = revertLike(cur.Liked, cur.LikesCount, clamped)
			s.UpsertPost(cur)
		},
	}, nil
}

func (a *Applier) ToggleCommentLike(s *Store, commentID string) (*Intent, error) {
	c, ok := s.Comment(commentID)
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	if IsTempID(commentID) {
		return nil, ErrTemporaryEntity
	}
	var clamped bool
	c.Liked, c.LikesCount, clamped = ToggleLike(c.Liked, c.LikesCount)
	s.UpsertComment(c)

	return &Intent{
		ID:         a.nextID("i-"),
		Kind:       KindToggleCommentLike,
		Target:     commentID,
		Field:      fieldLike,
		LikedAfter: c.Liked,
		gen:        s.Generation(),
		undo: func(s *Store) {
			cur, ok := s.Comment(commentID)
			if !ok {
				return
			}
			cur.Liked, cur.LikesCount = revertLike(cur.Liked, cur.LikesCount, clamped)
			s.UpsertComment(cur)
		},
	}, nil
}

// AddComment inserts a placeholder comment and bumps the post's comment
// count. Blank drafts fail with a ValidationError and change nothing.
func (a *Applier) AddComment(s *Store, postID, draft string, anonymous bool) (*Intent, error) {
	content := strings.TrimSpace(draft)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "Please enter a comment"}
	}
	p, ok := s.Post(postID)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if IsTempID(postID) {
		return nil, ErrTemporaryEntity
	}

	tempID := a.nextID(TempIDPrefix)
	s.UpsertComment(Comment{
		ID:          tempID,
		PostID:      postID,
		Content:     content,
		IsAnonymous: anonymous,
		CreatedAt:   a.now(),
	})
	p.CommentsCount++
	s.UpsertPost(p)

	return &Intent{
		ID:        a.nextID("i-"),
		Kind:      KindAddComment,
		Target:    postID,
		Field:     fieldComments,
		TempID:    tempID,
		Content:   content,
		Anonymous: anonymous,
		gen:       s.Generation(),
		undo: func(s *Store) {
			if !s.Remove(tempID) {
				return
			}
			cur, ok := s.Post(postID)
			if !ok {
				return
			}
			if cur.CommentsCount > 0 {
				cur.CommentsCount--
			}
			s.UpsertPost(cur)
		},
	}, nil
}
