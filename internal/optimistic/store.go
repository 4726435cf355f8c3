package optimistic

import "errors"

var (
	ErrNotFound = errors.New("entity not found")
	ErrIDInUse  = errors.New("id already in use")
)

// Store holds the posts and comments currently visible to one session.
// It never performs I/O. It is not safe for concurrent use; Session
// serializes access.
type Store struct {
	posts     map[string]*Post
	postOrder []string

	comments     map[string]*Comment
	commentOrder map[string][]string // post id -> comment ids

	// gen changes on every Reset so in-flight intents can tell that the
	// state they modified has been replaced by a full fetch.
	gen uint64
}

func NewStore() *Store {
	return &Store{
		posts:        make(map[string]*Post),
		comments:     make(map[string]*Comment),
		commentOrder: make(map[string][]string),
	}
}

// Generation identifies the current full-fetch epoch.
func (s *Store) Generation() uint64 { return s.gen }

func (s *Store) Post(id string) (Post, bool) {
	p, ok := s.posts[id]
	if !ok {
		return Post{}, false
	}
	return *p, true
}

func (s *Store) Comment(id string) (Comment, bool) {
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, false
	}
	return *c, true
}

// UpsertPost replaces the post with the same id, or appends it to the feed.
func (s *Store) UpsertPost(p Post) {
	if cur, ok := s.posts[p.ID]; ok {
		*cur = p
		return
	}
	cp := p
	s.posts[p.ID] = &cp
	s.postOrder = append(s.postOrder, p.ID)
}

// UpsertComment replaces the comment with the same id, or appends it under its post.
func (s *Store) UpsertComment(c Comment) {
	if cur, ok := s.comments[c.ID]; ok {
		if cur.PostID != c.PostID {
			s.commentOrder[cur.PostID] = without(s.commentOrder[cur.PostID], c.ID)
			s.commentOrder[c.PostID] = append(s.commentOrder[c.PostID], c.ID)
		}
		*cur = c
		return
	}
	cp := c
	s.comments[c.ID] = &cp
	s.commentOrder[c.PostID] = append(s.commentOrder[c.PostID], c.ID)
}

// Remove deletes a post (with its comments) or a comment. It reports whether
// anything was removed.
func (s *Store) Remove(id string) bool {
	if _, ok := s.posts[id]; ok {
		delete(s.posts, id)
		s.postOrder = without(s.postOrder, id)
		for _, cid := range s.commentOrder[id] {
			delete(s.comments, cid)
		}
		delete(s.commentOrder, id)
		return true
	}
	if c, ok := s.comments[id]; ok {
		delete(s.comments, id)
		s.commentOrder[c.PostID] = without(s.commentOrder[c.PostID], id)
		return true
	}
	return false
}

// ReplaceID swaps a temporary id for the server-assigned one, keeping the
// entity's position. If newID is already present (a refetch got there
// first) the entry under oldID is dropped instead.
func (s *Store) ReplaceID(oldID, newID string) error {
	if oldID == newID {
		if _, ok := s.posts[oldID]; ok {
			return nil
		}
		if _, ok := s.comments[oldID]; ok {
			return nil
		}
		return ErrNotFound
	}
	if c, ok := s.comments[oldID]; ok {
		if _, taken := s.comments[newID]; taken {
			s.Remove(oldID)
			return nil
		}
		delete(s.comments, oldID)
		c.ID = newID
		s.comments[newID] = c
		replaceIn(s.commentOrder[c.PostID], oldID, newID)
		return nil
	}
	if p, ok := s.posts[oldID]; ok {
		if _, taken := s.posts[newID]; taken {
			return ErrIDInUse
		}
		delete(s.posts, oldID)
		p.ID = newID
		s.posts[newID] = p
		replaceIn(s.postOrder, oldID, newID)
		if ids, ok := s.commentOrder[oldID]; ok {
			for _, cid := range ids {
				s.comments[cid].PostID = newID
			}
			s.commentOrder[newID] = ids
			delete(s.commentOrder, oldID)
		}
		return nil
	}
	return ErrNotFound
}

// Posts returns the posts in feed order.
func (s *Store) Posts() []Post {
	out := make([]Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		out = append(out, *s.posts[id])
	}
	return out
}

// Comments returns the comments of a post in insertion order.
func (s *Store) Comments(postID string) []Comment {
	ids := s.commentOrder[postID]
	out := make([]Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.comments[id])
	}
	return out
}

// Reset rebuilds the store from an authoritative fetch.
func (s *Store) Reset(posts []Post, comments []Comment) {
	s.posts = make(map[string]*Post, len(posts))
	s.postOrder = s.postOrder[:0]
	s.comments = make(map[string]*Comment, len(comments))
	s.commentOrder = make(map[string][]string)
	for _, p := range posts {
		s.UpsertPost(p)
	}
	for _, c := range comments {
		s.UpsertComment(c)
	}
	s.gen++
}

// Len returns the number of posts and comments held.
func (s *Store) Len() (posts, comments int) { return len(s.posts), len(s.comments) }

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func replaceIn(ids []string, oldID, newID string) {
	for i, v := range ids {
		if v == oldID {
			ids[i] = newID
			return
		}
	}
}
