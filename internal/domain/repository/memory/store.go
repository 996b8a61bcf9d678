// Package memory holds process-local implementations of the repository
// interfaces. Data lives only as long as the Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
	"companion_hub/internal/domain/repository"
)

type Store struct {
	mu sync.RWMutex

	nextUserID    int64
	nextPostID    int64
	nextCommentID int64

	users      map[int64]model.User
	usernames  map[string]int64
	posts      map[int64]model.Post
	comments   map[int64]model.Comment
	references map[model.ReferenceKind]map[int64]model.Record
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]model.User),
		usernames: make(map[string]int64),
		posts:     make(map[int64]model.Post),
		comments:  make(map[int64]model.Comment),
		references: map[model.ReferenceKind]map[int64]model.Record{
			model.KindCharacter: {},
			model.KindWeapon:    {},
		},
	}
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Posts() repository.PostRepository { return postRepo{s} }
func (s *Store) Comments() repository.CommentRepository { return commentRepo{s} }
func (s *Store) References() repository.ReferenceRepository { return referenceRepo{s} }

// PutReference inserts or replaces a reference record.
func (s *Store) PutReference(kind model.ReferenceKind, id int64, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.references[kind]
	if !ok {
		return fmt.Errorf("unknown reference kind %q", kind)
	}
	table[id] = rec
	return nil
}

func (s *Store) usernameOf(id *int64) *string {
	if id == nil {
		return nil
	}
	u, ok := s.users[*id]
	if !ok {
		return nil
	}
	name := u.Username
	return &name
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, username, passwordHash string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.usernames[username]; taken {
		return nil, fmt.Errorf("user %q already exists: %w", username, common.ErrConflict)
	}
	r.s.nextUserID++
	u := model.User{ID: r.s.nextUserID, Username: username, PasswordHash: passwordHash}
	r.s.users[u.ID] = u
	r.s.usernames[username] = u.ID
	return &u, nil
}

func (r userRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.usernames[username]
	return ok, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.usernames[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPostID++
	p.ID = r.s.nextPostID
	r.s.posts[p.ID] = *p
	return nil
}

func (r postRepo) List(_ context.Context) ([]model.PostSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, c := range r.s.comments {
		counts[c.PostID]++
	}

	out := make([]model.PostSummary, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		out = append(out, model.PostSummary{
			Post:         p,
			Author:       model.Author{Username: r.s.usernameOf(p.UserID)},
			CommentCount: counts[p.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r postRepo) FindByID(_ context.Context, id int64) (*model.PostDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &model.PostDetail{
		Post:     p,
		Author:   model.Author{Username: r.s.usernameOf(p.UserID)},
		Comments: []model.CommentDetail{},
	}, nil
}

func (r postRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.posts[id]
	return ok, nil
}

// Delete cascades to the post's comments like the SQL schema does.
func (r postRepo) Delete(_ context.Context, id int64, ownerID *int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok || !owns(p.UserID, ownerID) {
		return false, nil
	}
	delete(r.s.posts, id)
	for cid, c := range r.s.comments {
		if c.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	return true, nil
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[c.PostID]; !ok {
		return fmt.Errorf("post %d: %w", c.PostID, common.ErrNotFound)
	}
	r.s.nextCommentID++
	c.ID = r.s.nextCommentID
	r.s.comments[c.ID] = *c
	return nil
}

func (r commentRepo) ListByPost(_ context.Context, postID int64) ([]model.CommentDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.CommentDetail{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			out = append(out, model.CommentDetail{
				Comment: c,
				Author:  model.Author{Username: r.s.usernameOf(c.UserID)},
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r commentRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.comments[id]
	return ok, nil
}

func (r commentRepo) Delete(_ context.Context, id int64, ownerID *int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok || !owns(c.UserID, ownerID) {
		return false, nil
	}
	delete(r.s.comments, id)
	return true, nil
}

type referenceRepo struct{ s *Store }

func (r referenceRepo) List(_ context.Context, kind model.ReferenceKind) ([]model.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	table, ok := r.s.references[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q: %w", kind, common.ErrNotFound)
	}
	ids := make([]int64, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, table[id])
	}
	return out, nil
}

func (r referenceRepo) Find(_ context.Context, kind model.ReferenceKind, id int64) (model.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.references[kind][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec, nil
}

// owns reports whether a row owned by rowOwner may be touched by caller. A nil
// caller means no ownership restriction.
func owns(rowOwner, caller *int64) bool {
	if caller == nil {
		return true
	}
	return rowOwner != nil && *rowOwner == *caller
}
