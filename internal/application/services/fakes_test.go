package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/ports"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
	gets  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return entities.ErrEmailTaken
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	u, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

type fakeGroupRepo struct {
	mu        sync.Mutex
	groups    map[uuid.UUID]*entities.Group
	deleteErr error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[uuid.UUID]*entities.Group)}
}

func (r *fakeGroupRepo) Create(_ context.Context, group *entities.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		if g.UserID == group.UserID && g.Name == group.Name {
			return entities.ErrGroupNameTaken
		}
	}
	cp := *group
	r.groups[group.ID] = &cp
	return nil
}

func (r *fakeGroupRepo) GetByOwner(_ context.Context, ownerID, id uuid.UUID) (*entities.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok || g.UserID != ownerID {
		return nil, entities.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGroupRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Group
	for _, g := range r.groups {
		if g.UserID == ownerID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	g, ok := r.groups[id]
	if !ok || g.UserID != ownerID {
		return entities.ErrGroupNotFound
	}
	delete(r.groups, id)
	return nil
}

type fakeTaskRepo struct {
	mu          sync.Mutex
	tasks       map[uuid.UUID]*entities.Task
	unassignErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*entities.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) GetByOwner(_ context.Context, ownerID, id uuid.UUID) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, entities.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Task
	for _, t := range r.tasks {
		if t.UserID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[task.ID]
	if !ok || t.UserID != task.UserID {
		return entities.ErrTaskNotFound
	}
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) UnassignGroup(_ context.Context, ownerID uuid.UUID, groupID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unassignErr != nil {
		return 0, r.unassignErr
	}
	var n int64
	for _, t := range r.tasks {
		if t.UserID == ownerID && t.Group == groupID {
			t.Group = ""
			n++
		}
	}
	return n, nil
}

// fakeTx snapshots both fakes and restores them when fn fails
type fakeTx struct {
	groups *fakeGroupRepo
	tasks  *fakeTaskRepo
}

func (tx *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.groups.mu.Lock()
	groups := make(map[uuid.UUID]*entities.Group, len(tx.groups.groups))
	for k, v := range tx.groups.groups {
		cp := *v
		groups[k] = &cp
	}
	tx.groups.mu.Unlock()

	tx.tasks.mu.Lock()
	tasks := make(map[uuid.UUID]*entities.Task, len(tx.tasks.tasks))
	for k, v := range tx.tasks.tasks {
		cp := *v
		tasks[k] = &cp
	}
	tx.tasks.mu.Unlock()

	if err := fn(ctx); err != nil {
		tx.groups.mu.Lock()
		tx.groups.groups = groups
		tx.groups.mu.Unlock()
		tx.tasks.mu.Lock()
		tx.tasks.tasks = tasks
		tx.tasks.mu.Unlock()
		return err
	}
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return ports.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []ports.Notification
	err  error
}

func (d *fakeDispatcher) Send(_ context.Context, n ports.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

var errStorage = errors.New("storage unavailable")

// fixedClock returns a clock that advances by one second per call
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(time.Second)
		return now
	}
}
