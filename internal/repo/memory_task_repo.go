package repo

import (
	"context"
	"sync"
	"time"

	dom "studytodo/internal/domain"

	"github.com/google/uuid"
)

// MemoryTaskRepo keeps tasks in process memory. Ids are UUID strings.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]dom.Task
	now   func() time.Time
}

// NewMemoryTaskRepo returns an empty in-memory repository.
func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{
		tasks: make(map[string]dom.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]dom.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		list = append(list, t)
	}
	sortForList(list)
	return list, nil
}

func (r *MemoryTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	key, err := parseUUID(id)
	if err != nil {
		return dom.Task{}, err
	}
	r.mu.RLock()
	t, ok := r.tasks[key]
	r.mu.RUnlock()
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	now := r.now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()
	return t, nil
}

func (r *MemoryTaskRepo) Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error) {
	key, err := parseUUID(id)
	if err != nil {
		return dom.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[key]
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Course != nil {
		t.Course = *patch.Course
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Done != nil {
		t.Done = *patch.Done
	}
	if patch.DueSet {
		t.Due = patch.Due
	}
	t.UpdatedAt = r.now()
	r.tasks[key] = t
	return t, nil
}

func (r *MemoryTaskRepo) Delete(ctx context.Context, id string) error {
	key, err := parseUUID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[key]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, key)
	return nil
}

func (r *MemoryTaskRepo) DeleteDone(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tasks {
		if t.Done {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

// parseUUID normalizes id to its canonical form or returns ErrInvalidID.
func parseUUID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}
