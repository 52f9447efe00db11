package repo

import (
	"context"
	"errors"
	"sort"

	dom "studytodo/internal/domain"
)

var (
	// ErrNotFound is returned when no task has the given id.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidID is returned when the id is not in the store's id format.
	ErrInvalidID = errors.New("invalid task id")
)

// TaskRepo provides task persistence. Every method is a single storage call.
type TaskRepo interface {
	List(ctx context.Context) ([]dom.Task, error)
	GetByID(ctx context.Context, id string) (dom.Task, error)
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error)
	Delete(ctx context.Context, id string) error
	DeleteDone(ctx context.Context) (int64, error)
}

func sortForList(list []dom.Task) {
	sort.SliceStable(list, func(i, j int) bool { return dom.ListLess(list[i], list[j]) })
}
