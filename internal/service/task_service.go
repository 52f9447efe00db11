package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"studytodo/internal/cache"
	dom "studytodo/internal/domain"
	"studytodo/internal/repo"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const listFlightKey = "list"

// CreateInput is the raw create payload; the service normalizes it.
type CreateInput struct {
	Title  string
	Course string
	Type   string
	Due    *time.Time
}

// UpdateInput is a partial update; nil fields are not changed.
type UpdateInput struct {
	Title  *string
	Course *string
	Type   *string
	Done   *bool
	Due    *time.Time
	DueSet bool
}

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
	log   logrus.FieldLogger
	// writes counts mutations; a list read only fills the cache when no
	// write happened while it ran.
	writes atomic.Uint64
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, log logrus.FieldLogger) *TaskService {
	return &TaskService{repo: r, cache: c, log: log}
}

func (s *TaskService) List(ctx context.Context) ([]dom.Task, error) {
	if s.cache == nil {
		return s.list(ctx)
	}
	// The shared call outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(listFlightKey, func() (interface{}, error) {
		gen := s.writes.Load()
		list, err := s.cache.GetList(shared)
		if err != nil {
			s.log.WithError(err).Warn("task cache read failed")
		} else if list != nil {
			return list, nil
		}
		list, err = s.list(shared)
		if err != nil {
			return nil, err
		}
		if s.writes.Load() != gen {
			return list, nil
		}
		if err := s.cache.SetList(shared, list); err != nil {
			s.log.WithError(err).Warn("task cache write failed")
		}
		// A write that landed during SetList may have invalidated first.
		if s.writes.Load() != gen {
			if err := s.cache.Invalidate(shared); err != nil {
				s.log.WithError(err).Warn("task cache invalidate failed")
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Task), nil
}

func (s *TaskService) list(ctx context.Context) ([]dom.Task, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if list == nil {
		list = []dom.Task{}
	}
	return list, nil
}

func (s *TaskService) GetByID(ctx context.Context, id string) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Task{}, mapRepoErr("get task", err)
	}
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, in CreateInput) (dom.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return dom.Task{}, invalid("Title is required")
	}

	t, err := s.repo.Create(ctx, dom.Task{
		Title:  title,
		Course: strings.TrimSpace(in.Course),
		Type:   dom.ParseTaskType(in.Type),
		Due:    in.Due,
		Done:   false,
	})
	if err != nil {
		return dom.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id string, in UpdateInput) (dom.Task, error) {
	var patch dom.TaskPatch
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return dom.Task{}, invalid("Title cannot be empty")
		}
		patch.Title = &title
	}
	if in.Course != nil {
		course := strings.TrimSpace(*in.Course)
		patch.Course = &course
	}
	if in.Type != nil {
		typ := dom.ParseTaskType(*in.Type)
		patch.Type = &typ
	}
	patch.Done = in.Done
	if in.DueSet {
		patch.DueSet = true
		patch.Due = in.Due
	}

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Task{}, mapRepoErr("update task", err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr("delete task", err)
	}
	s.invalidateCache(ctx)
	return nil
}

// ClearCompleted deletes every done task and returns how many were removed.
func (s *TaskService) ClearCompleted(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteDone(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	s.invalidateCache(ctx)
	return n, nil
}

// invalidateCache drops the cached list and detaches callers from any list
// read that started before the write.
func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.writes.Add(1)
	s.sf.Forget(listFlightKey)
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("task cache invalidate failed")
	}
}

func mapRepoErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrInvalidID):
		return ErrInvalidID
	}
	return fmt.Errorf("%s: %w", op, err)
}
