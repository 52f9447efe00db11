package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"studytodo/internal/cache"
	dom "studytodo/internal/domain"
	"studytodo/internal/dto"
	"studytodo/internal/repo"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// --- fakes ---

type fakeRepo struct {
	listFn       func() ([]dom.Task, error)
	createFn     func(dom.Task) (dom.Task, error)
	updateFn     func(string, dom.TaskPatch) (dom.Task, error)
	deleteFn     func(string) error
	deleteDoneFn func() (int64, error)
	listCalls    int
}

func (r *fakeRepo) List(ctx context.Context) ([]dom.Task, error) {
	r.listCalls++
	return r.listFn()
}
func (r *fakeRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	return dom.Task{}, repo.ErrNotFound
}
func (r *fakeRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	return r.createFn(t)
}
func (r *fakeRepo) Update(ctx context.Context, id string, p dom.TaskPatch) (dom.Task, error) {
	return r.updateFn(id, p)
}
func (r *fakeRepo) Delete(ctx context.Context, id string) error { return r.deleteFn(id) }
func (r *fakeRepo) DeleteDone(ctx context.Context) (int64, error) {
	return r.deleteDoneFn()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newMemService() (*TaskService, *repo.MemoryTaskRepo) {
	r := repo.NewMemoryTaskRepo()
	return NewTaskService(r, nil, quietLogger()), r
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

// --- tests ---

func TestCreate_BlankTitle_ValidationError(t *testing.T) {
	svc, r := newMemService()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), CreateInput{Title: title})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("Create(%q) err=%v, want %v", title, err, ErrValidation)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Message != "Title is required" {
			t.Fatalf("Create(%q) err=%v, want message %q", title, err, "Title is required")
		}
	}

	list, _ := r.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("store has %d tasks, want 0", len(list))
	}
}

func TestCreate_NormalizesFields(t *testing.T) {
	svc, _ := newMemService()

	got, err := svc.Create(context.Background(), CreateInput{
		Title:  "  Lab report  ",
		Course: "  CS101 ",
		Type:   "Homework",
	})
	if err != nil {
		t.Fatalf("Create() err=%v, want nil", err)
	}
	if got.Title != "Lab report" || got.Course != "CS101" {
		t.Fatalf("Create() title=%q course=%q, want trimmed", got.Title, got.Course)
	}
	if got.Type != dom.TypeAssignment {
		t.Fatalf("Create() type=%q, want %q", got.Type, dom.TypeAssignment)
	}
	if got.Done {
		t.Fatalf("Create() done=true, want false")
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("Create() id=%q createdAt=%v, want both set", got.ID, got.CreatedAt)
	}
}

func TestCreate_DueRoundTrip(t *testing.T) {
	svc, _ := newMemService()
	due, err := dto.ParseDue("2025-03-10")
	if err != nil {
		t.Fatalf("ParseDue() err=%v", err)
	}

	created, err := svc.Create(context.Background(), CreateInput{Title: "Exam prep", Type: "Exam", Due: due})
	if err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() err=%v", err)
	}
	if got.Due == nil || got.Due.Format(dto.DateLayout) != "2025-03-10" {
		t.Fatalf("due=%v, want 2025-03-10", got.Due)
	}
}

func TestList_OrderInvariant(t *testing.T) {
	svc, _ := newMemService()
	ctx := context.Background()
	day := func(s string) *time.Time { d, _ := dto.ParseDue(s); return d }

	a, _ := svc.Create(ctx, CreateInput{Title: "a", Due: day("2025-03-20")})
	_, _ = svc.Create(ctx, CreateInput{Title: "b"})
	_, _ = svc.Create(ctx, CreateInput{Title: "c", Due: day("2025-03-05")})
	d, _ := svc.Create(ctx, CreateInput{Title: "d", Due: day("2025-03-01")})
	_, _ = svc.Update(ctx, a.ID, UpdateInput{Done: boolPtr(true)})
	_, _ = svc.Update(ctx, d.ID, UpdateInput{Done: boolPtr(true)})

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	want := []string{"c", "b", "d", "a"}
	for i, title := range want {
		if list[i].Title != title {
			t.Fatalf("List()[%d]=%q, want %q", i, list[i].Title, title)
		}
	}
}

func TestUpdate_NotFound_StoreUnchanged(t *testing.T) {
	svc, r := newMemService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, CreateInput{Title: "keep"})

	_, err := svc.Update(ctx, "3f0c6a4e-8a0e-4c55-9d43-111111111111", UpdateInput{Title: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() err=%v, want %v", err, ErrNotFound)
	}
	got, _ := r.GetByID(ctx, created.ID)
	if got.Title != "keep" {
		t.Fatalf("title=%q, want unchanged", got.Title)
	}
}

func TestUpdate_InvalidID(t *testing.T) {
	svc, _ := newMemService()

	_, err := svc.Update(context.Background(), "not-an-id", UpdateInput{Done: boolPtr(true)})
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Update() err=%v, want %v", err, ErrInvalidID)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := newMemService()
	ctx := context.Background()
	due, _ := dto.ParseDue("2025-04-01")
	created, _ := svc.Create(ctx, CreateInput{Title: "Essay", Course: "ENG", Type: "Exam", Due: due})

	got, err := svc.Update(ctx, created.ID, UpdateInput{Course: strPtr("  HIST "), Type: strPtr("bogus")})
	if err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	if got.Title != "Essay" || got.Course != "HIST" || got.Type != dom.TypeAssignment || got.Due == nil {
		t.Fatalf("Update()=%+v, want only course and type changed", got)
	}

	got, err = svc.Update(ctx, created.ID, UpdateInput{DueSet: true})
	if err != nil {
		t.Fatalf("Update() clear due err=%v", err)
	}
	if got.Due != nil {
		t.Fatalf("due=%v, want nil after clearing", got.Due)
	}
}

func TestUpdate_BlankTitle_Rejected(t *testing.T) {
	svc, _ := newMemService()
	created, _ := svc.Create(context.Background(), CreateInput{Title: "x"})

	_, err := svc.Update(context.Background(), created.ID, UpdateInput{Title: strPtr("  ")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Update() err=%v, want %v", err, ErrValidation)
	}
}

func TestDelete_NotFoundAndInvalid(t *testing.T) {
	svc, _ := newMemService()

	if err := svc.Delete(context.Background(), "3f0c6a4e-8a0e-4c55-9d43-111111111111"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() err=%v, want %v", err, ErrNotFound)
	}
	if err := svc.Delete(context.Background(), "zzz"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Delete() err=%v, want %v", err, ErrInvalidID)
	}
}

func TestClearCompleted_NoneDone(t *testing.T) {
	svc, r := newMemService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, CreateInput{Title: "a"})
	_, _ = svc.Create(ctx, CreateInput{Title: "b"})

	n, err := svc.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted() err=%v", err)
	}
	if n != 0 {
		t.Fatalf("ClearCompleted()=%d, want 0", n)
	}
	list, _ := r.List(ctx)
	if len(list) != 2 {
		t.Fatalf("len=%d, want 2", len(list))
	}
}

func TestMarkDoneThenClear_RemovesOnlyThatTask(t *testing.T) {
	svc, _ := newMemService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, CreateInput{Title: "a"})
	b, _ := svc.Create(ctx, CreateInput{Title: "b"})
	c, _ := svc.Create(ctx, CreateInput{Title: "c"})

	if _, err := svc.Update(ctx, b.ID, UpdateInput{Done: boolPtr(true)}); err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	n, err := svc.ClearCompleted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearCompleted()=%d err=%v, want 1,nil", n, err)
	}

	list, _ := svc.List(ctx)
	if len(list) != 2 {
		t.Fatalf("len=%d, want 2", len(list))
	}
	for _, task := range list {
		if task.ID == b.ID {
			t.Fatalf("task %s still present", b.ID)
		}
		if task.ID != a.ID && task.ID != c.ID {
			t.Fatalf("unexpected task %s", task.ID)
		}
	}
}

func TestRepoFailure_WrappedAsUnexpected(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewTaskService(&fakeRepo{
		listFn:   func() ([]dom.Task, error) { return nil, boom },
		createFn: func(dom.Task) (dom.Task, error) { return dom.Task{}, boom },
		deleteFn: func(string) error { return boom },
	}, nil, quietLogger())

	if _, err := svc.List(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("List() err=%v, want wrapped %v", err, boom)
	}
	_, err := svc.Create(context.Background(), CreateInput{Title: "x"})
	if !errors.Is(err, boom) || errors.Is(err, ErrValidation) {
		t.Fatalf("Create() err=%v, want wrapped %v", err, boom)
	}
	err = svc.Delete(context.Background(), "id")
	if !errors.Is(err, boom) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		t.Fatalf("Delete() err=%v, want wrapped %v", err, boom)
	}
}

func TestList_UsesCacheAndInvalidatesOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	stored := []dom.Task{{ID: "1", Title: "cached"}}
	fr := &fakeRepo{
		listFn:       func() ([]dom.Task, error) { return stored, nil },
		deleteDoneFn: func() (int64, error) { return 0, nil },
	}
	svc := NewTaskService(fr, cache.NewTaskCache(rdb, time.Minute), quietLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := svc.List(ctx)
		if err != nil || len(list) != 1 {
			t.Fatalf("List() = %v, %v", list, err)
		}
	}
	if fr.listCalls != 1 {
		t.Fatalf("repo List calls=%d, want 1", fr.listCalls)
	}

	if _, err := svc.ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted() err=%v", err)
	}
	_, _ = svc.List(ctx)
	if fr.listCalls != 2 {
		t.Fatalf("repo List calls=%d after write, want 2", fr.listCalls)
	}
}

// gatedRepo blocks the first List call until release is closed.
type gatedRepo struct {
	*fakeRepo
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	tasks   []dom.Task
	gated   bool
}

func (r *gatedRepo) List(ctx context.Context) ([]dom.Task, error) {
	r.mu.Lock()
	snapshot := append([]dom.Task(nil), r.tasks...)
	first := !r.gated
	r.gated = true
	r.mu.Unlock()

	if first {
		close(r.entered)
		<-r.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *gatedRepo) DeleteDone(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.tasks))
	r.tasks = nil
	return n, nil
}

func newCachedService(t *testing.T, r repo.TaskRepo) *TaskService {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTaskService(r, cache.NewTaskCache(rdb, time.Minute), quietLogger())
}

func TestList_WriteDuringReadDoesNotCacheStaleList(t *testing.T) {
	gr := &gatedRepo{
		fakeRepo: &fakeRepo{},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		tasks:    []dom.Task{{ID: "1", Title: "done", Done: true}},
	}
	svc := newCachedService(t, gr)
	ctx := context.Background()

	type result struct {
		list []dom.Task
		err  error
	}
	first := make(chan result, 1)
	go func() {
		list, err := svc.List(ctx)
		first <- result{list, err}
	}()
	<-gr.entered

	if n, err := svc.ClearCompleted(ctx); err != nil || n != 1 {
		t.Fatalf("ClearCompleted() = %d, %v", n, err)
	}
	close(gr.release)
	if r := <-first; r.err != nil {
		t.Fatalf("in-flight List() err=%v", r.err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(list) != 0 {
		t.Fatalf("List() after ClearCompleted returned %d tasks, repo has 0", len(list))
	}
}

func TestList_CallerAfterWriteSkipsInFlightRead(t *testing.T) {
	gr := &gatedRepo{
		fakeRepo: &fakeRepo{},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		tasks:    []dom.Task{{ID: "1", Title: "done", Done: true}},
	}
	svc := newCachedService(t, gr)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.List(ctx)
	}()
	<-gr.entered

	if _, err := svc.ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted() err=%v", err)
	}
	// Runs while the first read is still blocked.
	list, err := svc.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List() = %v, %v; want empty", list, err)
	}
	close(gr.release)
	<-done
}

func TestList_SharedReadIgnoresCallerCancel(t *testing.T) {
	gr := &gatedRepo{
		fakeRepo: &fakeRepo{},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		tasks:    []dom.Task{{ID: "1", Title: "a"}},
	}
	svc := newCachedService(t, gr)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx)
		first <- err
	}()
	<-gr.entered
	cancel()
	close(gr.release)

	if err := <-first; err != nil {
		t.Fatalf("List() with canceled caller err=%v", err)
	}
	list, err := svc.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}
}
