package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-service/internal/domain"
)

func newQuote(title, category string, status domain.Status, tags ...string) *domain.Quote {
	q := domain.NewQuote(title, "")
	q.Category = category
	q.Status = status
	q.SetTags(tags)

	return q
}

func seed(t *testing.T, s *MemoryStore, qs ...*domain.Quote) []*domain.Quote {
	t.Helper()

	saved, err := s.SaveAll(context.Background(), qs)
	require.NoError(t, err)

	return saved
}

func ids(qs []*domain.Quote) []int64 {
	out := make([]int64, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}

	return out
}

func TestMemoryStore_SaveAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.Save(ctx, domain.NewQuote("one", ""))
	require.NoError(t, err)
	second, err := s.Save(ctx, domain.NewQuote("two", ""))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryStore_SaveDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := domain.NewQuote("one", "")

	saved, err := s.Save(ctx, in)
	require.NoError(t, err)

	assert.Zero(t, in.ID)
	assert.Equal(t, int64(1), saved.ID)
}

func TestMemoryStore_SaveOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	saved, err := s.Save(ctx, domain.NewQuote("original", ""))
	require.NoError(t, err)

	saved.Title = "updated"
	_, err = s.Save(ctx, saved)
	require.NoError(t, err)

	got, err := s.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Title)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStore_SaveExplicitIDAdvancesCounter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	q := domain.NewQuote("explicit", "")
	q.ID = 10
	_, err := s.Save(ctx, q)
	require.NoError(t, err)

	next, err := s.Save(ctx, domain.NewQuote("generated", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(11), next.ID)
}

func TestMemoryStore_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Save(ctx, nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	neg := domain.NewQuote("neg", "")
	neg.ID = -1
	_, err = s.Save(ctx, neg)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.SaveAll(ctx, []*domain.Quote{domain.NewQuote("ok", ""), nil})
	require.ErrorIs(t, err, domain.ErrValidation)

	count, _ := s.Count(ctx)
	assert.Zero(t, count, "a rejected batch stores nothing")
}

func TestMemoryStore_FindByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, domain.NewQuote("one", ""))

	got, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)

	got.Title = "mutated"
	again, _ := s.FindByID(ctx, 1)
	assert.Equal(t, "one", again.Title, "returned quotes are copies")

	_, err = s.FindByID(ctx, 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ExistsCountDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, domain.NewQuote("one", ""), domain.NewQuote("two", ""))

	exists, err := s.ExistsByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteByID(ctx, 2))
	require.NoError(t, s.DeleteByID(ctx, 2), "deleting a missing id is a no-op")

	exists, _ = s.ExistsByID(ctx, 2)
	assert.False(t, exists)

	count, _ := s.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestMemoryStore_Replace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	saved := seed(t, s, domain.NewQuote("one", ""))[0]

	edit := saved.Clone()
	edit.Title = "edited"

	got, err := s.Replace(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)

	require.NoError(t, s.DeleteByID(ctx, saved.ID))

	_, err = s.Replace(ctx, edit)
	require.ErrorIs(t, err, domain.ErrNotFound)

	exists, _ := s.ExistsByID(ctx, saved.ID)
	assert.False(t, exists, "replace never inserts")
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s,
		newQuote("a", "", domain.StatusInactive),
		newQuote("b", "", domain.StatusActive),
		newQuote("c", "", domain.StatusInactive),
	)

	n, err := s.UpdateStatus(ctx, domain.StatusInactive, domain.StatusArchived)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	archived, _ := s.FindByStatus(ctx, domain.StatusArchived)
	assert.Equal(t, []int64{1, 3}, ids(archived))

	active, _ := s.FindByStatus(ctx, domain.StatusActive)
	assert.Equal(t, []int64{2}, ids(active))

	n, err = s.UpdateStatus(ctx, domain.StatusInactive, domain.StatusArchived)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.UpdateStatus(ctx, domain.StatusActive, domain.Status("PENDING"))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemoryStore_DeleteAllResetsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, domain.NewQuote("one", ""), domain.NewQuote("two", ""))

	require.NoError(t, s.DeleteAll(ctx))

	count, _ := s.Count(ctx)
	assert.Zero(t, count)

	q, err := s.Save(ctx, domain.NewQuote("fresh", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.ID)
}

func TestMemoryStore_FindAllOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := range 20 {
		_, err := s.Save(ctx, domain.NewQuote(fmt.Sprintf("q%d", i), ""))
		require.NoError(t, err)
	}

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 20)

	for i, q := range all {
		assert.Equal(t, int64(i+1), q.ID)
	}
}

func TestMemoryStore_Filters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	q1 := newQuote("Work Task 1", "Work", domain.StatusActive, "urgent", "project-a")
	q1.Author = "Ada Lovelace"
	q1.Source = "Notes"
	q1.Publisher = "Taylor"
	q2 := newQuote("Personal Task", "Personal", domain.StatusActive, "home")
	q2.Author = "Grace Hopper"
	q3 := newQuote("Work Task 2", "Work", domain.StatusInactive, "project-b")
	q4 := newQuote("Archived Task", " work ", domain.StatusArchived, "urgent")
	seed(t, s, q1, q2, q3, q4)

	tests := []struct {
		name     string
		find     func() ([]*domain.Quote, error)
		expected []int64
	}{
		{"status active", func() ([]*domain.Quote, error) { return s.FindByStatus(ctx, domain.StatusActive) }, []int64{1, 2}},
		{"status unknown", func() ([]*domain.Quote, error) { return s.FindByStatus(ctx, "BOGUS") }, []int64{}},
		{"category ignores case and space", func() ([]*domain.Quote, error) { return s.FindByCategory(ctx, " WORK") }, []int64{1, 3, 4}},
		{"category blank", func() ([]*domain.Quote, error) { return s.FindByCategory(ctx, "  ") }, []int64{}},
		{"category no partial match", func() ([]*domain.Quote, error) { return s.FindByCategory(ctx, "Wor") }, []int64{}},
		{"tag exact", func() ([]*domain.Quote, error) { return s.FindByTag(ctx, "URGENT") }, []int64{1, 4}},
		{"tag substring", func() ([]*domain.Quote, error) { return s.FindByTag(ctx, "project") }, []int64{1, 3}},
		{"tag blank", func() ([]*domain.Quote, error) { return s.FindByTag(ctx, "") }, []int64{}},
		{"title contains", func() ([]*domain.Quote, error) { return s.FindByTitleContaining(ctx, "task 2") }, []int64{3}},
		{"title blank", func() ([]*domain.Quote, error) { return s.FindByTitleContaining(ctx, " ") }, []int64{}},
		{"author", func() ([]*domain.Quote, error) { return s.FindByAuthor(ctx, "grace hopper") }, []int64{2}},
		{"author blank", func() ([]*domain.Quote, error) { return s.FindByAuthor(ctx, "") }, []int64{}},
		{"source", func() ([]*domain.Quote, error) { return s.FindBySource(ctx, "NOTES") }, []int64{1}},
		{"publisher", func() ([]*domain.Quote, error) { return s.FindByPublisher(ctx, " taylor ") }, []int64{1}},
		{"publisher no match", func() ([]*domain.Quote, error) { return s.FindByPublisher(ctx, "penguin") }, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.find()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestMemoryStore_HealthCheck(t *testing.T) {
	s := NewMemoryStore()

	assert.Equal(t, "quote-store", s.Name())
	require.NoError(t, s.Check(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Check(ctx), context.Canceled)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 50
	const perWorker = 100

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				q, err := s.Save(ctx, newQuote(fmt.Sprintf("w%d-%d", w, i), "Work", domain.StatusActive, "load"))
				if err != nil {
					t.Errorf("save: %v", err)
					return
				}

				if _, err := s.FindByID(ctx, q.ID); err != nil {
					t.Errorf("find: %v", err)
				}

				_, _ = s.FindByCategory(ctx, "work")
				_, _ = s.FindByTag(ctx, "load")
			}
		}()
	}

	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, count)

	all, _ := s.FindAll(ctx)
	seen := make(map[int64]bool, len(all))
	for _, q := range all {
		assert.False(t, seen[q.ID], "duplicate id %d", q.ID)
		seen[q.ID] = true
	}
}

func TestMemoryStore_ConcurrentSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Save(ctx, domain.NewQuote(fmt.Sprintf("q%d", i), ""))
		}()
		go func() {
			defer wg.Done()
			_ = s.DeleteByID(ctx, int64(i))
		}()
	}

	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, count, 100)
}

func BenchmarkMemoryStore_Save(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	q := newQuote("bench", "Work", domain.StatusActive, "a", "b")

	b.ResetTimer()
	for b.Loop() {
		_, _ = s.Save(ctx, q)
	}
}

func BenchmarkMemoryStore_FindByID(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := range 1000 {
		_, _ = s.Save(ctx, domain.NewQuote(fmt.Sprintf("q%d", i), ""))
	}

	b.ResetTimer()
	for i := 0; b.Loop(); i++ {
		_, _ = s.FindByID(ctx, int64(i%1000)+1)
	}
}

func BenchmarkMemoryStore_FindByCategoryParallel(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := range 1000 {
		_, _ = s.Save(ctx, newQuote(fmt.Sprintf("q%d", i), []string{"Work", "Home"}[i%2], domain.StatusActive))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = s.FindByCategory(ctx, "work")
		}
	})
}
