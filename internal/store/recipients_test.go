package store

import (
	"fmt"
	"sync"
	"testing"

	"voice-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientStoreRegisterAndLookup(t *testing.T) {
	s := NewRecipientStore()
	recipients := []models.RecipientContext{
		{PhoneNumber: "+919911062767", Name: "Amar", Email: "amar@x.com"},
		{PhoneNumber: "+15551234567", Name: "Bea", DynamicVariables: map[string]string{"plan": "gold"}},
	}
	require.NoError(t, s.RegisterBatch("job1", recipients))

	for _, r := range recipients {
		got, err := s.Lookup(r.PhoneNumber)
		require.NoError(t, err)
		assert.Equal(t, r.Name, got.Name)
		assert.Equal(t, r.Email, got.Email)
		assert.Equal(t, r.DynamicVariables, got.DynamicVariables)
		assert.Equal(t, "job1", got.BatchJobID)
	}

	s.ClearJob("job1")
	for _, r := range recipients {
		_, err := s.Lookup(r.PhoneNumber)
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	}
	assert.Equal(t, 0, s.Len())
}

func TestRecipientStoreDuplicateWithinBatchLastWins(t *testing.T) {
	s := NewRecipientStore()
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{
		{PhoneNumber: "+15550000001", Name: "First"},
		{PhoneNumber: "+15550000001", Name: "Second"},
	}))

	got, err := s.Lookup("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Name)
	assert.Equal(t, 1, s.Len())
}

func TestRecipientStoreMostRecentJobWins(t *testing.T) {
	s := NewRecipientStore()
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{{PhoneNumber: "+15550000001", Name: "Old"}}))
	require.NoError(t, s.RegisterBatch("job2", []models.RecipientContext{{PhoneNumber: "+15550000001", Name: "New"}}))

	got, err := s.Lookup("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "job2", got.BatchJobID)

	// clearing the newer job falls back to the older registration
	s.ClearJob("job2")
	got, err = s.Lookup("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Name)

	// clearing an older job leaves the newer one in place
	require.NoError(t, s.RegisterBatch("job3", []models.RecipientContext{{PhoneNumber: "+15550000001", Name: "Newest"}}))
	s.ClearJob("job1")
	got, err = s.Lookup("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "Newest", got.Name)
}

func TestRecipientStoreReRegisterReplacesJob(t *testing.T) {
	s := NewRecipientStore()
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{
		{PhoneNumber: "+15550000001", Name: "A"},
		{PhoneNumber: "+15550000002", Name: "B"},
	}))
	require.NoError(t, s.RegisterBatch("job2", []models.RecipientContext{{PhoneNumber: "+15550000001", Name: "Other"}}))
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{{PhoneNumber: "+15550000001", Name: "A2"}}))

	got, err := s.Lookup("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)

	_, err = s.Lookup("+15550000002")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestRecipientStoreNormalizesPhone(t *testing.T) {
	s := NewRecipientStore()
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{{PhoneNumber: " +91 99110-62767 ", Name: "Amar"}}))

	got, err := s.Lookup("+919911062767")
	require.NoError(t, err)
	assert.Equal(t, "+919911062767", got.PhoneNumber)

	_, err = s.Lookup("+91 (991) 106.2767")
	assert.NoError(t, err)
}

func TestRecipientStoreInvalidBatchIsAtomic(t *testing.T) {
	s := NewRecipientStore()

	assert.ErrorIs(t, s.RegisterBatch("", []models.RecipientContext{{PhoneNumber: "+1"}}), ErrInvalidBatch)

	err := s.RegisterBatch("job1", []models.RecipientContext{
		{PhoneNumber: "+15550000001"},
		{PhoneNumber: "  "},
	})
	assert.ErrorIs(t, err, ErrInvalidBatch)

	_, err = s.Lookup("+15550000001")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.Empty(t, s.Jobs())
}

func TestRecipientStoreClearUnknownJob(t *testing.T) {
	s := NewRecipientStore()
	assert.NotPanics(t, func() { s.ClearJob("missing") })
}

func TestRecipientStoreJobs(t *testing.T) {
	s := NewRecipientStore()
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{{PhoneNumber: "+1"}, {PhoneNumber: "+2"}}))
	require.NoError(t, s.RegisterBatch("job2", []models.RecipientContext{{PhoneNumber: "+3"}}))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	counts := map[string]int{}
	for _, j := range jobs {
		counts[j.JobID] = j.RecipientCount
	}
	assert.Equal(t, map[string]int{"job1": 2, "job2": 1}, counts)
	assert.Equal(t, 3, s.Len())
}

func TestRecipientStoreReturnsCopies(t *testing.T) {
	s := NewRecipientStore()
	vars := map[string]string{"plan": "gold"}
	require.NoError(t, s.RegisterBatch("job1", []models.RecipientContext{{PhoneNumber: "+1", DynamicVariables: vars}}))
	vars["plan"] = "mutated"

	got, err := s.Lookup("+1")
	require.NoError(t, err)
	assert.Equal(t, "gold", got.DynamicVariables["plan"])

	got.DynamicVariables["plan"] = "mutated"
	again, err := s.Lookup("+1")
	require.NoError(t, err)
	assert.Equal(t, "gold", again.DynamicVariables["plan"])
}

// A lookup racing a registration sees either none or all of the batch.
func TestRecipientStoreNoPartialBatchVisibility(t *testing.T) {
	s := NewRecipientStore()

	const size = 200
	batch := make([]models.RecipientContext, size)
	for i := range batch {
		batch[i] = models.RecipientContext{PhoneNumber: fmt.Sprintf("+1555%07d", i)}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			assert.NoError(t, s.RegisterBatch("job", batch))
			s.ClearJob("job")
		}
		assert.NoError(t, s.RegisterBatch("job", batch))
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				n := s.Len()
				assert.True(t, n == 0 || n == size, "partial batch visible: %d", n)
			}
		}()
	}
	wg.Wait()

	for _, r := range batch {
		_, err := s.Lookup(r.PhoneNumber)
		assert.NoError(t, err)
	}
}
