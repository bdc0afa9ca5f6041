package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"voice-gateway/internal/models"
)

var phoneFormatting = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone strips formatting so "+91 99110-62767" and "+919911062767" match
func NormalizePhone(phone string) string {
	return phoneFormatting.Replace(strings.TrimSpace(phone))
}

type batchJob struct {
	registeredAt time.Time
	recipients   map[string]models.RecipientContext
}

// RecipientStore maps called phone numbers to the recipient registered by a
// batch job. When several live jobs carry the same number, the job
// registered most recently wins.
type RecipientStore struct {
	mu   sync.RWMutex
	jobs map[string]*batchJob
	// phone -> job ids in registration order, most recent last
	index map[string][]string
	now   func() time.Time
}

func NewRecipientStore() *RecipientStore {
	return &RecipientStore{
		jobs:  make(map[string]*batchJob),
		index: make(map[string][]string),
		now:   time.Now,
	}
}

// RegisterBatch makes every recipient of a job visible at once. Duplicate
// phone numbers within the list resolve to the later entry. Registering a
// known job id replaces its recipients and makes it the most recent job.
func (s *RecipientStore) RegisterBatch(jobID string, recipients []models.RecipientContext) error {
	if jobID == "" {
		return fmt.Errorf("%w: job id is required", ErrInvalidBatch)
	}

	registeredAt := s.now().UTC()
	entries := make(map[string]models.RecipientContext, len(recipients))
	for i, r := range recipients {
		phone := NormalizePhone(r.PhoneNumber)
		if phone == "" {
			return fmt.Errorf("%w: recipient %d has no phone number", ErrInvalidBatch, i)
		}
		entry := r.Clone()
		entry.PhoneNumber = phone
		entry.BatchJobID = jobID
		entry.RegisteredAt = registeredAt
		entries[phone] = entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeJobLocked(jobID)
	s.jobs[jobID] = &batchJob{registeredAt: registeredAt, recipients: entries}
	for phone := range entries {
		s.index[phone] = append(s.index[phone], jobID)
	}
	return nil
}

// Lookup finds the recipient for a called number across all live jobs
func (s *RecipientStore) Lookup(phone string) (models.RecipientContext, error) {
	phone = NormalizePhone(phone)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.index[phone]
	if len(ids) == 0 {
		return models.RecipientContext{}, fmt.Errorf("%w: phone %s", ErrRecipientNotFound, phone)
	}
	job := s.jobs[ids[len(ids)-1]]
	return job.recipients[phone].Clone(), nil
}

// ClearJob drops every recipient owned by jobID. Unknown ids are ignored.
func (s *RecipientStore) ClearJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeJobLocked(jobID)
}

// Jobs summarizes registered jobs, oldest first
func (s *RecipientStore) Jobs() []models.BatchJobSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.BatchJobSummary, 0, len(s.jobs))
	for id, job := range s.jobs {
		out = append(out, models.BatchJobSummary{
			JobID:          id,
			RecipientCount: len(job.recipients),
			RegisteredAt:   job.registeredAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].JobID < out[j].JobID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}

// Len reports the number of registered recipients across all jobs
func (s *RecipientStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, job := range s.jobs {
		n += len(job.recipients)
	}
	return n
}

func (s *RecipientStore) removeJobLocked(jobID string) {
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	for phone := range job.recipients {
		ids := s.index[phone]
		for i, id := range ids {
			if id == jobID {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(s.index, phone)
		} else {
			s.index[phone] = ids
		}
	}
	delete(s.jobs, jobID)
}
