package main

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryStore keeps everything in process. Used by tests and by STORE=memory for
// demos without Postgres; nothing survives a restart.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	advisors map[int64]Advisor
	contacts map[int64]Contact
	events   []AnalyticsEvent
	profiles map[int64]StoredTFSAProfile
	records  map[int64]StoredTFSARecord
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		advisors: make(map[int64]Advisor),
		contacts: make(map[int64]Contact),
		profiles: make(map[int64]StoredTFSAProfile),
		records:  make(map[int64]StoredTFSARecord),
	}
}

// withError makes every later call fail with err.
func (m *memoryStore) withError(err error) *memoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
	return m
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) CreateAdvisor(_ context.Context, email, passwordHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	for _, a := range m.advisors {
		if strings.EqualFold(a.Email, email) {
			return 0, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	a := Advisor{ID: m.id(), Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	m.advisors[a.ID] = a
	return a.ID, nil
}

func (m *memoryStore) GetAdvisorByEmail(_ context.Context, email string) (Advisor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Advisor{}, m.failWith
	}
	for _, a := range m.advisors {
		if a.Email == email {
			return a, nil
		}
	}
	return Advisor{}, ErrNotFound
}

func (m *memoryStore) GetAdvisorByID(_ context.Context, id int64) (Advisor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Advisor{}, m.failWith
	}
	a, ok := m.advisors[id]
	if !ok {
		return Advisor{}, ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) CreateContact(_ context.Context, c Contact) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Contact{}, m.failWith
	}
	c.ID = m.id()
	c.CreatedAt = time.Now().UTC()
	m.contacts[c.ID] = c
	return c, nil
}

func (m *memoryStore) GetContactByRef(_ context.Context, ref string) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Contact{}, m.failWith
	}
	for _, c := range m.contacts {
		if c.Ref == ref {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (m *memoryStore) ListContacts(_ context.Context, limit int) ([]Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) RecordEvent(_ context.Context, e AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	e.ID = m.id()
	e.CreatedAt = time.Now().UTC()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryStore) CountEvents(_ context.Context) ([]EventCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	counts := map[string]int64{}
	for _, e := range m.events {
		counts[e.Calculator]++
	}
	out := make([]EventCount, 0, len(counts))
	for calc, n := range counts {
		out = append(out, EventCount{Calculator: calc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Calculator < out[j].Calculator
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

func (m *memoryStore) SaveTFSAProfile(_ context.Context, p StoredTFSAProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.profiles[p.ContactID] = p
	return nil
}

func (m *memoryStore) GetTFSAProfile(_ context.Context, contactID int64) (StoredTFSAProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return StoredTFSAProfile{}, m.failWith
	}
	p, ok := m.profiles[contactID]
	if !ok {
		return StoredTFSAProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) ListTFSARecords(_ context.Context, contactID int64) ([]StoredTFSARecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []StoredTFSARecord
	for _, r := range m.records {
		if r.ContactID == contactID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year == out[j].Year {
			return out[i].ID > out[j].ID
		}
		return out[i].Year > out[j].Year
	})
	return out, nil
}

func (m *memoryStore) AddTFSARecord(_ context.Context, r StoredTFSARecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	r.ID = m.id()
	r.CreatedAt = time.Now().UTC()
	m.records[r.ID] = r
	return r.ID, nil
}

func (m *memoryStore) DeleteTFSARecord(_ context.Context, contactID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	r, ok := m.records[id]
	if !ok || r.ContactID != contactID {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}
