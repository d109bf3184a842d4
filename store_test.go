package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Advisors(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()

	id, err := s.CreateAdvisor(ctx, "pat@example.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateAdvisor(ctx, "PAT@example.com", "hash")
	assert.True(t, errors.Is(err, ErrDuplicate))

	a, err := s.GetAdvisorByEmail(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	_, err = s.GetAdvisorByID(ctx, id+100)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_ContactsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()

	for _, name := range []string{"first", "second", "third"} {
		_, err := s.CreateContact(ctx, Contact{Ref: name + "-ref", Name: name})
		require.NoError(t, err)
	}

	list, err := s.ListContacts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "second", list[1].Name)

	c, err := s.GetContactByRef(ctx, "first-ref")
	require.NoError(t, err)
	assert.Equal(t, "first", c.Name)
}

func TestMemoryStore_CountEvents(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	for _, calc := range []string{"tax", "tfsa", "tax", "rrsp", "tfsa", "tax"} {
		require.NoError(t, s.RecordEvent(ctx, AnalyticsEvent{SessionID: "s", Calculator: calc}))
	}

	counts, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EventCount{
		{Calculator: "tax", Count: 3},
		{Calculator: "tfsa", Count: 2},
		{Calculator: "rrsp", Count: 1},
	}, counts)
}

func TestMemoryStore_TFSARecordsScopedToContact(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()

	id, err := s.AddTFSARecord(ctx, StoredTFSARecord{ContactID: 1, Kind: RecordContribution, Year: 2020, AmountCents: 500000})
	require.NoError(t, err)
	_, err = s.AddTFSARecord(ctx, StoredTFSARecord{ContactID: 1, Kind: RecordWithdrawal, Year: 2023, AmountCents: 100000})
	require.NoError(t, err)

	recs, err := s.ListTFSARecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2023, recs[0].Year)

	assert.True(t, errors.Is(s.DeleteTFSARecord(ctx, 2, id), ErrNotFound))
	require.NoError(t, s.DeleteTFSARecord(ctx, 1, id))
	recs, err = s.ListTFSARecords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = s.GetTFSAProfile(ctx, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, s.SaveTFSAProfile(ctx, StoredTFSAProfile{ContactID: 1, BirthYear: 1990}))
	p, err := s.GetTFSAProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1990, p.BirthYear)
}

func TestMemoryStore_WithError(t *testing.T) {
	boom := errors.New("boom")
	s := newMemoryStore().withError(boom)
	_, err := s.ListContacts(context.Background(), 10)
	assert.ErrorIs(t, err, boom)
}
