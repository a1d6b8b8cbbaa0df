package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree/internal/state"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "handsfree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestStoreContacts(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddContact(ctx, state.Contact{ID: "a", Name: "Jane", Phone: "555"}))
			require.NoError(t, s.AddContact(ctx, state.Contact{ID: "b", Name: "Rho", Status: state.StatusOnline}))

			contacts, err := s.Contacts(ctx)
			require.NoError(t, err)
			require.Len(t, contacts, 2)
			assert.Equal(t, state.Contact{ID: "a", Name: "Jane", Phone: "555", Status: state.StatusOffline}, contacts[0])
			assert.Equal(t, state.StatusOnline, contacts[1].Status)
		})
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.AddContact(ctx, state.Contact{ID: "x", Name: "  "}), ErrEmptyName)
			assert.ErrorIs(t, s.AddConfirmation(ctx, state.Confirmation{ID: "y"}), ErrEmptyNumber)

			require.NoError(t, s.AddContact(ctx, state.Contact{ID: "dup", Name: "One"}))
			assert.ErrorIs(t, s.AddContact(ctx, state.Contact{ID: "dup", Name: "Two"}), ErrDuplicateID)

			contacts, err := s.Contacts(ctx)
			require.NoError(t, err)
			assert.Len(t, contacts, 1)
		})
	}
}

func TestStoreConfirmations(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := state.Confirmation{ID: "c1", Type: "flight", Name: "Delta", Number: "123", CreatedAt: at}
			require.NoError(t, s.AddConfirmation(ctx, want))

			got, err := s.Confirmations(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, want.Number, got[0].Number)
			assert.True(t, want.CreatedAt.Equal(got[0].CreatedAt))
		})
	}
}

func TestStoreTranscriptOrder(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			texts := []string{"capture contact", "Ready to capture contact.", "name Jane"}
			origins := []state.Origin{state.OriginUser, state.OriginSystem, state.OriginUser}
			for i, text := range texts {
				require.NoError(t, s.AppendTranscript(ctx, state.TranscriptEntry{
					ID:        string(rune('a' + i)),
					Text:      text,
					Origin:    origins[i],
					Timestamp: base.Add(time.Duration(i) * time.Second),
				}))
			}

			entries, err := s.Transcript(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			for i, e := range entries {
				assert.Equal(t, texts[i], e.Text)
				assert.Equal(t, origins[i], e.Origin)
			}
		})
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "handsfree.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.AddContact(ctx, state.Contact{ID: "a", Name: "Jane"}))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	contacts, err := db.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jane", contacts[0].Name)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	n, err := Seed(ctx, s, DemoContacts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Seed(ctx, s, DemoContacts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	contacts, _ := s.Contacts(ctx)
	require.Len(t, contacts, 2)
	assert.Equal(t, state.StatusOnline, contacts[0].Status)
	assert.Equal(t, state.StatusOffline, contacts[1].Status)
}
