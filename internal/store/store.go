package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"handsfree/internal/state"
)

var (
	ErrEmptyName   = errors.New("contact name is required")
	ErrEmptyNumber = errors.New("confirmation number is required")
	ErrDuplicateID = errors.New("duplicate id")
)

// Store is the append-only persistence collaborator. Nothing is ever updated or deleted.
type Store interface {
	AddContact(ctx context.Context, c state.Contact) error
	AddConfirmation(ctx context.Context, c state.Confirmation) error
	AppendTranscript(ctx context.Context, e state.TranscriptEntry) error

	Contacts(ctx context.Context) ([]state.Contact, error)
	Confirmations(ctx context.Context) ([]state.Confirmation, error)
	Transcript(ctx context.Context) ([]state.TranscriptEntry, error)

	Close() error
}

func validateContact(c state.Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func validateConfirmation(c state.Confirmation) error {
	if c.Number == "" {
		return ErrEmptyNumber
	}
	return nil
}

// Memory keeps everything in process. Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	contacts      []state.Contact
	confirmations []state.Confirmation
	transcript    []state.TranscriptEntry
	ids           map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

func (m *Memory) claim(id string) error {
	if _, ok := m.ids[id]; ok {
		return ErrDuplicateID
	}
	m.ids[id] = struct{}{}
	return nil
}

func (m *Memory) AddContact(_ context.Context, c state.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = state.StatusOffline
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim("contact:" + c.ID); err != nil {
		return err
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *Memory) AddConfirmation(_ context.Context, c state.Confirmation) error {
	if err := validateConfirmation(c); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim("confirmation:" + c.ID); err != nil {
		return err
	}
	m.confirmations = append(m.confirmations, c)
	return nil
}

func (m *Memory) AppendTranscript(_ context.Context, e state.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcript = append(m.transcript, e)
	return nil
}

func (m *Memory) Contacts(context.Context) ([]state.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]state.Contact(nil), m.contacts...), nil
}

func (m *Memory) Confirmations(context.Context) ([]state.Confirmation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]state.Confirmation(nil), m.confirmations...), nil
}

func (m *Memory) Transcript(context.Context) ([]state.TranscriptEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]state.TranscriptEntry(nil), m.transcript...), nil
}

func (m *Memory) Close() error { return nil }
