package store

import (
	"context"
	"errors"
	"fmt"

	"handsfree/internal/state"
)

// DemoContacts are the contacts a fresh install starts with.
var DemoContacts = []state.Contact{
	{ID: "demo-1", Name: "ROHACAN.HIRONS", Status: state.StatusOnline, Phone: "555-123-4567", Email: "rho@example.com", Details: "Project Lead for the Titan initiative."},
	{ID: "demo-2", Name: "JANE DOE", Status: state.StatusOffline, Phone: "555-987-6543", Email: "jane.d@example.com", Details: "Met at the Mars conference."},
}

// Seed appends contacts whose ids are not present yet. Statuses are kept as given.
func Seed(ctx context.Context, s Store, contacts []state.Contact) (int, error) {
	added := 0
	for _, c := range contacts {
		err := s.AddContact(ctx, c)
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", c.ID, err)
		}
		added++
	}
	return added, nil
}
