package store

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"

	"handsfree/internal/state"
)

// ExportVCard writes contacts as a vCard 4.0 stream.
func ExportVCard(w io.Writer, contacts []state.Contact) error {
	enc := vcard.NewEncoder(w)
	for _, c := range contacts {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldUID, c.ID)
		card.SetValue(vcard.FieldFormattedName, c.Name)
		card.SetName(&vcard.Name{GivenName: c.Name})
		if c.Phone != "" {
			card.SetValue(vcard.FieldTelephone, c.Phone)
		}
		if c.Email != "" {
			card.SetValue(vcard.FieldEmail, c.Email)
		}
		if c.Details != "" {
			card.SetValue(vcard.FieldNote, c.Details)
		}
		vcard.ToV4(card)
		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("encode %s: %w", c.ID, err)
		}
	}
	return nil
}

// ImportVCard reads contacts from a vCard stream. Cards without a usable name are
// skipped; imported contacts are offline and keep their UID when present.
func ImportVCard(r io.Reader) ([]state.Contact, error) {
	dec := vcard.NewDecoder(r)

	var out []state.Contact
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("decode vcard: %w", err)
		}

		c := state.Contact{
			ID:     card.Value(vcard.FieldUID),
			Name:   strings.TrimSpace(card.PreferredValue(vcard.FieldFormattedName)),
			Phone:  card.PreferredValue(vcard.FieldTelephone),
			Email:  card.PreferredValue(vcard.FieldEmail),
			Status: state.StatusOffline,
		}
		if c.Name == "" {
			if n := card.Name(); n != nil {
				c.Name = strings.TrimSpace(n.GivenName + " " + n.FamilyName)
			}
		}
		if c.Name == "" {
			continue
		}
		if note := card.Get(vcard.FieldNote); note != nil {
			c.Details = note.Value
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		out = append(out, c)
	}
	return out, nil
}
