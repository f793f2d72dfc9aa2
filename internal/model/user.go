// Package model defines domain entities for the application.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingOwnerID is returned when a record has no owner identifier.
var ErrMissingOwnerID = errors.New("userid must not be empty")

// maxRenderedLen caps the String rendering so span attributes and log
// lines stay bounded.
const maxRenderedLen = 256

// UserRecord represents one user's stored metadata.
//
// The record identity is derived from the owner id and is never stored:
// two records with the same owner collide on identity by design, which is
// what makes a write an upsert rather than a second insert. All JSON keys
// are lower case for document store compatibility.
type UserRecord struct {
	OwnerID string `json:"userid"`
	Email   string `json:"email"`
}

// ID returns the derived record identity. It is a pure function of the
// owner id; the current derivation rule is identity-equals-owner.
func (u UserRecord) ID() string {
	return u.OwnerID
}

// Validate checks the record against its field constraints.
func (u UserRecord) Validate() error {
	if u.OwnerID == "" {
		return ErrMissingOwnerID
	}
	return nil
}

// userRecordJSON is the wire shape of a UserRecord. The id field exists
// only on the way out; inbound values are discarded by UnmarshalJSON.
type userRecordJSON struct {
	ID     string `json:"id"`
	UserID string `json:"userid"`
	Email  string `json:"email"`
}

// MarshalJSON emits the derived id alongside the stored fields.
func (u UserRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(userRecordJSON{
		ID:     u.OwnerID,
		UserID: u.OwnerID,
		Email:  u.Email,
	})
}

// UnmarshalJSON populates the record from caller-supplied JSON. Any id in
// the input is ignored so callers cannot override the derivation.
func (u *UserRecord) UnmarshalJSON(data []byte) error {
	var raw userRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.OwnerID = raw.UserID
	u.Email = raw.Email
	return nil
}

// String renders the record for span attributes, capped in length.
func (u UserRecord) String() string {
	s := fmt.Sprintf("id: %s, userid: %s, email: %s", u.ID(), u.OwnerID, u.Email)
	if len(s) > maxRenderedLen {
		return s[:maxRenderedLen]
	}
	return s
}
