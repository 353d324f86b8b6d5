package models

import "github.com/google/uuid"

// assignID gives new rows an id when the caller left it empty.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
