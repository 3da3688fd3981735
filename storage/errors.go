package storage

import "errors"

// ErrNotFound is returned by Get-style operations when the entity does not
// exist, mirroring store.ErrNotFound in the registry package this
// interface is grounded on.
var ErrNotFound = errors.New("storage: not found")
