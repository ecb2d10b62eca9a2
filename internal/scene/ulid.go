// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package scene

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewNodeID generates a new, monotonically increasing node id.
func NewNodeID() NodeID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// ParseNodeID parses a node id string.
func ParseNodeID(s string) (NodeID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return Null, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	return id, nil
}
