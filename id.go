package drops

import "github.com/xraph/drops/id"

// ID is the primary identifier type for all drops entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
