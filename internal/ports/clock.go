package ports

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator issues identifiers for new records.
type IDGenerator interface {
	NewID() string
}
