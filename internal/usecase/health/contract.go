package health

import "context"

// DBPinger checks content store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks attribute cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
