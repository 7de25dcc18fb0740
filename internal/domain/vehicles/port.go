package vehicles

import "context"

// Registry port: plate → registered owner. Lookup returns (nil, nil) when
// the plate has no registry entry.
type Registry interface {
	Lookup(ctx context.Context, plate string) (*Vehicle, error)
}
