package mongo

import "go.mongodb.org/mongo-driver/v2/mongo/options"

// TypeKeyCount returns the number of memoized entity type keys.
func (p *Provider) TypeKeyCount() int {
	n := 0
	p.keys.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// CollectionHandleCount returns the number of cached collection handles.
func (p *Provider) CollectionHandleCount() int {
	n := 0
	p.collections.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ClientOptionsFor exposes the driver options built for a client role.
func (p *Provider) ClientOptionsFor(role string) *options.ClientOptions {
	return p.clientOptions(role)
}

var TimeToTicks = timeToTicks
