package stream

import "sort"

// Registry tracks the product ids subscribed per channel. A channel entry
// is removed as soon as its product set becomes empty; no empty sets
// persist. The registry is owned by the connection's run loop and is not
// safe for concurrent use.
type Registry struct {
	channels map[string]map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]map[string]struct{}),
	}
}

// Add unions products into the channel's set. Adding zero products leaves
// the registry unchanged.
func (r *Registry) Add(channel string, products []string) {
	if len(products) == 0 {
		return
	}

	set, ok := r.channels[channel]
	if !ok {
		set = make(map[string]struct{}, len(products))
		r.channels[channel] = set
	}
	for _, p := range products {
		set[p] = struct{}{}
	}
}

// Remove subtracts products from the channel's set and returns the ones
// that were actually present, sorted. The channel entry is deleted when
// its set becomes empty.
func (r *Registry) Remove(channel string, products []string) []string {
	set, ok := r.channels[channel]
	if !ok {
		return nil
	}

	var removed []string
	for _, p := range products {
		if _, ok := set[p]; ok {
			delete(set, p)
			removed = append(removed, p)
		}
	}
	if len(set) == 0 {
		delete(r.channels, channel)
	}

	sort.Strings(removed)
	return removed
}

// Products returns the channel's product ids, sorted.
func (r *Registry) Products(channel string) []string {
	set, ok := r.channels[channel]
	if !ok {
		return nil
	}

	products := make([]string, 0, len(set))
	for p := range set {
		products = append(products, p)
	}
	sort.Strings(products)
	return products
}

// Channels returns the subscribed channel names, sorted.
func (r *Registry) Channels() []string {
	channels := make([]string, 0, len(r.channels))
	for ch := range r.channels {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// Snapshot returns a copy of the full channel -> products mapping.
func (r *Registry) Snapshot() map[string][]string {
	out := make(map[string][]string, len(r.channels))
	for ch := range r.channels {
		out[ch] = r.Products(ch)
	}
	return out
}

// Empty reports whether no channel has any products.
func (r *Registry) Empty() bool {
	return len(r.channels) == 0
}
