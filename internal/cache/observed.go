package cache

import "context"

// LookupObserver is told the result of every Get: "hit", "miss" or "error".
type LookupObserver interface {
	ObserveCacheLookup(result string)
}

type observed struct {
	Store
	obs LookupObserver
}

// Observed reports Get outcomes of s to obs. A nil obs returns s unchanged.
func Observed(s Store, obs LookupObserver) Store {
	if obs == nil {
		return s
	}
	return observed{Store: s, obs: obs}
}

func (o observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := o.Store.Get(ctx, key)

	switch {
	case err != nil:
		o.obs.ObserveCacheLookup("error")
	case ok:
		o.obs.ObserveCacheLookup("hit")
	default:
		o.obs.ObserveCacheLookup("miss")
	}

	return val, ok, err
}
