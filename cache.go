package arbor

// Fields holds the memoized values of a cache unit.
type Fields map[string]any

// Unit is a named, independently invalidatable memoized value.
type Unit struct {
	Valid  bool
	Fields Fields
}

// CacheEventKind identifies a cache event.
type CacheEventKind uint8

const (
	CacheUpdate     CacheEventKind = iota // a unit was recomputed and marked valid
	CacheInvalidate                       // a unit was marked invalid
)

// CacheEvent is delivered to listeners registered with Cache.On.
type CacheEvent struct {
	Kind CacheEventKind
	Unit string
}

type cacheListener struct {
	id uint64
	fn func(CacheEvent)
}

// Cache is a dependency-aware memoization store. Units are declared with
// Define, recomputed by their owner and stored with Update, and dropped with
// Invalidate, which cascades depth-first to every unit that depends on them.
//
// Operations on names that were never defined are silent no-ops.
type Cache struct {
	units     map[string]*Unit
	deps      map[string][]string
	listeners [2][]cacheListener
	nextID    uint64

	// visiting holds the units reached by the outermost Invalidate call in
	// progress; depth counts nested calls.
	visiting map[string]bool
	depth    int
}

// NewCache returns an empty cache with its cascade listener installed.
func NewCache() *Cache {
	c := &Cache{
		units: make(map[string]*Unit),
		deps:  make(map[string][]string),
	}
	c.On(CacheInvalidate, c.cascade)
	return c
}

// Define registers name as an invalid unit depending on deps. Calling it
// again resets validity and overwrites the dependency list.
func (c *Cache) Define(name string, deps ...string) {
	u, ok := c.units[name]
	if !ok {
		u = &Unit{Fields: Fields{}}
		c.units[name] = u
	}
	u.Valid = false
	c.deps[name] = append([]string(nil), deps...)
}

// DefineAll defines every name with the same dependency list.
func (c *Cache) DefineAll(names []string, deps ...string) {
	for _, name := range names {
		c.Define(name, deps...)
	}
}

// Get returns the unit, or nil when name is undefined.
func (c *Cache) Get(name string) *Unit {
	return c.units[name]
}

// Test reports whether name exists and is valid.
func (c *Cache) Test(name string) bool {
	u := c.units[name]
	return u != nil && u.Valid
}

// Dependencies returns the dependency list of name. The returned slice MUST
// NOT be mutated.
func (c *Cache) Dependencies(name string) []string {
	return c.deps[name]
}

// Update merges data into the unit, overwriting existing keys and keeping
// untouched ones, then marks it valid.
func (c *Cache) Update(name string, data Fields) {
	u := c.units[name]
	if u == nil {
		return
	}
	for k, v := range data {
		u.Fields[k] = v
	}
	u.Valid = true
	c.emit(CacheEvent{Kind: CacheUpdate, Unit: name})
}

// Invalidate marks each named unit invalid and cascades to every unit that
// depends on it, whether or not the named unit was valid. Events are only
// emitted for units that were valid. A unit is visited at most once per
// call, so cyclic dependencies terminate.
func (c *Cache) Invalidate(names ...string) {
	if c.depth == 0 {
		if c.visiting == nil {
			c.visiting = make(map[string]bool)
		}
		clear(c.visiting)
	}
	c.depth++
	defer func() { c.depth-- }()

	for _, name := range names {
		u := c.units[name]
		if u == nil || c.visiting[name] {
			continue
		}
		c.visiting[name] = true
		if !u.Valid {
			c.cascade(CacheEvent{Kind: CacheInvalidate, Unit: name})
			continue
		}
		u.Valid = false
		c.emit(CacheEvent{Kind: CacheInvalidate, Unit: name})
	}
}

// On subscribes fn to events of the given kind. The returned func removes
// the subscription; calling it more than once is harmless.
func (c *Cache) On(kind CacheEventKind, fn func(CacheEvent)) (off func()) {
	c.nextID++
	id := c.nextID
	c.listeners[kind] = append(c.listeners[kind], cacheListener{id: id, fn: fn})
	return func() {
		ls := c.listeners[kind]
		for i, l := range ls {
			if l.id == id {
				c.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (c *Cache) emit(ev CacheEvent) {
	// Listeners may unsubscribe while we iterate.
	ls := c.listeners[ev.Kind]
	for i := 0; i < len(ls); i++ {
		ls[i].fn(ev)
	}
}

// cascade invalidates every unit whose dependency list contains ev.Unit.
func (c *Cache) cascade(ev CacheEvent) {
	for name, deps := range c.deps {
		for _, d := range deps {
			if d == ev.Unit {
				c.Invalidate(name)
				break
			}
		}
	}
}
