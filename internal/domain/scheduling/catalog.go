package scheduling

// defaultTimes is the clinic day in 30-minute slots. The catalog is fixed for
// the lifetime of the process; nothing mutates it.
var defaultTimes = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"12:00", "12:30", "13:00", "13:30", "14:00", "14:30",
	"15:00", "15:30", "16:00", "16:30",
}

// Catalog is the fixed, ordered set of bookable time-of-day labels. Construct
// it once and share it by reference; all lookups are pure.
type Catalog struct {
	times []string
	index map[string]int
}

// NewCatalog builds a catalog from an ordered sequence of slot labels.
func NewCatalog(times []string) *Catalog {
	c := &Catalog{
		times: make([]string, len(times)),
		index: make(map[string]int, len(times)),
	}
	copy(c.times, times)
	for i, t := range c.times {
		c.index[t] = i
	}
	return c
}

// DefaultCatalog returns the standard clinic-day catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultTimes)
}

// Times returns the ordered slot labels.
func (c *Catalog) Times() []string {
	out := make([]string, len(c.times))
	copy(out, c.times)
	return out
}

// Contains reports whether label is a valid slot label.
func (c *Catalog) Contains(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Len returns the number of slots in a clinic day.
func (c *Catalog) Len() int { return len(c.times) }
