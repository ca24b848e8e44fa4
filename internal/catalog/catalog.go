package catalog

import (
	"errors"

	"github.com/0xADE/ade-run/internal/entry"
	"github.com/0xADE/ade-run/internal/ranker"
)

// ErrUnknownMode is returned for a custom mode that has no pool yet
var ErrUnknownMode = errors.New("unknown mode")

// Catalog holds every discovered entry, partitioned by mode, in arrival order.
// It is owned by a single goroutine and is not safe for concurrent use.
type Catalog struct {
	desktop  []entry.DesktopEntry // every entry as discovered, duplicates included
	distinct []int                // index of the first entry of every name
	seen     map[string]struct{}
	weights  map[string]uint8
	custom   map[string][]string
}

// View is the matched slice of one mode
type View struct {
	Mode    entry.Mode
	Desktop []entry.DesktopEntry
	Custom  []string
}

// Len returns the number of rows in the view
func (v View) Len() int {
	if v.Mode.IsDesktop() {
		return len(v.Desktop)
	}
	return len(v.Custom)
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		seen:    make(map[string]struct{}),
		weights: make(map[string]uint8),
		custom:  make(map[string][]string),
	}
}

// AddDesktop appends a discovered desktop entry
func (c *Catalog) AddDesktop(e entry.DesktopEntry) {
	c.desktop = append(c.desktop, e)
	if _, ok := c.seen[e.Name]; !ok {
		c.seen[e.Name] = struct{}{}
		c.distinct = append(c.distinct, len(c.desktop)-1)
	}
}

// AddMode creates the pool of a custom mode if it does not exist yet
func (c *Catalog) AddMode(name string) {
	if _, ok := c.custom[name]; !ok {
		c.custom[name] = []string{}
	}
}

// AddCustom appends one line to the pool of a custom mode, creating the pool
func (c *Catalog) AddCustom(mode, text string) {
	c.custom[mode] = append(c.custom[mode], text)
}

// SetWeights replaces the usage weights used for ranking desktop entries
func (c *Catalog) SetWeights(weights map[string]uint8) {
	c.weights = make(map[string]uint8, len(weights))
	for name, w := range weights {
		c.weights[name] = w
	}
}

// SetWeight updates the usage weight of one desktop entry
func (c *Catalog) SetWeight(name string, weight uint8) {
	c.weights[name] = weight
}

// Weight returns the usage weight of a desktop entry, zero when unknown
func (c *Catalog) Weight(name string) uint8 {
	return c.weights[name]
}

// DesktopCount returns the number of discovered desktop entries, duplicates included
func (c *Catalog) DesktopCount() int {
	return len(c.desktop)
}

// CustomPool returns the pool of a custom mode
func (c *Catalog) CustomPool(mode string) ([]string, error) {
	pool, ok := c.custom[mode]
	if !ok {
		return nil, ErrUnknownMode
	}
	return pool, nil
}

// TakeDesktop returns up to n desktop entries in arrival order, one per name
func (c *Catalog) TakeDesktop(n int) []entry.DesktopEntry {
	n = min(n, len(c.distinct))
	result := make([]entry.DesktopEntry, 0, n)
	for _, i := range c.distinct[:n] {
		result = append(result, c.desktop[i])
	}
	return result
}

// TakeCustom returns up to n lines of a custom mode in arrival order.
// An unknown mode yields no lines.
func (c *Catalog) TakeCustom(mode string, n int) []string {
	pool, err := c.CustomPool(mode)
	if err != nil {
		return []string{}
	}
	n = min(n, len(pool))
	return append([]string{}, pool[:n]...)
}

// MatchDesktop ranks desktop entries against a non-empty query,
// one entry per name
func (c *Catalog) MatchDesktop(query string) []entry.DesktopEntry {
	names := make([]string, len(c.distinct))
	for i, idx := range c.distinct {
		names[i] = c.desktop[idx].Name
	}

	matches := ranker.Rank(query, names, func(i int) uint8 {
		return c.weights[names[i]]
	})

	result := make([]entry.DesktopEntry, 0, len(matches))
	for _, m := range matches {
		result = append(result, c.desktop[c.distinct[m.Index]])
	}
	return result
}

// MatchCustom ranks the lines of a custom mode against a non-empty query
// and returns at most limit of them. An unknown mode yields no lines.
func (c *Catalog) MatchCustom(mode, query string, limit int) []string {
	pool, err := c.CustomPool(mode)
	if err != nil {
		return []string{}
	}

	matches := ranker.Rank(query, pool, nil)
	n := min(limit, len(matches))
	result := make([]string, 0, n)
	for _, m := range matches[:n] {
		result = append(result, m.Text)
	}
	return result
}

// Match computes the view of mode for query. The empty query takes the
// first entries in arrival order; any other query goes through the ranker.
// emptyLimit bounds the empty-query view, customLimit bounds custom views.
func (c *Catalog) Match(mode entry.Mode, query string, emptyLimit, customLimit int) View {
	view := View{Mode: mode}
	switch {
	case mode.IsDesktop() && query == "":
		view.Desktop = c.TakeDesktop(emptyLimit)
	case mode.IsDesktop():
		view.Desktop = c.MatchDesktop(query)
	case query == "":
		view.Custom = c.TakeCustom(mode.Name, min(emptyLimit, customLimit))
	default:
		view.Custom = c.MatchCustom(mode.Name, query, customLimit)
	}
	return view
}
