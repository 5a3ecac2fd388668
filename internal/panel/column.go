package panel

import "time"

// Column is a named derived series aligned one-to-one with a panel's
// observations. Columns are pure functions of a panel plus operation
// parameters; recomputing with the same inputs yields identical values.
type Column struct {
	Name string `json:"name"`
	// Values maps entity id to the per-position series, index-aligned with
	// that entity's observations.
	Values map[string][]Value `json:"values"`
}

// At returns the column value at the entity-relative position, or the
// missing sentinel when the entity or position is unknown.
func (c *Column) At(entityID string, i int) Value {
	vs, ok := c.Values[entityID]
	if !ok || i < 0 || i >= len(vs) {
		return Missing()
	}
	return vs[i]
}

// AtTime addresses the column by (entity, timestamp) using the panel the
// column was derived from. The timestamp must match an observation exactly.
func (c *Column) AtTime(p *Panel, entityID string, ts time.Time) Value {
	i, ok := p.Position(entityID, ts)
	if !ok {
		return Missing()
	}
	return c.At(entityID, i)
}

// Enriched pairs an immutable panel with derived columns. Attaching a column
// never touches the base panel.
type Enriched struct {
	*Panel
	columns map[string]*Column
}

// WithColumns returns an enriched view over the panel. Columns with
// duplicate names keep the last one attached.
func (p *Panel) WithColumns(cols ...*Column) *Enriched {
	e := &Enriched{
		Panel:   p,
		columns: make(map[string]*Column, len(cols)),
	}
	for _, c := range cols {
		e.columns[c.Name] = c
	}
	return e
}

// Column returns an attached derived column by name.
func (e *Enriched) Column(name string) (*Column, bool) {
	c, ok := e.columns[name]
	return c, ok
}

// ColumnNames lists attached columns in no particular order.
func (e *Enriched) ColumnNames() []string {
	names := make([]string, 0, len(e.columns))
	for n := range e.columns {
		names = append(names, n)
	}
	return names
}

// Row is one observation flattened for export, with derived values keyed by
// column name. Derived carries the sentinel as-is; consumers must not
// coerce a missing value to zero.
type Row struct {
	EntityID  string             `json:"entity_id"`
	Timestamp time.Time          `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
	Derived   map[string]Value   `json:"derived,omitempty"`
}

// Rows exports the enriched panel as flat rows, entities in lexical order,
// each entity's observations in time order.
func (e *Enriched) Rows() []Row {
	rows := make([]Row, 0, e.total)
	for _, entityID := range e.order {
		s := e.entities[entityID]
		for i, o := range s.obs {
			row := Row{
				EntityID:  o.EntityID,
				Timestamp: o.Timestamp,
				Metrics:   o.Metrics,
			}
			if len(e.columns) > 0 {
				row.Derived = make(map[string]Value, len(e.columns))
				for name, col := range e.columns {
					row.Derived[name] = col.At(entityID, i)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
