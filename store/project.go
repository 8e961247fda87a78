package store

import (
	"context"
	"time"

	"github.com/jacentio/arbor/tree"
)

// Row is one record projected onto a set of columns.
type Row struct {
	ID      string
	Columns *tree.FlatView
}

// Project flattens every record and picks the leaves named by columns, in
// collection order. Columns are flattened paths without the leading delimiter,
// e.g. "address.city" or "tags[0]". A column with no leaf in a record is filled
// with an empty string.
func (s *Store) Project(ctx context.Context, columns []string) (_ []Row, err error) {
	defer s.observe("project", time.Now(), &err)

	c, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, c.Len())
	for _, rec := range c.Records() {
		flat := rec.Value.Flatten(s.config.Delimiter).Trimmed(s.config.Delimiter)
		cols := tree.NewFlatView()
		for _, col := range columns {
			if v, ok := flat.Get(col); ok {
				cols.Set(col, v)
				continue
			}
			cols.Set(col, tree.String(""))
		}
		rows = append(rows, Row{ID: rec.Key, Columns: cols})
	}
	return rows, nil
}
