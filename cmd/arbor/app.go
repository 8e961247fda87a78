package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jacentio/arbor/store"
	"github.com/jacentio/arbor/tree"
)

// app runs one subcommand against an open Store.
type app struct {
	ctx   context.Context
	store *store.Store
	in    io.Reader
	out   io.Writer
}

func (a *app) codec() store.Codec { return a.store.Config().Codec }

func (a *app) delim() string { return a.store.Config().Delimiter }

// value decodes a document argument with the collection codec. "-" reads
// standard input and "@name" reads the file name.
func (a *app) value(arg string) (*tree.Value, error) {
	data, err := a.readArg(arg)
	if err != nil {
		return nil, err
	}
	v, err := a.codec().Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s argument: %w", a.codec().Name(), err)
	}
	return v, nil
}

func (a *app) readArg(arg string) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(a.in)
	case strings.HasPrefix(arg, "@"):
		return os.ReadFile(arg[1:])
	default:
		return []byte(arg), nil
	}
}

func (a *app) print(v *tree.Value) error {
	data, err := a.codec().Encode(v)
	if err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = a.out.Write(data)
	return err
}

// list prints the whole collection, or a tab separated projection when columns
// are given.
func (a *app) list(columns []string) error {
	if len(columns) == 0 {
		c, err := a.store.List(a.ctx)
		if err != nil {
			return err
		}
		return a.print(c.Value())
	}

	rows, err := a.store.Project(a.ctx, columns)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, strings.Join(append([]string{"id"}, columns...), "\t"))
	for _, row := range rows {
		cells := []string{row.ID}
		for _, e := range row.Columns.Entries() {
			cells = append(cells, cell(e.Value))
		}
		fmt.Fprintln(a.out, strings.Join(cells, "\t"))
	}
	return nil
}

func cell(v *tree.Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	return v.String()
}

// get prints a record, or the value at path inside it.
func (a *app) get(id, path string) error {
	record, err := a.store.Get(a.ctx, id)
	if err != nil {
		return err
	}
	if path == "" {
		return a.print(record)
	}
	v, err := tree.NewDoc(record, a.delim()).Get(path)
	if err != nil {
		return err
	}
	return a.print(v)
}

func (a *app) add(id, arg string) error {
	record, err := a.value(arg)
	if err != nil {
		return err
	}
	if _, _, err := a.store.Add(a.ctx, id, record); err != nil {
		return err
	}
	fmt.Fprintln(a.out, id)
	return nil
}

func (a *app) insert(arg string) error {
	record, err := a.value(arg)
	if err != nil {
		return err
	}
	id, _, err := a.store.Insert(a.ctx, record)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, id)
	return nil
}

func (a *app) remove(id string) error {
	removed, err := a.store.Delete(a.ctx, id)
	if err != nil {
		return err
	}
	if removed == nil {
		return nil
	}
	return a.print(removed)
}

func (a *app) edit(id, arg, rename string) error {
	record, err := a.value(arg)
	if err != nil {
		return err
	}
	stored, err := a.store.Edit(a.ctx, id, record, rename)
	if err != nil {
		return err
	}
	return a.print(stored)
}

func (a *app) merge(id, arg, rename string) error {
	delta, err := a.value(arg)
	if err != nil {
		return err
	}
	merged, err := a.store.MergeUpdate(a.ctx, id, delta, "", rename)
	if err != nil {
		return err
	}
	return a.print(merged)
}

func (a *app) set(id, path, arg string) error {
	v, err := a.value(arg)
	if err != nil {
		return err
	}
	merged, err := a.store.MergeField(a.ctx, id, path, v)
	if err != nil {
		return err
	}
	return a.print(merged)
}

func (a *app) patch(id, arg string) error {
	ops, err := a.readArg(arg)
	if err != nil {
		return err
	}
	patched, err := a.store.PatchUpdate(a.ctx, id, ops)
	if err != nil {
		return err
	}
	return a.print(patched)
}

// flatten prints one "path<TAB>value" line per leaf of a record, values as
// compact JSON.
func (a *app) flatten(id string) error {
	record, err := a.store.Get(a.ctx, id)
	if err != nil {
		return err
	}
	for _, e := range record.Flatten(a.delim()).Entries() {
		fmt.Fprintf(a.out, "%s\t%s\n", e.Path, e.Value.String())
	}
	return nil
}
