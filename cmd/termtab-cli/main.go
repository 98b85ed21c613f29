// Command termtab-cli is an operator tool for a running termtabd,
// built with alecthomas/kong the way the teacher's cmd/tempo-cli
// builds its own subcommand surface, and olekukonko/tablewriter for
// tabular stats output.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/loxia-systems/termtab/internal/term"
	"github.com/loxia-systems/termtab/internal/termtabrpc"
)

type context struct {
	client *termtabrpc.Client
}

type createCmd struct {
	Name       string `arg:"" help:"Table name."`
	Semantics  string `enum:"set,set_unique,bag,dbag" default:"set" help:"Table semantics."`
	KeyPos     int    `default:"1" help:"1-indexed key tuple position."`
	Compressed bool   `help:"Store entries deflate-compressed."`
}

func (c *createCmd) Run(ctx *context) error {
	opts := parseOpts(c.Semantics, c.KeyPos, c.Compressed)
	return ctx.client.CreateTable(c.Name, opts)
}

type dropCmd struct {
	Name string `arg:"" help:"Table name."`
}

func (c *dropCmd) Run(ctx *context) error {
	return ctx.client.DropTable(c.Name)
}

type lookupCmd struct {
	Table string `arg:"" help:"Table name."`
	Key   string `arg:"" help:"Key, as an atom."`
}

func (c *lookupCmd) Run(ctx *context) error {
	objs, err := ctx.client.Lookup(c.Table, term.Intern(c.Key))
	if err != nil {
		return err
	}
	for _, o := range objs {
		fmt.Println(o.String())
	}
	return nil
}

type deleteAllCmd struct {
	Table string `arg:"" help:"Table name."`
}

func (c *deleteAllCmd) Run(ctx *context) error {
	return ctx.client.DeleteAllObjects(c.Table)
}

type deleteCmd struct {
	Table string `arg:"" help:"Table name."`
	Key   string `arg:"" help:"Key, as an atom."`
}

func (c *deleteCmd) Run(ctx *context) error {
	removed, err := ctx.client.Delete(c.Table, term.Intern(c.Key))
	if err != nil {
		return err
	}
	fmt.Printf("removed %d entries\n", len(removed))
	return nil
}

type fixCmd struct {
	Table string `arg:"" help:"Table name."`
}

func (c *fixCmd) Run(ctx *context) error { return ctx.client.Fix(c.Table) }

type unfixCmd struct {
	Table string `arg:"" help:"Table name."`
}

func (c *unfixCmd) Run(ctx *context) error { return ctx.client.Unfix(c.Table) }

type statsCmd struct {
	Table string `arg:"" help:"Table name."`
}

func (c *statsCmd) Run(ctx *context) error {
	st, err := ctx.client.Stats(c.Table)
	if err != nil {
		return err
	}
	printStats(c.Table, st)
	return nil
}

var cli struct {
	Addr      string       `default:"127.0.0.1:7654" help:"termtabd RPC address."`
	Create    createCmd    `cmd:"" help:"Create a table."`
	Drop      dropCmd      `cmd:"" help:"Drop a table."`
	Lookup    lookupCmd    `cmd:"" help:"Look up every live object under a key."`
	Delete    deleteCmd    `cmd:"" help:"Delete every live object under a key."`
	DeleteAll deleteAllCmd `cmd:"" name:"delete-all" help:"Delete every object in a table."`
	Fix       fixCmd       `cmd:"" help:"Fix a table (defer deletions)."`
	Unfix     unfixCmd     `cmd:"" help:"Unfix a table, reclaiming deferred deletions."`
	Stats     statsCmd     `cmd:"" help:"Print table diagnostics."`
}

func main() {
	k := kong.Parse(&cli, kong.Name("termtab-cli"), kong.Description("Operator CLI for termtabd."))

	c, err := termtabrpc.Dial(cli.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termtab-cli: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	err = k.Run(&context{client: c})
	k.FatalIfErrorf(err)
}
