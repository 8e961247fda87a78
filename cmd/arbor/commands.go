package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/scott-cotton/cli"
)

// MainConfig holds the global options. Flags override the configuration file.
type MainConfig struct {
	Config    string `cli:"name=config aliases=c desc='TOML configuration file'"`
	File      string `cli:"name=file desc='collection file, selects the file backend'"`
	Format    string `cli:"name=format desc='collection and output format: json or yaml'"`
	Delimiter string `cli:"name=delim desc='path delimiter'"`
	Strict    bool   `cli:"name=strict desc='fail instead of overwriting a concurrent change'"`
	Verbose   bool   `cli:"name=v desc='log debug output to stderr'"`

	Main *cli.Command

	ctx context.Context
	app *app
}

// fileConfig loads the configuration file and applies the flags over it.
func (cfg *MainConfig) fileConfig() (FileConfig, error) {
	fc, err := LoadFileConfig(cfg.Config)
	if err != nil {
		return fc, err
	}
	if cfg.File != "" {
		fc.Backend.Kind = BackendFile
		fc.Backend.Path = cfg.File
	}
	if cfg.Format != "" {
		fc.Format = cfg.Format
	}
	if cfg.Delimiter != "" {
		fc.Delimiter = cfg.Delimiter
	}
	if cfg.Strict {
		fc.Backend.Strict = true
	}
	return fc, fc.validate()
}

func (cfg *MainConfig) logger() *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// open connects to the configured collection. Subcommands call it after
// argument checks so usage errors never touch the backend.
func (cfg *MainConfig) open(cc *cli.Context) (*app, error) {
	if cfg.app != nil {
		cfg.app.out = cc.Out
		return cfg.app, nil
	}
	fc, err := cfg.fileConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	s, err := OpenStore(cfg.ctx, fc, cfg.logger())
	if err != nil {
		return nil, err
	}
	cfg.app = &app{ctx: cfg.ctx, store: s, in: cc.In, out: cc.Out}
	return cfg.app, nil
}

// MainCommand returns the arbor command tree.
func MainCommand() *cli.Command {
	cfg := &MainConfig{ctx: context.Background()}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "arbor").
		WithSynopsis("arbor [opts] command [args]").
		WithDescription(mainDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return arborMain(cfg, cc, args)
		}).
		WithSubs(
			ListCommand(cfg),
			GetCommand(cfg),
			AddCommand(cfg),
			InsertCommand(cfg),
			RemoveCommand(cfg),
			EditCommand(cfg),
			MergeCommand(cfg),
			SetCommand(cfg),
			PatchCommand(cfg),
			FlattenCommand(cfg),
			ConfigCommand(cfg))
}

const mainDescription = `arbor edits a collection of documents stored as one JSON or YAML blob.

The collection maps record IDs to documents. Every command loads the whole
collection, changes it and saves it back. Documents are addressed with
delimited paths such as address.city or tags[0].

Document arguments are parsed in the collection format. An argument of "-"
reads standard input and "@file" reads a file.

The backend is a local file (default arbor.json) or a DynamoDB item, chosen in
the TOML file given with -config:

  delimiter = "."
  format = "json"

  [backend]
  kind = "dynamo"
  table = "arbor-collections"
  key = "users"
  strict = true`

func arborMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// subConfig is shared by subcommands without options of their own.
type subConfig struct {
	*cli.Command
	*MainConfig
}

func simpleCommand(main *MainConfig, name, synopsis, desc string, nargs [2]int,
	run func(a *app, args []string) error) *cli.Command {
	cfg := &subConfig{MainConfig: main}
	return cli.NewCommandAt(&cfg.Command, name).
		WithSynopsis(synopsis).
		WithDescription(desc).
		WithRun(func(cc *cli.Context, args []string) error {
			if err := checkArgs(synopsis, args, nargs); err != nil {
				return err
			}
			a, err := cfg.open(cc)
			if err != nil {
				return err
			}
			return run(a, args)
		})
}

// checkArgs requires between nargs[0] and nargs[1] arguments.
func checkArgs(synopsis string, args []string, nargs [2]int) error {
	if len(args) < nargs[0] || len(args) > nargs[1] {
		return fmt.Errorf("%w: usage: arbor %s", cli.ErrUsage, synopsis)
	}
	return nil
}

type listConfig struct {
	*cli.Command
	*MainConfig

	Columns string `cli:"name=columns aliases=cols desc='comma separated flattened paths to print as a table'"`
}

func ListCommand(main *MainConfig) *cli.Command {
	cfg := &listConfig{MainConfig: main}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "ls").
		WithAliases("list").
		WithSynopsis("ls [-columns a,b.c]").
		WithDescription("print every record, or a table of the given columns").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			args, err := cfg.Parse(cc, args)
			if err != nil {
				return err
			}
			if len(args) != 0 {
				return fmt.Errorf("%w: ls takes no arguments", cli.ErrUsage)
			}
			a, err := cfg.open(cc)
			if err != nil {
				return err
			}
			return a.list(splitColumns(cfg.Columns))
		})
}

func splitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func GetCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "get", "get <id> [path]", "print a record or the value at a path inside it", [2]int{1, 2},
		func(a *app, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return a.get(args[0], path)
		})
}

func AddCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "add", "add <id> <document>", "store a document under a new id", [2]int{2, 2},
		func(a *app, args []string) error {
			return a.add(args[0], args[1])
		})
}

func InsertCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "insert", "insert <document>", "store a document under a generated UUID and print the id", [2]int{1, 1},
		func(a *app, args []string) error {
			return a.insert(args[0])
		})
}

func RemoveCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "rm", "rm <id>", "delete a record and print it", [2]int{1, 1},
		func(a *app, args []string) error {
			return a.remove(args[0])
		})
}

type renameConfig struct {
	*cli.Command
	*MainConfig

	Rename string `cli:"name=rename desc='store the result under this id instead'"`
}

func renameCommand(main *MainConfig, name, desc string, run func(a *app, id, doc, rename string) error) *cli.Command {
	cfg := &renameConfig{MainConfig: main}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	synopsis := name + " [-rename <id>] <id> <document>"
	return cli.NewCommandAt(&cfg.Command, name).
		WithSynopsis(synopsis).
		WithDescription(desc).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			args, err := cfg.Parse(cc, args)
			if err != nil {
				return err
			}
			if err := checkArgs(synopsis, args, [2]int{2, 2}); err != nil {
				return err
			}
			a, err := cfg.open(cc)
			if err != nil {
				return err
			}
			return run(a, args[0], args[1], cfg.Rename)
		})
}

func EditCommand(main *MainConfig) *cli.Command {
	return renameCommand(main, "edit", "replace a record", (*app).edit)
}

func MergeCommand(main *MainConfig) *cli.Command {
	return renameCommand(main, "merge", "merge a partial document into a record, path by path", (*app).merge)
}

func SetCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "set", "set <id> <path> <value>", "set one path of a record", [2]int{3, 3},
		func(a *app, args []string) error {
			return a.set(args[0], args[1], args[2])
		})
}

func PatchCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "patch", "patch <id> <json-patch>", "apply an RFC 6902 JSON Patch to a record", [2]int{2, 2},
		func(a *app, args []string) error {
			return a.patch(args[0], args[1])
		})
}

func FlattenCommand(main *MainConfig) *cli.Command {
	return simpleCommand(main, "flatten", "flatten <id>", "print the leaf paths and values of a record", [2]int{1, 1},
		func(a *app, args []string) error {
			return a.flatten(args[0])
		})
}

func ConfigCommand(main *MainConfig) *cli.Command {
	cfg := &subConfig{MainConfig: main}
	return cli.NewCommandAt(&cfg.Command, "config").
		WithSynopsis("config").
		WithDescription("print the effective configuration as TOML").
		WithRun(func(cc *cli.Context, args []string) error {
			fc, err := cfg.fileConfig()
			if err != nil {
				return err
			}
			return fc.Encode(cc.Out)
		})
}
