package main

import (
	"fmt"
	"os"
	"runtime"

	"easyref/internal/server"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func configureLogging(c *cli.Context) {
	var path *string
	if f := c.String("logfile"); f != "" {
		path = &f
	}
	commonlog.Configure(c.Int("verbose"), path)
}

func serve(c *cli.Context) error {
	runtime.GOMAXPROCS(4)
	configureLogging(c)

	s := server.NewServer(server.Options{
		SettingsPath: c.String("settings"),
		Version:      Version,
	})
	if err := s.RunStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:    "easyref",
		Version: Version,
		Usage:   "cross-reference language server for pandoc-crossref Markdown",
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "write logs to `FILE` instead of stderr",
			},
			&cli.IntFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Value:   1,
				Usage:   "log verbosity, 0 disables logging",
			},
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "load settings from the YAML `FILE` and reload it on change",
				EnvVars: []string{"EASYREF_SETTINGS"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the language server on stdio (default)",
				Action: serve,
			},
			{
				Name:      "scan",
				Usage:     "print the labeled figures, tables and sections of a file as JSON",
				ArgsUsage: "FILE",
				Action:    runScan,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "only list `KIND` (fig, tbl or sec); repeatable",
					},
				},
			},
			{
				Name:      "tag",
				Usage:     "expand a tag template such as fig{tag:3}",
				ArgsUsage: "TEMPLATE",
				Action:    runTag,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Value:   1,
						Usage:   "number of tags to print",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
