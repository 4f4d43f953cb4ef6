package main

import (
	"encoding/json"
	"fmt"
	"os"

	"easyref/internal/document"
	"easyref/internal/frontmatter"
	"easyref/internal/locale"
	"easyref/internal/scanner"
	"easyref/internal/settings"
	"easyref/internal/tag"

	"github.com/urfave/cli/v2"
)

// loadSettings reads the settings file, if any, over the defaults for $LANG.
// A language set in the file restarts from the defaults of that language.
func loadSettings(c *cli.Context) (settings.Settings, locale.Translator, error) {
	build := func(tr locale.Translator) (settings.Settings, error) {
		cfg := settings.Default(tr)
		if path := c.String("settings"); path != "" {
			return settings.LoadFile(cfg, path)
		}
		return cfg, nil
	}

	tr := locale.New(os.Getenv("LANG"))
	cfg, err := build(tr)
	if err != nil {
		return settings.Settings{}, tr, err
	}
	if cfg.Language != "" && cfg.Language != tr.Language() {
		tr = locale.New(cfg.Language)
		cfg, err = build(tr)
	}
	return cfg, tr, err
}

func runScan(c *cli.Context) error {
	configureLogging(c)
	if !c.Args().Present() {
		return fmt.Errorf("scan: missing FILE")
	}
	path := c.Args().First()

	kinds := scanner.Kinds
	if names := c.StringSlice("kind"); len(names) > 0 {
		kinds = nil
		for _, name := range names {
			k, ok := scanner.ParseKind(name)
			if !ok {
				return fmt.Errorf("scan: unknown kind %q", name)
			}
			kinds = append(kinds, k)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc := document.New("file://"+path, 0, string(data))
	meta, _ := frontmatter.Parse(doc)
	cfg, tr, err := loadSettings(c)
	if err != nil {
		return err
	}
	figure, table := cfg.Titles(tr)
	opts := scanner.Options{Metadata: meta, FigureTitle: figure, TableTitle: table}

	entities := []scanner.Entity{}
	for _, k := range kinds {
		entities = append(entities, scanner.All(doc, k, opts)...)
	}

	out, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runTag(c *cli.Context) error {
	template := c.Args().First()
	if template == "" {
		cfg, _, err := loadSettings(c)
		if err != nil {
			return err
		}
		template = cfg.FigRefStyle
	}

	g := tag.Default()
	for i := 0; i < c.Int("count"); i++ {
		fmt.Println(g.Generate(template))
	}
	return nil
}
