// Command liquid renders Liquid templates from the command line.
//
//	liquid render page.html --data data.yaml --root ./views
//	echo '{{ name | upcase }}' | liquid render - --set name=world
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/sschuldenzucker/liquidjs"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Render RenderCmd `cmd:"" default:"withargs" help:"Render a template to stdout"`
}

// RenderCmd renders a single template with data from YAML files and
// --set overrides.
type RenderCmd struct {
	Template string `arg:"" help:"Template file to render, or '-' for stdin"`

	Data    []string          `help:"YAML data file(s), merged in order" short:"d" type:"existingfile"`
	Set     map[string]string `help:"Set a top-level string variable (name=value)" short:"s"`
	Root    []string          `help:"Search root(s) for partial templates" short:"r" type:"existingdir"`
	Extname string            `help:"Default extension for partial names" default:""`

	Strict    bool   `help:"Error on unknown filters"`
	Static    bool   `help:"Disable dynamic partial name resolution"`
	Async     bool   `help:"Render in asynchronous mode"`
	StepLimit uint64 `help:"Abort after this many render steps (0 = unlimited)"`
}

// Run executes the render command.
func (c *RenderCmd) Run() error {
	env := liquid.NewEnvironment()
	if len(c.Root) > 0 {
		env.SetRoot(c.Root...)
	}
	if c.Extname != "" {
		env.SetExtname(c.Extname)
	}
	env.SetStrictFilters(c.Strict)
	env.SetDynamicPartials(!c.Static)
	env.SetStepLimit(c.StepLimit)

	data := make(map[string]any)
	for _, file := range c.Data {
		raw, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
		for k, v := range doc {
			data[k] = v
		}
	}
	for k, v := range c.Set {
		data[k] = v
	}

	source, name, err := c.readTemplate()
	if err != nil {
		return err
	}
	tmpl, err := env.ParseString(source)
	if err != nil {
		return err
	}

	var out string
	if c.Async {
		out, err = tmpl.RenderAsync(data).Await()
	} else {
		out, err = tmpl.Render(data)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err = io.WriteString(os.Stdout, out)
	return err
}

func (c *RenderCmd) readTemplate() (source, name string, err error) {
	if c.Template == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(raw), "<stdin>", nil
	}
	raw, err := os.ReadFile(c.Template)
	if err != nil {
		return "", "", err
	}
	return string(raw), c.Template, nil
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("liquid"),
		kong.Description("Render Liquid templates."),
		kong.UsageOnError(),
	)
	if err := ktx.Run(); err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}
