// Command bundle is the CLI front end: it scans os.Args by hand (no flags
// library — see DESIGN.md), wires an InputOptions value together, and runs
// the crawler and writer over it.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bundlecraft/bundlecraft/internal/config"
	"github.com/bundlecraft/bundlecraft/internal/crawler"
	"github.com/bundlecraft/bundlecraft/internal/fs"
	"github.com/bundlecraft/bundlecraft/internal/lexer"
	"github.com/bundlecraft/bundlecraft/internal/logger"
	"github.com/bundlecraft/bundlecraft/internal/resolver"
	"github.com/bundlecraft/bundlecraft/internal/writer"
)

const helpText = `Usage:
  bundle [options] <entry> -o <output>

Options:
  -o <path>          Output bundle path (required)
  -map=inline         Embed the source map as a data: URL comment
  -map=<path>         Write the source map to <path> (default <output>.map)
  -map=none           Emit no source map (default)
  -browser            Apply the nearest "browser" field's substitution map
  -es6                Recognize ".mjs" as an implicit extension
  -es6-everywhere     Treat every file as potentially using module syntax
  -external=<name>    Mark a bare module name external (repeatable)
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := logger.NewLog(logger.Warning)
	printer := logger.NewPrinter(logger.StderrWriter())

	options, entryPath, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if options == nil {
		fmt.Print(helpText)
		return 0
	}

	fsys := fs.RealFS()
	lex, err := lexer.NewTreeSitterLexer()
	if err != nil {
		log.AddErrorf(entryPath, "failed to start dependency lexer: %v", err)
		printer.PrintAll(log.Msgs())
		return 1
	}

	r := resolver.New(fsys, options)
	c := crawler.New(fsys, r, lex, options)

	g, err := c.Crawl(context.Background())
	if err != nil {
		log.AddError(entryPath, err.Error())
		printer.PrintAll(log.Msgs())
		return 1
	}

	w := writer.New(options)
	if err := w.WriteFiles(fsys, g); err != nil {
		log.AddError(options.OutputPath, err.Error())
		printer.PrintAll(log.Msgs())
		return 1
	}

	printer.PrintAll(log.Msgs())
	return 0
}

// parseArgs returns (nil, "", nil) when help was requested, which the caller
// treats as "print help text and exit 0".
func parseArgs(args []string) (*config.InputOptions, string, error) {
	options := &config.InputOptions{External: map[string]bool{}}
	entryPath := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h", arg == "-help", arg == "--help":
			return nil, "", nil

		case arg == "-o":
			i++
			if i >= len(args) {
				return nil, "", fmt.Errorf("-o requires an argument")
			}
			options.OutputPath = args[i]

		case strings.HasPrefix(arg, "-o="):
			options.OutputPath = arg[len("-o="):]

		case arg == "-map=inline":
			options.Map = config.MapModeInline

		case arg == "-map=none":
			options.Map = config.MapModeNone

		case strings.HasPrefix(arg, "-map="):
			options.Map = config.MapModeFile
			options.MapPath = arg[len("-map="):]

		case arg == "-browser":
			options.ForBrowser = true

		case arg == "-es6":
			options.ES6Syntax = true

		case arg == "-es6-everywhere":
			options.ES6SyntaxEverywhere = true
			options.ES6Syntax = true

		case strings.HasPrefix(arg, "-external="):
			options.External[arg[len("-external="):]] = true

		case strings.HasPrefix(arg, "-"):
			return nil, "", fmt.Errorf("unrecognized option: %s", arg)

		default:
			if entryPath != "" {
				return nil, "", fmt.Errorf("only one entry path is supported, got %q and %q", entryPath, arg)
			}
			entryPath = arg
		}
	}

	if entryPath == "" {
		return nil, "", fmt.Errorf("missing entry path")
	}
	if options.OutputPath == "" {
		return nil, "", fmt.Errorf("missing -o output path")
	}

	abs, err := absEntryPath(entryPath)
	if err != nil {
		return nil, "", err
	}
	options.EntryPath = abs
	return options, abs, nil
}

func absEntryPath(entryPath string) (string, error) {
	if strings.HasPrefix(entryPath, "/") {
		return entryPath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return wd + "/" + entryPath, nil
}
