package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/agc-assembler/yulasm"

	"github.com/urfave/cli"
)

var summaryTemplate = template.Must(template.New("summary").Parse(
	"{{.File}}: {{.Cards}} cards, {{.Fatal}} fatal, {{.NonFatal}} non-fatal\n"))

type summary struct {
	File     string
	Cards    int
	Fatal    int
	NonFatal int
}

func assemble(file, source, assembler, eol string, formatted bool) error {
	opts := yul.Options{
		File:      file,
		Source:    yul.SourceDialect(strings.ToUpper(source)),
		Assembler: yul.AssemblerDialect(strings.ToUpper(assembler)),
		Formatted: formatted,
		Open: func(path string) (io.Reader, error) {
			return os.Open(path)
		},
	}
	if eol != "" {
		opts.EOL = strings.Split(eol, ",")
	}

	res, err := yul.Assemble(opts)
	if err != nil {
		return err
	}

	if err := summaryTemplate.Execute(os.Stdout, summary{
		File:     file,
		Cards:    len(res.Cards),
		Fatal:    res.Tally.Fatal,
		NonFatal: res.Tally.NonFatal,
	}); err != nil {
		return err
	}

	if !res.OK() {
		return fmt.Errorf("%d fatal diagnostic(s)", res.Tally.Fatal)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "yulasm-legacy"
	app.Usage = "Two-pass cross-assembler for Apollo Guidance Computer source"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "assemble",
			Aliases:   []string{"asm"},
			Usage:     "Assemble a source file and report fatal/non-fatal counts",
			ArgsUsage: "file",
			Action: func(c *cli.Context) error {
				args := c.Args()
				if len(args) < 1 {
					return cli.NewExitError("no source file given", 1)
				}
				file := args[0]
				if err := assemble(file, c.String("source"), c.String("assembler"), c.String("eol"), c.Bool("formatted")); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "source",
					Value: string(yul.SourceAGC),
					Usage: "source dialect: RAY, AGC4, B1965, B1966, A1966, A1967, AGC",
				},
				cli.StringFlag{
					Name:  "assembler",
					Value: string(yul.AssemblerGAP),
					Usage: "output-convention dialect: RAY, Y1965, Y1966-EARLY, Y1966-LATE, Y1967, GAP",
				},
				cli.StringFlag{
					Name:  "eol",
					Usage: "comma-separated ordered list of listing-section identifiers",
				},
				cli.BoolTFlag{
					Name:  "formatted",
					Usage: "emit page breaks and headers",
				},
			},
		},
	}
	app.Run(os.Args)
}
