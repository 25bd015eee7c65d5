package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/agc-assembler/yulasm"

	cli "github.com/urfave/cli/v2"
)

var summaryTemplate = template.Must(template.New("summary").Parse(
	"{{.File}}: {{.Cards}} cards, {{.Fatal}} fatal, {{.NonFatal}} non-fatal\n"))

type summary struct {
	File     string
	Cards    int
	Fatal    int
	NonFatal int
}

func assemble(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("no source file given", 1)
	}
	file := args.First()

	opts := yul.Options{
		File:      file,
		Source:    yul.SourceDialect(strings.ToUpper(c.String("source"))),
		Assembler: yul.AssemblerDialect(strings.ToUpper(c.String("assembler"))),
		Formatted: c.Bool("formatted"),
		Open: func(path string) (io.Reader, error) {
			return os.Open(path)
		},
	}
	if eol := c.String("eol"); eol != "" {
		opts.EOL = strings.Split(eol, ",")
	}

	res, err := yul.Assemble(opts)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := summaryTemplate.Execute(os.Stdout, summary{
		File:     file,
		Cards:    len(res.Cards),
		Fatal:    res.Tally.Fatal,
		NonFatal: res.Tally.NonFatal,
	}); err != nil {
		return cli.Exit(err, 1)
	}

	if !res.OK() {
		return cli.Exit("", 1)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "yulasm"
	app.Usage = "Two-pass cross-assembler for Apollo Guidance Computer source"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:      "assemble",
			Aliases:   []string{"asm"},
			Usage:     "Assemble a source file and report fatal/non-fatal counts",
			ArgsUsage: "file",
			Action:    assemble,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "source",
					Value: string(yul.SourceAGC),
					Usage: "source dialect: RAY, AGC4, B1965, B1966, A1966, A1967, AGC",
				},
				&cli.StringFlag{
					Name:  "assembler",
					Value: string(yul.AssemblerGAP),
					Usage: "output-convention dialect: RAY, Y1965, Y1966-EARLY, Y1966-LATE, Y1967, GAP",
				},
				&cli.StringFlag{
					Name:  "eol",
					Usage: "comma-separated ordered list of listing-section identifiers",
				},
				&cli.BoolFlag{
					Name:  "formatted",
					Value: true,
					Usage: "emit page breaks and headers",
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
