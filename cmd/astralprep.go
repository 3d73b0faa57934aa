/*
 *  astralprep.go
 *  cmd
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	logging "github.com/op/go-logging"
	"github.com/phylotools/astralprep"
	"github.com/urfave/cli"
)

var log = logging.MustGetLogger("main")

// init customizes how cli lays out the command interface
func init() {
	cli.AppHelpTemplate = `
   _   ___ _____ ___    _   _    ___ ___ ___ ___
  /_\ / __|_   _| _ \  /_\ | |  | _ \ _ \ __| _ \
 / _ \\__ \ | | |   / / _ \| |__|  _/   / _||  _/
/_/ \_\___/ |_| |_|_\/_/ \_\____|_| |_|_\___|_|

` + cli.AppHelpTemplate
}

// banner prints the separate steps
func banner(message string) {
	message = "* " + message + " *"
	log.Noticef(strings.Repeat("*", len(message)))
	log.Noticef(message)
	log.Noticef(strings.Repeat("*", len(message)))
}

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(astralprep.BackendFormatter)

	app := cli.NewApp()
	app.Compiled = time.Now()
	app.Name = "astralprep"
	app.Usage = "Prepare IQ-TREE gene trees for ASTRAL species tree inference"
	app.Version = astralprep.Version

	collectFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "pattern",
			Usage: "Glob pattern for gene tree files",
			Value: astralprep.DefaultTreePattern,
		},
		cli.StringFlag{
			Name:  "list",
			Usage: "Write the list of collected files to `FILE`",
		},
	}

	convertFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "bootlist",
			Usage: "List file naming bootstrap replicate tree files",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "Number of concurrent bootstrap rewriters (0 = all CPUs)",
		},
	}

	runFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "cmd",
			Usage: "Path of the ASTRAL executable",
			Value: astralprep.DefaultAstralCmd,
		},
		cli.StringFlag{
			Name:  "mapping",
			Usage: "Mapping file passed to ASTRAL as -a",
		},
		cli.StringFlag{
			Name:  "bootlist",
			Usage: "Bootstrap list file passed to ASTRAL as -b",
		},
		cli.StringFlag{
			Name:  "outgroup",
			Usage: "Outgroup species name",
		},
		cli.IntFlag{
			Name:  "reps",
			Usage: "Number of bootstrap replicates",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "ASTRAL log file (default: output file with .log extension)",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "collect",
			Usage: "Gather per-locus gene tree files into one combined file",
			UsageText: `
	astralprep collect treedir genetrees.trees [options]

Collect function:
Scan a directory of IQ-TREE outputs and concatenate every valid Newick tree
into a single combined gene tree file, one tree per line. Files that are
empty or fail to parse are skipped with a warning.
`,
			Flags: collectFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					_ = cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify treedir and output file", 1)
				}
				p := astralprep.Collecter{
					TreeDir:     c.Args().Get(0),
					OutFile:     c.Args().Get(1),
					Pattern:     c.String("pattern"),
					OutListFile: c.String("list"),
				}
				return p.Run()
			},
		},
		{
			Name:  "map",
			Usage: "Build the species to leaf label mapping file",
			UsageText: `
	astralprep map species.txt genetrees.trees mapping.txt

Map function:
Given a list of base species names (one per line) and a combined gene tree
file, classify every leaf label under the species name that is its longest
delimiter-bounded prefix, and write the grouping in the ASTRAL -a mapping
format. Labels matching no species are reported at the end of the run.
`,
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					_ = cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify species file, trees file and output file", 1)
				}
				p := astralprep.Mapper{
					NamesFile: c.Args().Get(0),
					TreesFile: c.Args().Get(1),
					OutFile:   c.Args().Get(2),
				}
				return p.Run()
			},
		},
		{
			Name:  "convert",
			Usage: "Rewrite gene-labeled trees into species-labeled trees",
			UsageText: `
	astralprep convert genetrees.trees mapping.txt outbase [options]

Convert function:
Replace every leaf label of the primary tree file (and, with --bootlist, of
each bootstrap replicate) by its species name from the mapping file. The
outputs are <outbase>.tre, the directory <outbase>_bootstraps/ and the list
file <outbase>_bootstraps.txt pointing at the rewritten replicates.
`,
			Flags: convertFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					_ = cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify trees file, mapping file and output basename", 1)
				}
				p := astralprep.Converter{
					TreesFile:    c.Args().Get(0),
					MappingFile:  c.Args().Get(1),
					OutBase:      c.Args().Get(2),
					BootListFile: c.String("bootlist"),
					Workers:      c.Int("workers"),
				}
				return p.Run()
			},
		},
		{
			Name:  "run",
			Usage: "Invoke ASTRAL on a prepared gene tree file",
			UsageText: `
	astralprep run genetrees.trees speciestree.tre [options]

Run function:
Invoke the external ASTRAL binary with the given input and output files.
The tool's stdout and stderr go to a log file; a non-zero exit status stops
the run and the error names the log file for diagnosis.
`,
			Flags: runFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					_ = cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify trees file and output file", 1)
				}
				p := astralprep.Astraler{
					TreesFile:    c.Args().Get(0),
					OutFile:      c.Args().Get(1),
					Cmd:          c.String("cmd"),
					MappingFile:  c.String("mapping"),
					BootListFile: c.String("bootlist"),
					Outgroup:     c.String("outgroup"),
					Reps:         c.Int("reps"),
					LogFile:      c.String("log"),
				}
				return p.Run()
			},
		},
		{
			Name:  "pipeline",
			Usage: "Run collect-map-convert-run steps sequentially",
			UsageText: `
	astralprep pipeline treedir species.txt outbase [options]

Pipeline:
A convenience driver function. Chain the following steps sequentially.

- collect
- map
- convert
- run
`,
			Flags: append(collectFlags, runFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					_ = cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify treedir, species file and output basename", 1)
				}
				treeDir := c.Args().Get(0)
				namesFile := c.Args().Get(1)
				outBase := c.Args().Get(2)

				banner(fmt.Sprintf("Collect started (dir = %s)", treeDir))
				collecter := astralprep.Collecter{
					TreeDir:     treeDir,
					Pattern:     c.String("pattern"),
					OutFile:     outBase + ".genetrees.trees",
					OutListFile: outBase + ".genetrees.txt",
				}
				if err := collecter.Run(); err != nil {
					return err
				}

				banner("Mapping leaf labels to species")
				mapper := astralprep.Mapper{
					NamesFile: namesFile,
					TreesFile: collecter.OutFile,
					OutFile:   outBase + ".mapping.txt",
				}
				if err := mapper.Run(); err != nil {
					return err
				}

				banner("Converting gene trees to species labels")
				converter := astralprep.Converter{
					TreesFile:   collecter.OutFile,
					MappingFile: mapper.OutFile,
					OutBase:     outBase,
				}
				if err := converter.Run(); err != nil {
					return err
				}

				banner("Species tree inference started")
				astraler := astralprep.Astraler{
					TreesFile: converter.OutTreeFile,
					OutFile:   outBase + ".speciestree.tre",
					Cmd:       c.String("cmd"),
					Outgroup:  c.String("outgroup"),
					Reps:      c.Int("reps"),
					LogFile:   c.String("log"),
				}
				return astraler.Run()
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
