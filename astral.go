/*
 *  astral.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/biogo/external"
)

// Astral builds the command line of the external species tree inference
// binary. The tool itself is opaque; only its flags, exit status and log
// output are of interest here.
type Astral struct {
	// Usage: astral -i <file> -o <file> [options]
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}astral{{end}}"` // astral

	// Files:
	InFile      string `buildarg:"{{with .}}-i{{split}}{{.}}{{end}}"`         // -i <genetrees>
	OutFile     string `buildarg:"{{with .}}-o{{split}}{{.}}{{end}}"`         // -o <speciestree>
	MappingFile string `buildarg:"{{with .}}-a{{split}}{{.}}{{end}}"`         // -a <mapping>
	BootList    string `buildarg:"{{with .}}-b{{split}}{{.}}{{end}}"`         // -b <bootlist>
	Reps        int    `buildarg:"{{if .}}-r{{split}}{{.}}{{end}}"`           // -r <reps>
	Outgroup    string `buildarg:"{{with .}}--outgroup{{split}}{{.}}{{end}}"` // --outgroup <name>
}

// BuildCommand builds the command line for Astral
func (a Astral) BuildCommand() (*exec.Cmd, error) {
	if a.Cmd == "" {
		a.Cmd = DefaultAstralCmd
	}
	cl, err := external.Build(a)
	if err != nil {
		return nil, err
	}
	return exec.Command(cl[0], cl[1:]...), nil
}

// Astraler runs the external species tree inference step. All tool output
// goes to LogFile; a non-zero exit is fatal and the error names the log
// file for diagnosis.
type Astraler struct {
	TreesFile    string // input gene trees
	OutFile      string // inferred species tree
	MappingFile  string // optional mapping file (-a)
	BootListFile string // optional bootstrap list (-b)
	Outgroup     string // optional outgroup species
	Reps         int    // optional bootstrap replicate count (-r)
	LogFile      string // defaults to the output file with a .log extension
	Cmd          string // defaults to DefaultAstralCmd
}

// Run invokes the external binary and waits for it to finish
func (r *Astraler) Run() error {
	if r.TreesFile == "" || r.OutFile == "" {
		return fmt.Errorf("input trees and output file are both required")
	}
	for _, required := range []string{r.TreesFile, r.MappingFile, r.BootListFile} {
		if required == "" {
			continue
		}
		if _, err := os.Stat(required); err != nil {
			return fmt.Errorf("input file `%s` is not readable: %w", required, err)
		}
	}

	cmd, err := Astral{
		Cmd:         r.Cmd,
		InFile:      r.TreesFile,
		OutFile:     r.OutFile,
		MappingFile: r.MappingFile,
		BootList:    r.BootListFile,
		Reps:        r.Reps,
		Outgroup:    r.Outgroup,
	}.BuildCommand()
	if err != nil {
		return err
	}

	logFile := r.LogFile
	if logFile == "" {
		logFile = RemoveExt(r.OutFile) + ".log"
	}
	lf, err := os.Create(logFile)
	if err != nil {
		return fmt.Errorf("cannot create log file `%s`: %w", logFile, err)
	}
	defer lf.Close()
	cmd.Stdout = lf
	cmd.Stderr = lf

	log.Noticef("Running `%s`", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("species tree inference failed (%v), see log `%s`", err, logFile)
	}
	log.Noticef("Species tree written to `%s`, tool log in `%s`", r.OutFile, logFile)
	return nil
}
