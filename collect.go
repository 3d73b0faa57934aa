/*
 *  collect.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Collecter gathers the per-locus gene tree files written by IQ-TREE into a
// single combined tree file, one Newick tree per line, plus a list file
// naming the source of every collected tree. Files that are empty or fail
// Newick parsing are skipped with a warning.
type Collecter struct {
	TreeDir     string // directory holding the per-locus tree files
	Pattern     string // glob pattern, defaults to DefaultTreePattern
	OutFile     string // combined gene tree file
	OutListFile string // optional list of collected source files
	// Collection accounting
	NumCollected int
	NumSkipped   int
}

// Run scans the tree directory and writes the combined tree file
func (r *Collecter) Run() error {
	if r.TreeDir == "" || r.OutFile == "" {
		return fmt.Errorf("tree directory and output file are both required")
	}
	pattern := r.Pattern
	if pattern == "" {
		pattern = DefaultTreePattern
	}
	matches, err := filepath.Glob(filepath.Join(r.TreeDir, pattern))
	if err != nil {
		return fmt.Errorf("bad tree file pattern `%s`: %w", pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no files matching `%s` under `%s`", pattern, r.TreeDir)
	}
	sort.Strings(matches)
	log.Noticef("Found %d files matching `%s` under `%s`", len(matches), pattern, r.TreeDir)

	out, err := os.Create(r.OutFile)
	if err != nil {
		return fmt.Errorf("cannot create `%s`: %w", r.OutFile, err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	var collected []string
	for _, treeFile := range matches {
		trees, err := ReadTrees(treeFile)
		if err != nil {
			log.Errorf("Skipped `%s`: %v", treeFile, err)
			r.NumSkipped++
			continue
		}
		if len(trees) == 0 {
			log.Warningf("Skipped `%s`: no trees found", treeFile)
			r.NumSkipped++
			continue
		}
		for _, tree := range trees {
			fmt.Fprintln(w, tree)
		}
		collected = append(collected, treeFile)
		r.NumCollected++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if r.NumCollected == 0 {
		return fmt.Errorf("none of the %d candidate files under `%s` held a valid tree", len(matches), r.TreeDir)
	}

	if r.OutListFile != "" {
		if err := writeListFile(r.OutListFile, collected); err != nil {
			return err
		}
	}
	log.Noticef("Collected %s tree files into `%s`", Percentage(r.NumCollected, len(matches)), r.OutFile)
	return nil
}

// writeListFile writes one path per line
func writeListFile(filename string, paths []string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create list file `%s`: %w", filename, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return w.Flush()
}
