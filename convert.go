/*
 *  convert.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/shenwei356/xopen"
)

// Converter rewrites gene-labeled tree files into species-labeled ones,
// following a previously generated mapping file. It processes one primary
// tree file plus the bootstrap replicate files named by an optional list
// file. Outputs are `<OutBase>.tre`, the directory `<OutBase>_bootstraps/`
// and the list file `<OutBase>_bootstraps.txt`.
type Converter struct {
	TreesFile    string // primary gene tree file
	BootListFile string // optional list of bootstrap tree files
	MappingFile  string // mapping file in ASTRAL -a format
	OutBase      string // basename for all outputs
	Workers      int    // bootstrap rewriting concurrency, defaults to NumCPU
	// Output files
	OutTreeFile     string
	OutBootDir      string
	OutBootListFile string
	// Bootstrap accounting
	NumBootProcessed int
	NumBootFailed    int
}

// RewriteTokens replaces every whole token of a Newick document that equals
// a mapped leaf label with its species name. A token is a maximal run of
// characters outside the structural set `( ) , : ;` and whitespace, so
// branch lengths and unmapped labels pass through untouched. Returns the
// rewritten document and the number of replacements.
func RewriteTokens(content string, genes map[string]string) (string, int) {
	var b strings.Builder
	b.Grow(len(content))
	replaced := 0
	for i := 0; i < len(content); {
		if isStructural(content[i]) {
			b.WriteByte(content[i])
			i++
			continue
		}
		j := i
		for j < len(content) && !isStructural(content[j]) {
			j++
		}
		token := content[i:j]
		if species, ok := genes[token]; ok {
			b.WriteString(species)
			replaced++
		} else {
			b.WriteString(token)
		}
		i = j
	}
	return b.String(), replaced
}

// isStructural reports whether c terminates a Newick name token
func isStructural(c byte) bool {
	switch c {
	case '(', ')', ',', ':', ';', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// rewriteFile rewrites a single tree file and returns the replacement count
func rewriteFile(inFile, outFile string, genes map[string]string) (int, error) {
	fh, err := xopen.Ropen(inFile)
	if err != nil {
		return 0, fmt.Errorf("cannot open tree file `%s`: %w", inFile, err)
	}
	content, err := io.ReadAll(fh)
	fh.Close()
	if err != nil {
		return 0, fmt.Errorf("cannot read tree file `%s`: %w", inFile, err)
	}
	rewritten, n := RewriteTokens(string(content), genes)
	if err := os.WriteFile(outFile, []byte(rewritten), 0644); err != nil {
		return 0, fmt.Errorf("cannot write tree file `%s`: %w", outFile, err)
	}
	return n, nil
}

// Run rewrites the primary tree file and all bootstrap replicates
func (r *Converter) Run() error {
	if r.TreesFile == "" || r.MappingFile == "" || r.OutBase == "" {
		return fmt.Errorf("trees file, mapping file and output basename are all required")
	}
	m, err := ReadMapping(r.MappingFile)
	if err != nil {
		return err
	}
	genes := m.GeneMap()
	if len(genes) == 0 {
		log.Warningf("Mapping file `%s` holds no usable entries, trees are copied unchanged", r.MappingFile)
	} else {
		log.Noticef("Loaded %d leaf label mappings from `%s`", len(genes), r.MappingFile)
	}
	// A species name that is itself a mapped label of another species would
	// make a second rewriting pass disagree with the first
	for _, group := range m.Groups {
		if species, ok := genes[group.Species]; ok && species != group.Species {
			log.Warningf("Species name `%s` is also mapped as a label of `%s`", group.Species, species)
		}
	}

	r.OutTreeFile = r.OutBase + ".tre"
	n, err := rewriteFile(r.TreesFile, r.OutTreeFile, genes)
	if err != nil {
		return err
	}
	log.Noticef("Rewrote %d leaf labels in `%s` into `%s`", n, r.TreesFile, r.OutTreeFile)

	if r.BootListFile == "" {
		return nil
	}
	return r.convertBootstraps(genes)
}

// convertBootstraps rewrites every readable bootstrap replicate named in the
// list file and writes a new list pointing at the rewritten copies. The
// replicates are independent, so a read-only lookup is shared by a small
// pool of workers. Missing or unreadable replicates are skipped and counted.
func (r *Converter) convertBootstraps(genes map[string]string) error {
	bootFiles, err := ReadLines(r.BootListFile)
	if err != nil {
		return err
	}
	r.OutBootDir = r.OutBase + "_bootstraps"
	r.OutBootListFile = r.OutBase + "_bootstraps.txt"
	if err := os.MkdirAll(r.OutBootDir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory `%s`: %w", r.OutBootDir, err)
	}

	workers := r.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	outPaths := make([]string, len(bootFiles))
	jobs := make(chan int)
	done := make(chan bool)
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				inFile := bootFiles[i]
				outFile := path.Join(r.OutBootDir, path.Base(inFile))
				if _, err := rewriteFile(inFile, outFile, genes); err != nil {
					log.Errorf("Skipped bootstrap file %d: %v", i+1, err)
					continue
				}
				outPaths[i] = outFile
			}
			done <- true
		}()
	}
	for i := range bootFiles {
		jobs <- i
	}
	close(jobs)
	for w := 0; w < workers; w++ {
		<-done
	}

	f, err := os.Create(r.OutBootListFile)
	if err != nil {
		return fmt.Errorf("cannot create bootstrap list `%s`: %w", r.OutBootListFile, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, outFile := range outPaths {
		if outFile == "" {
			r.NumBootFailed++
			continue
		}
		fmt.Fprintln(w, outFile)
		r.NumBootProcessed++
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Noticef("Rewrote %s bootstrap files into `%s`, list written to `%s`",
		Percentage(r.NumBootProcessed, len(bootFiles)), r.OutBootDir, r.OutBootListFile)
	if r.NumBootFailed > 0 {
		log.Warningf("%d bootstrap files failed or were skipped", r.NumBootFailed)
	}
	return nil
}
