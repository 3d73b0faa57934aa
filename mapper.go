/*
 *  mapper.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/shenwei356/xopen"
)

// Mapper builds the species to leaf label mapping for a set of gene trees
type Mapper struct {
	NamesFile string // one base species name per line
	TreesFile string // Newick gene trees, one per line
	OutFile   string // mapping file in ASTRAL -a format
	// Result of the mapping step
	Mapping *Mapping
}

// SpeciesGroup collects the leaf labels assigned to one base species name
type SpeciesGroup struct {
	Species string
	Labels  []string
}

// Mapping relates each base species name to its leaf labels. Groups appear
// in first-assignment order; species with no assigned label are omitted.
// Every leaf label belongs to exactly one group or to Unmatched.
type Mapping struct {
	Groups    []SpeciesGroup
	Unmatched []string
}

// BuildMapping classifies every leaf label under the base species name that
// is its longest prefix followed by a `_` or `-` delimiter (or an exact,
// full-length match). Base names are tried longest first, ties keeping the
// input order, so a subspecies-qualified name such as Osmia_bicornis_bicornis
// wins over any shorter name that is also a prefix. Labels matching no base
// name are kept in Unmatched.
func BuildMapping(baseNames, leafLabels []string) (*Mapping, error) {
	if len(baseNames) == 0 {
		return nil, fmt.Errorf("no base species names given")
	}
	names := make([]string, len(baseNames))
	seen := make(map[string]bool, len(baseNames))
	for i, name := range baseNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("base species name %d is blank", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate base species name `%s`", name)
		}
		seen[name] = true
		names[i] = name
	}
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})

	groups := make(map[string][]string)
	var order []string
	m := &Mapping{}
	for _, label := range leafLabels {
		species := matchSpecies(label, names)
		if species == "" {
			m.Unmatched = append(m.Unmatched, label)
			continue
		}
		if _, ok := groups[species]; !ok {
			order = append(order, species)
		}
		groups[species] = append(groups[species], label)
	}
	for _, species := range order {
		m.Groups = append(m.Groups, SpeciesGroup{Species: species, Labels: groups[species]})
	}
	return m, nil
}

// matchSpecies returns the first base name that is a delimiter-bounded
// prefix of label. The names must already be sorted longest first.
func matchSpecies(label string, names []string) string {
	for _, name := range names {
		if !strings.HasPrefix(label, name) {
			continue
		}
		if len(label) == len(name) {
			return name
		}
		if c := label[len(name)]; c == '_' || c == '-' {
			return name
		}
	}
	return ""
}

// ReadTrees collects the Newick strings of a tree file, one tree per line.
// Every line must parse as a valid Newick tree.
func ReadTrees(filename string) ([]string, error) {
	lines, err := ReadLines(filename)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		if _, err := newick.NewParser(strings.NewReader(line)).Parse(); err != nil {
			return nil, fmt.Errorf("tree %d of `%s` is not valid Newick: %w", i+1, filename, err)
		}
	}
	return lines, nil
}

// ExtractLeafLabels parses all trees of a tree file and returns the distinct
// leaf labels in order of first appearance.
func ExtractLeafLabels(filename string) ([]string, error) {
	lines, err := ReadLines(filename)
	if err != nil {
		return nil, err
	}
	var labels []string
	seen := make(map[string]bool)
	for i, line := range lines {
		t, err := newick.NewParser(strings.NewReader(line)).Parse()
		if err != nil {
			return nil, fmt.Errorf("tree %d of `%s` is not valid Newick: %w", i+1, filename, err)
		}
		for _, name := range t.AllTipNames() {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			labels = append(labels, name)
		}
	}
	return labels, nil
}

// WriteMapping serializes a mapping in the ASTRAL -a format, with one
// `species: label1,label2` line per group
func WriteMapping(m *Mapping, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create mapping file `%s`: %w", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, group := range m.Groups {
		fmt.Fprintf(w, "%s: %s\n", group.Species, strings.Join(group.Labels, ","))
	}
	return w.Flush()
}

// ReadMapping parses a mapping file back into a Mapping. Malformed lines
// (no colon, or a blank species name) are logged and skipped.
func ReadMapping(filename string) (*Mapping, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open mapping file `%s`: %w", filename, err)
	}
	defer fh.Close()

	m := &Mapping{}
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		species, labels, ok := parseMappingLine(line)
		if !ok {
			log.Warningf("Mapping line %d is malformed, skipped: `%s`", lineNo, line)
			continue
		}
		if len(labels) == 0 {
			continue
		}
		m.Groups = append(m.Groups, SpeciesGroup{Species: species, Labels: labels})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading `%s`: %w", filename, err)
	}
	return m, nil
}

// parseMappingLine splits a `species: label1,label2` line
func parseMappingLine(line string) (species string, labels []string, ok bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", nil, false
	}
	species = strings.TrimSpace(parts[0])
	if species == "" {
		return "", nil, false
	}
	for _, label := range strings.Split(parts[1], ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return species, labels, true
}

// GeneMap inverts a mapping into a leaf label to species name lookup.
// A label listed under two species is logged; the later entry wins.
func (m *Mapping) GeneMap() map[string]string {
	genes := make(map[string]string)
	for _, group := range m.Groups {
		for _, label := range group.Labels {
			if prev, ok := genes[label]; ok && prev != group.Species {
				log.Warningf("Label `%s` mapped to both `%s` and `%s`, using `%s`",
					label, prev, group.Species, group.Species)
			}
			genes[label] = group.Species
		}
	}
	return genes
}

// Run generates the mapping file from the base species names and gene trees
func (r *Mapper) Run() error {
	if r.NamesFile == "" || r.TreesFile == "" || r.OutFile == "" {
		return fmt.Errorf("names file, trees file and output file are all required")
	}
	baseNames, err := ReadLines(r.NamesFile)
	if err != nil {
		return err
	}
	log.Noticef("Read %d base species names from `%s`", len(baseNames), r.NamesFile)

	labels, err := ExtractLeafLabels(r.TreesFile)
	if err != nil {
		return err
	}
	log.Noticef("Extracted %d distinct leaf labels from `%s`", len(labels), r.TreesFile)

	m, err := BuildMapping(baseNames, labels)
	if err != nil {
		return err
	}
	r.Mapping = m
	if err := WriteMapping(m, r.OutFile); err != nil {
		return err
	}

	nMapped := len(labels) - len(m.Unmatched)
	log.Noticef("Mapped %s leaf labels into %d species groups, written to `%s`",
		Percentage(nMapped, len(labels)), len(m.Groups), r.OutFile)
	if len(m.Unmatched) > 0 {
		log.Warningf("%d leaf labels matched no base species name: %s",
			len(m.Unmatched), strings.Join(m.Unmatched, ", "))
	}
	return nil
}
