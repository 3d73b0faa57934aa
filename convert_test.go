/*
 *  convert_test.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep_test

import (
	"os"
	"path"
	"strings"
	"testing"

	"github.com/phylotools/astralprep"
)

func TestRewriteTokens(t *testing.T) {
	genes := map[string]string{
		"Apis_mellifera_LOC1": "Apis_mellifera",
		"Apis_cerana_LOC2":    "Apis_cerana",
	}
	in := "(Apis_mellifera_LOC1:0.1,(Apis_cerana_LOC2:0.2,Apis_mellifera_LOC10:0.3):0.5);"
	out, n := astralprep.RewriteTokens(in, genes)
	expected := "(Apis_mellifera:0.1,(Apis_cerana:0.2,Apis_mellifera_LOC10:0.3):0.5);"
	if out != expected {
		t.Fatalf("Expected `%s`, got `%s`", expected, out)
	}
	if n != 2 {
		t.Fatalf("Expected 2 replacements, got %d", n)
	}
}

func TestRewriteTokensIdempotent(t *testing.T) {
	genes := map[string]string{
		"Apis_mellifera_LOC1": "Apis_mellifera",
		"Bombus_LOC2":         "Bombus_terrestris",
	}
	in := "((Apis_mellifera_LOC1:0.1,Bombus_LOC2:0.2)100:0.3,Vespa_LOC3:0.4);\n"
	once, _ := astralprep.RewriteTokens(in, genes)
	twice, n := astralprep.RewriteTokens(once, genes)
	if once != twice {
		t.Fatalf("Rewriting is not idempotent: `%s` != `%s`", once, twice)
	}
	if n != 0 {
		t.Fatalf("Second pass should replace nothing, replaced %d", n)
	}
}

func TestConverterRun(t *testing.T) {
	dir := t.TempDir()

	// a bootstrap list naming one good and one missing replicate
	bootList := path.Join(dir, "bootlist.txt")
	lines := path.Join("tests", "boot1.treefile") + "\n" +
		path.Join("tests", "no_such_file.treefile") + "\n"
	if err := os.WriteFile(bootList, []byte(lines), 0644); err != nil {
		t.Fatalf("Cannot write bootstrap list: %v", err)
	}

	converter := astralprep.Converter{
		TreesFile:    path.Join("tests", "genetrees.trees"),
		MappingFile:  path.Join("tests", "mapping.txt"),
		BootListFile: bootList,
		OutBase:      path.Join(dir, "species_mapped"),
		Workers:      2,
	}
	if err := converter.Run(); err != nil {
		t.Fatalf("Converter.Run failed: %v", err)
	}

	content, err := os.ReadFile(converter.OutTreeFile)
	if err != nil {
		t.Fatalf("Cannot read rewritten tree file: %v", err)
	}
	tree := string(content)
	if strings.Contains(tree, "Apis_mellifera_LOC") {
		t.Fatalf("Mapped gene labels survived rewriting: %s", tree)
	}
	if !strings.Contains(tree, "Apis_cerana:") {
		t.Fatalf("Expected species-labeled leaves in: %s", tree)
	}
	// labels absent from the mapping pass through untouched
	if !strings.Contains(tree, "Unknown_sp_gene77:") {
		t.Fatalf("Unmapped label must survive rewriting: %s", tree)
	}

	if converter.NumBootProcessed != 1 || converter.NumBootFailed != 1 {
		t.Fatalf("Expected 1 processed and 1 failed bootstrap, got %d and %d",
			converter.NumBootProcessed, converter.NumBootFailed)
	}
	listContent, err := os.ReadFile(converter.OutBootListFile)
	if err != nil {
		t.Fatalf("Cannot read rewritten bootstrap list: %v", err)
	}
	paths := strings.Fields(string(listContent))
	if len(paths) != 1 {
		t.Fatalf("Expected one rewritten bootstrap path, got %v", paths)
	}
	bootContent, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("Cannot read rewritten bootstrap file: %v", err)
	}
	if strings.Contains(string(bootContent), "LOC107992958") {
		t.Fatalf("Bootstrap replicate was not rewritten: %s", bootContent)
	}
}
