/*
 *  collect_test.go
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

func TestCollecterRun(t *testing.T) {
	treeDir := t.TempDir()
	outDir := t.TempDir()

	good1 := "(Apis_mellifera_LOC1:0.1,Apis_cerana_LOC2:0.2);\n"
	good2 := "((Apis_mellifera_LOC1:0.1,Bombus_terrestris_LOC3:0.2):0.1,Apis_cerana_LOC2:0.3);\n"
	bad := "((Apis_mellifera_LOC1:0.1,;\n"
	for name, content := range map[string]string{
		"locus1.treefile": good1,
		"locus2.treefile": good2,
		"broken.treefile": bad,
		"ignored.log":     "IQ-TREE log output\n",
	} {
		if err := os.WriteFile(path.Join(treeDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Cannot write fixture `%s`: %v", name, err)
		}
	}

	collecter := astralprep.Collecter{
		TreeDir:     treeDir,
		OutFile:     path.Join(outDir, "genetrees.trees"),
		OutListFile: path.Join(outDir, "genetrees.txt"),
	}
	if err := collecter.Run(); err != nil {
		t.Fatalf("Collecter.Run failed: %v", err)
	}
	if collecter.NumCollected != 2 || collecter.NumSkipped != 1 {
		t.Fatalf("Expected 2 collected and 1 skipped, got %d and %d",
			collecter.NumCollected, collecter.NumSkipped)
	}

	content, err := os.ReadFile(collecter.OutFile)
	if err != nil {
		t.Fatalf("Cannot read combined tree file: %v", err)
	}
	trees := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(trees) != 2 {
		t.Fatalf("Expected 2 combined trees, got %d", len(trees))
	}

	listContent, err := os.ReadFile(collecter.OutListFile)
	if err != nil {
		t.Fatalf("Cannot read list file: %v", err)
	}
	sources := strings.Fields(string(listContent))
	if len(sources) != 2 {
		t.Fatalf("Expected 2 listed sources, got %v", sources)
	}
	for _, source := range sources {
		if !strings.HasSuffix(source, ".treefile") {
			t.Fatalf("Unexpected source file `%s`", source)
		}
	}
}

func TestCollecterEmptyDir(t *testing.T) {
	collecter := astralprep.Collecter{
		TreeDir: t.TempDir(),
		OutFile: path.Join(t.TempDir(), "genetrees.trees"),
	}
	if err := collecter.Run(); err == nil {
		t.Fatal("Expected an error for a directory without tree files")
	}
}
