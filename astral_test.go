/*
 *  astral_test.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep_test

import (
	"reflect"
	"testing"

	"github.com/phylotools/astralprep"
)

func TestAstralBuildCommand(t *testing.T) {
	cmd, err := astralprep.Astral{
		InFile:      "genetrees.trees",
		OutFile:     "speciestree.tre",
		MappingFile: "mapping.txt",
		BootList:    "bootlist.txt",
		Reps:        100,
		Outgroup:    "Apis_mellifera",
	}.BuildCommand()
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	expected := []string{
		"astral",
		"-i", "genetrees.trees",
		"-o", "speciestree.tre",
		"-a", "mapping.txt",
		"-b", "bootlist.txt",
		"-r", "100",
		"--outgroup", "Apis_mellifera",
	}
	if !reflect.DeepEqual(cmd.Args, expected) {
		t.Fatalf("Expected args %v, got %v", expected, cmd.Args)
	}
}

func TestAstralBuildCommandDefaults(t *testing.T) {
	cmd, err := astralprep.Astral{
		InFile:  "genetrees.trees",
		OutFile: "speciestree.tre",
	}.BuildCommand()
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	expected := []string{"astral", "-i", "genetrees.trees", "-o", "speciestree.tre"}
	if !reflect.DeepEqual(cmd.Args, expected) {
		t.Fatalf("Expected args %v, got %v", expected, cmd.Args)
	}
}

func TestAstralerMissingInput(t *testing.T) {
	astraler := astralprep.Astraler{
		TreesFile: "tests/no_such_file.trees",
		OutFile:   "out.tre",
	}
	if err := astraler.Run(); err == nil {
		t.Fatal("Expected an error for a missing input tree file")
	}
}
