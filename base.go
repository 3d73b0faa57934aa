/*
 *  base.go
 *  astralprep
 *
 *  Copyright © 2026 the astralprep authors. All rights reserved.
 */

package astralprep

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/shenwei356/xopen"
)

const (
	// Version is the current version of astralprep
	Version = "0.2.0"
	// DefaultTreePattern matches the gene tree files produced by IQ-TREE
	DefaultTreePattern = "*.treefile"
	// DefaultAstralCmd is the external species tree inference binary
	DefaultAstralCmd = "astral"
)

var log = logging.MustGetLogger("astralprep")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// ReadLines collects all non-blank, non-comment lines of a text file,
// which may be gzip-compressed. Lines starting with `#` are skipped.
func ReadLines(filename string) ([]string, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s`: %w", filename, err)
	}
	defer fh.Close()

	var lines []string
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading `%s`: %w", filename, err)
	}
	return lines, nil
}
