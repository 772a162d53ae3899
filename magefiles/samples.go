//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// samplesOut receives the records converted from testdata.
const samplesOut = "records/samples"

// Samples converts every fixture calculation under testdata with the freshly
// built binary, one batch run per code family.
func Samples() error {
	mg.Deps(Build)

	families, err := os.ReadDir("testdata")
	if err != nil {
		return fmt.Errorf("reading testdata: %w", err)
	}
	bin := filepath.Join(binDir, binName)
	for _, f := range families {
		if !f.IsDir() {
			continue
		}
		out := filepath.Join(samplesOut, f.Name())
		if err := sh.RunV(bin, "batch", filepath.Join("testdata", f.Name()), "--out-dir", out); err != nil {
			return fmt.Errorf("converting %s samples: %w", f.Name(), err)
		}
	}
	return nil
}
