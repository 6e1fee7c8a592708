package pdb

import (
	"regexp"
	"strconv"
)

var remarkResolution = regexp.MustCompile(`(?m)^REMARK   2 RESOLUTION\.\s+([0-9.]+)\s+ANGSTROMS`)

// extractResolution parses the REMARK 2 header record. Returns 0 when the
// resolution is not informed, as happens with NMR or predicted models.
func extractResolution(raw []byte) float64 {
	matches := remarkResolution.FindSubmatch(raw)
	if len(matches) == 0 {
		return 0
	}

	resolution, err := strconv.ParseFloat(string(matches[1]), 64)
	if err != nil {
		return 0
	}

	return resolution
}
