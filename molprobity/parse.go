package molprobity

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tikz/iris/metric"
)

var (
	clashscoreLine = regexp.MustCompile(`clashscore\s*=\s*([0-9.]+)`)
	rmsBondsLine   = regexp.MustCompile(`RMS\(bonds\)\s*=\s*([0-9.]+)`)
	rmsAnglesLine  = regexp.MustCompile(`RMS\(angles\)\s*=\s*([0-9.]+)`)
)

// residueID parses a " A   2  LYS" residue identifier. The chain may be blank
// and the residue number may carry an insertion code.
func residueID(s string) (chain string, seqNum int64, code string, err error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 3:
		chain, code = fields[0], fields[2]
	case 2:
		code = fields[1]
		fields = append([]string{""}, fields...)
	default:
		return "", 0, "", fmt.Errorf("invalid residue id %q", s)
	}

	seqNum, err = seqNumber(fields[1])
	return chain, seqNum, code, err
}

// seqNumber parses a residue number, dropping a trailing insertion code.
func seqNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid residue number %q", s)
	}
	return n, nil
}

func lines(out []byte) []string {
	var ls []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		ls = append(ls, scanner.Text())
	}
	return ls
}

// parseClashscore reads " A   2  LYS  HZ1 : A   5  ALA  HB2 :0.512" clash lines and
// the "clashscore = 12.50" total. Every clash an atom takes part in lowers
// the clash indicator of its residue, down to Outlier.
func parseClashscore(out []byte, res *Result) error {
	for _, l := range lines(out) {
		if m := clashscoreLine.FindStringSubmatch(l); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return err
			}
			res.Summary.Clashscore = metric.Float(v)
			continue
		}

		parts := strings.Split(l, ":")
		if len(parts) != 3 {
			continue
		}
		overlap, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			continue
		}

		var clash Clash
		for i, atom := range parts[:2] {
			fields := strings.Fields(atom)
			if len(fields) < 3 {
				return fmt.Errorf("invalid clash atom %q", atom)
			}
			chain := ""
			if len(fields) == 4 {
				chain, fields = fields[0], fields[1:]
			}
			seqNum, err := seqNumber(fields[0])
			if err != nil {
				return err
			}
			clash.Atoms[i] = strings.Join(strings.Fields(atom), " ")

			res.update(metric.Key{Chain: chain, SeqNum: seqNum}, func(ind *Indicators) {
				switch ind.Clash {
				case metric.Favoured:
					ind.Clash = metric.Allowed
				default:
					ind.Clash = metric.Outlier
				}
			})
		}
		clash.Overlap = overlap
		res.Details.Clashes = append(res.Details.Clashes, clash)
	}
	return nil
}

// parseRamalyze reads "residue:score%:phi:psi:evaluation:type" rows.
func parseRamalyze(out []byte, res *Result) error {
	var total, favoured, outliers int
	for _, l := range lines(out) {
		parts := strings.Split(l, ":")
		if len(parts) != 6 || strings.HasPrefix(l, "residue") {
			continue
		}
		chain, seqNum, code, err := residueID(parts[0])
		if err != nil {
			return err
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return fmt.Errorf("ramachandran score: %w", err)
		}

		res.update(metric.Key{Chain: chain, SeqNum: seqNum}, func(ind *Indicators) {
			ind.Ramachandran = scoreIndicator(score)
		})

		total++
		switch strings.ToUpper(strings.TrimSpace(parts[4])) {
		case "FAVORED":
			favoured++
		case "OUTLIER":
			outliers++
			res.Details.Ramachandran = append(res.Details.Ramachandran, Outlier{chain, seqNum, code, score})
		}
	}

	if total > 0 {
		res.Summary.RamachandranFavoured = metric.Float(100 * float64(favoured) / float64(total))
		res.Summary.RamachandranOutliers = metric.Float(100 * float64(outliers) / float64(total))
	}
	return nil
}

// parseRotalyze reads "residue:occupancy:score%:chi1:chi2:chi3:chi4:evaluation:rotamer" rows.
func parseRotalyze(out []byte, res *Result) error {
	var total, outliers int
	for _, l := range lines(out) {
		parts := strings.Split(l, ":")
		if len(parts) != 9 || strings.HasPrefix(l, "residue") {
			continue
		}
		chain, seqNum, code, err := residueID(parts[0])
		if err != nil {
			return err
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return fmt.Errorf("rotamer score: %w", err)
		}

		res.update(metric.Key{Chain: chain, SeqNum: seqNum}, func(ind *Indicators) {
			ind.Rotamer = scoreIndicator(score)
		})

		total++
		if strings.ToUpper(strings.TrimSpace(parts[7])) == "OUTLIER" {
			outliers++
			res.Details.Rotamer = append(res.Details.Rotamer, Outlier{chain, seqNum, code, score})
		}
	}

	if total > 0 {
		res.Summary.RotamerOutliers = metric.Float(100 * float64(outliers) / float64(total))
	}
	return nil
}

// CBetaOutlier is the C-beta deviation in Angstroms from which a residue is an outlier.
const CBetaOutlier = 0.25

// parseCBetaDev reads "pdb:alt:res:chainID:resnum:dev:dihedralNABB:Occ:ALT:" rows.
func parseCBetaDev(out []byte, res *Result) error {
	for _, l := range lines(out) {
		parts := strings.Split(l, ":")
		if len(parts) < 8 || strings.HasPrefix(l, "pdb:") {
			continue
		}
		dev, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
		if err != nil {
			continue
		}
		if dev < CBetaOutlier {
			continue
		}

		chain := strings.TrimSpace(parts[3])
		seqNum, err := seqNumber(parts[4])
		if err != nil {
			return err
		}
		code := strings.TrimSpace(parts[2])

		res.update(metric.Key{Chain: chain, SeqNum: seqNum}, func(ind *Indicators) {
			ind.CBeta = metric.Outlier
		})
		res.Summary.CBetaDeviations++
		res.Details.CBeta = append(res.Details.CBeta, Outlier{chain, seqNum, code, dev})
	}
	return nil
}

// parseOmegalyze reads "residues:type:omega:conformation:mc_bmax" rows, where
// residues names the peptide as " A   1  MET to  A   2  LYS". Cis and twisted
// peptides flag the second residue.
func parseOmegalyze(out []byte, res *Result) error {
	for _, l := range lines(out) {
		parts := strings.Split(l, ":")
		if len(parts) < 4 || strings.HasPrefix(l, "residues") {
			continue
		}
		pair := strings.Split(parts[0], " to ")
		if len(pair) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[3]), "Trans") {
			continue
		}

		chain, seqNum, code, err := residueID(pair[1])
		if err != nil {
			return err
		}
		omega, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return fmt.Errorf("omega: %w", err)
		}

		res.update(metric.Key{Chain: chain, SeqNum: seqNum}, func(ind *Indicators) {
			ind.Omega = metric.Outlier
		})
		res.Details.Omega = append(res.Details.Omega, Outlier{chain, seqNum, code, omega})
	}
	return nil
}

// parseMolprobity reads the restraint deviations of the summary and the
// "Asn/Gln/His flips" section, one residue per line, ended by a blank line
// or the next "===" header.
func parseMolprobity(out []byte, res *Result) error {
	inFlips := false
	for _, l := range lines(out) {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "===") {
			inFlips = strings.Contains(trimmed, "Asn/Gln/His flips")
			continue
		}

		for _, rms := range []struct {
			re  *regexp.Regexp
			dst *metric.NullFloat64
		}{
			{rmsBondsLine, &res.Summary.RMSBonds},
			{rmsAnglesLine, &res.Summary.RMSAngles},
		} {
			if m := rms.re.FindStringSubmatch(l); m != nil {
				v, err := strconv.ParseFloat(m[1], 64)
				if err != nil {
					return fmt.Errorf("rms: %w", err)
				}
				*rms.dst = metric.Float(v)
			}
		}

		if !inFlips {
			continue
		}
		if trimmed == "" {
			inFlips = false
			continue
		}
		if strings.EqualFold(trimmed, "none") {
			continue
		}

		chain, seqNum, code, err := residueID(l)
		if err != nil {
			return fmt.Errorf("nqh flip: %w", err)
		}
		res.update(metric.Key{Chain: chain, SeqNum: seqNum}, func(ind *Indicators) {
			ind.Flip = metric.Outlier
		})
		res.Details.NQHFlips = append(res.Details.NQHFlips, Outlier{chain, seqNum, code, 0})
	}
	return nil
}
