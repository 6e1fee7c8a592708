package main

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tikz/iris/acquire"
	"github.com/tikz/iris/config"
	"github.com/tikz/iris/covariance"
	"github.com/tikz/iris/density"
	"github.com/tikz/iris/metrics"
	"github.com/tikz/iris/molprobity"
)

const fileExt = ".data"

// cached wraps task so that its result is stored under dir, keyed by the
// contents of the input files and the settings the task runs with, and read
// back on later runs.
func cached(dir string, kind acquire.Kind, settings []string, task acquire.Task) acquire.Task {
	return func(ctx context.Context, in acquire.Input, aux acquire.Aux) (any, error) {
		key, err := inputKey(kind, settings, in)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, kind.String(), key+fileExt)

		if _, err := os.Stat(path); err == nil {
			obj := newResult(kind)
			if err := read(path, obj); err == nil {
				aux.Log.Debug("using cached result", "path", path)
				return obj, nil
			}
			aux.Log.Warn("ignoring unreadable cached result", "path", path)
		}

		res, err := task(ctx, in, aux)
		if err != nil {
			return nil, err
		}

		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			aux.Log.Warn("cannot create cache dir", "error", err)
			return res, nil
		}
		if err := write(path, res); err != nil {
			aux.Log.Warn("cannot write cached result", "path", path, "error", err)
		}
		return res, nil
	}
}

func newResult(kind acquire.Kind) any {
	switch kind {
	case acquire.Geometry:
		return new(molprobity.Result)
	case acquire.Covariance:
		return new(covariance.Result)
	case acquire.Reflections:
		return new(density.Result)
	}
	return nil
}

// taskSettings lists the configuration values that change the result of a
// task of the given kind.
func taskSettings(kind acquire.Kind, cfg config.Config) []string {
	switch kind {
	case acquire.Geometry:
		return []string{cfg.MolProbityDir}
	case acquire.Covariance:
		return []string{cfg.CovarianceCommand, cfg.DistpredFormat}
	case acquire.Reflections:
		return []string{cfg.DensityCommand}
	}
	return nil
}

// inputKey hashes the task kind, its settings and the files the task reads.
func inputKey(kind acquire.Kind, settings []string, in acquire.Input) (string, error) {
	paths := []string{in.ModelPath}
	switch kind {
	case acquire.Reflections:
		paths = append(paths, in.ReflectionsPath)
	case acquire.Covariance:
		paths = append(paths, in.SequencePath, in.DistpredPath)
	}

	h := sha256.New()
	io.WriteString(h, kind.String())
	for _, s := range settings {
		io.WriteString(h, "\x00"+s)
	}
	io.WriteString(h, "\x00")
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("hash input: %v", err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("hash input: %v", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeReport encodes data as indented JSON to path, or to stdout when path is empty.
func writeReport(path string, data *metrics.SeriesData) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %v", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func write(filePath string, object interface{}) error {
	file, err := os.Create(filePath)
	if err == nil {
		encoder := gob.NewEncoder(file)
		err = encoder.Encode(object)
		if err != nil {
			file.Close()
			return err
		}
	}
	file.Close()

	return err
}

func read(filePath string, object interface{}) error {
	file, err := os.Open(filePath)
	if err == nil {
		decoder := gob.NewDecoder(file)
		err = decoder.Decode(object)
	}
	file.Close()

	return err
}
