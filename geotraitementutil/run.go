/*
Copyright © 2021 the geotraitement authors.
This file is part of geotraitement.

geotraitement is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geotraitement is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geotraitement.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package geotraitementutil holds the command-line interface and
// configuration handling of geotraitement.
package geotraitementutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/nicolas-roelandt/geotraitement"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RunAlgorithm runs the algorithm with identifier id from the default
// provider.
//
// CobraCommand is the cobra.Command instance where RunAlgorithm is called
// from. Log messages are written to its output and to LogFile.
//
// Sources maps feature source parameter names to layer paths, which can
// include environment variables. Empty paths are left out, so that the
// algorithm reports them as missing. CRS maps parameter names to CRS
// definitions overriding the ones stored with the layers.
//
// Distances maps distance parameter names to buffer distances.
//
// OutputFile is the path of the output shapefile or GeoJSON file.
func RunAlgorithm(CobraCommand *cobra.Command, id string, Sources, CRS map[string]string,
	Distances map[string]float64, OutputFile, LogFile string) error {

	startTime := time.Now()

	logfile, err := os.Create(LogFile)
	if err != nil {
		return fmt.Errorf("geotraitement: problem creating log file: %v", err)
	}
	defer logfile.Close()

	log := &logrus.Logger{
		Out:       io.MultiWriter(CobraCommand.OutOrStdout(), logfile),
		Formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.InfoLevel,
	}

	alg, err := geotraitement.DefaultProvider().Algorithm(id)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"algorithm": alg.Name(),
		"output":    OutputFile,
	}).Info("starting")

	params := &geotraitement.Parameters{
		Sources:   make(map[string]*geotraitement.Layer),
		Distances: Distances,
	}
	names := make([]string, 0, len(Sources))
	for name := range Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	sources := expandStringMap(Sources)
	for _, name := range names {
		path := sources[name]
		if path == "" {
			continue
		}
		l, err := geotraitement.ReadLayer(path, CRS[name])
		if err != nil {
			return fmt.Errorf("geotraitement: loading %s: %v", name, err)
		}
		log.WithFields(logrus.Fields{
			"parameter": name,
			"path":      path,
			"features":  l.Len(),
		}).Info("loaded layer")
		params.Sources[name] = l
	}

	sink, err := geotraitement.NewFileSink(OutputFile)
	if err != nil {
		return err
	}
	params.Output = sink

	fb := geotraitement.NewLogFeedback(log, alg.Name())
	r, err := geotraitement.Run(context.Background(), alg, params, fb)
	if err != nil {
		log.WithError(err).Error("run failed")
		return err
	}
	log.WithFields(logrus.Fields{
		"features": r[geotraitement.OutputParameter].Len(),
		"duration": time.Since(startTime).String(),
	}).Info("done")
	return nil
}
