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

package geotraitement

import (
	"github.com/sirupsen/logrus"
)

// Feedback receives messages and progress reports from running
// algorithms.
type Feedback interface {
	PushInfo(msg string)
	PushWarning(msg string)

	// SetProgress reports the fraction of the work done, between
	// 0 and 1.
	SetProgress(fraction float64)
}

// LogFeedback is a Feedback that writes to a logger.
type LogFeedback struct {
	Log logrus.FieldLogger
}

// NewLogFeedback returns a Feedback that writes to log. Messages are
// tagged with the algorithm name.
func NewLogFeedback(log logrus.FieldLogger, algorithm string) *LogFeedback {
	return &LogFeedback{
		Log: log.WithField("algorithm", algorithm),
	}
}

// PushInfo logs msg at the info level.
func (f *LogFeedback) PushInfo(msg string) { f.Log.Info(msg) }

// PushWarning logs msg at the warning level.
func (f *LogFeedback) PushWarning(msg string) { f.Log.Warn(msg) }

// SetProgress logs the progress as a percentage at the info level.
func (f *LogFeedback) SetProgress(fraction float64) {
	f.Log.WithField("progress", int(fraction*100 + 0.5)).Info("progress")
}

// MemoryFeedback is a Feedback that records everything it receives.
type MemoryFeedback struct {
	Info, Warnings []string
	Progress       []float64
}

// PushInfo records msg.
func (f *MemoryFeedback) PushInfo(msg string) { f.Info = append(f.Info, msg) }

// PushWarning records msg.
func (f *MemoryFeedback) PushWarning(msg string) { f.Warnings = append(f.Warnings, msg) }

// SetProgress records fraction.
func (f *MemoryFeedback) SetProgress(fraction float64) {
	f.Progress = append(f.Progress, fraction)
}

type nopFeedback struct{}

func (nopFeedback) PushInfo(string) {}
func (nopFeedback) PushWarning(string) {}
func (nopFeedback) SetProgress(float64) {}
