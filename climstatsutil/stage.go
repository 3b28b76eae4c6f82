/*
Copyright © 2026 the climstats authors.
This file is part of climstats.

climstats is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

climstats is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with climstats.  If not, see <http://www.gnu.org/licenses/>.
*/

package climstatsutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Pipeline stages reported in errors.
const (
	StageConfig  = "config"
	StageLoad    = "load"
	StageDerive  = "derive"
	StageSubset  = "subset"
	StageGroupBy = "groupby"
	StageApply   = "apply"
	StageSave    = "save"
)

// StageError records the pipeline stage and the variable, file or
// option being processed when an error occurred.
type StageError struct {
	Stage string
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("climstats: %s stage failed for %s: %v", e.Stage, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage, name string, err error) error {
	return &StageError{Stage: stage, Name: name, Err: err}
}

// NewLogger returns a logger writing to out and, if logFile is not
// empty, also to that file. The returned function closes the log file.
func NewLogger(out io.Writer, level, logFile string) (*logrus.Logger, func() error, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("climstats: invalid log level %q: %v", level, err)
	}
	log := logrus.New()
	log.Level = lvl
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	}
	closer := func() error { return nil }
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("climstats: creating log file: %v", err)
		}
		out = io.MultiWriter(out, f)
		closer = f.Close
	}
	log.Out = out
	return log, closer, nil
}
