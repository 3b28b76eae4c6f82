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
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/climstats"
)

// Describe writes a summary of the source dataset to w: its header, the
// variable filling each coordinate role and the classification of the
// other variables.
func Describe(ctx context.Context, source, cacheDir string, retries int, w io.Writer, log logrus.FieldLogger) error {
	ds, err := load(ctx, source, cacheDir, retries, log)
	if err != nil {
		return err
	}
	fmt.Fprint(w, ds)
	fmt.Fprintln(w, "sizes:")
	for _, v := range ds.Variables() {
		n := uint64(1)
		for _, l := range v.Shape() {
			n *= uint64(l)
		}
		fmt.Fprintf(w, "\t%s: %s values (%s)\n", v.Name(), humanize.Comma(int64(n)), humanize.Bytes(n*uint64(v.DType().Size())))
	}

	coords := ds.Coordinates()
	roles := make([]string, 0, len(coords))
	for r := range coords {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	fmt.Fprintln(w, "coordinates:")
	for _, r := range roles {
		fmt.Fprintf(w, "\t%s: %s\n", r, coords[climstats.Role(r)].Name())
	}
	if !ds.Classified() {
		fmt.Fprintln(w, "// no time coordinate; variables are unclassified:")
		printNames(w, ds.Unclassified())
		return nil
	}
	fmt.Fprintln(w, "data variables:")
	printNames(w, ds.DataVariables())
	fmt.Fprintln(w, "ancillary variables:")
	printNames(w, ds.Ancillary())
	return nil
}

func printNames(w io.Writer, vars []*climstats.Variable) {
	for _, v := range vars {
		fmt.Fprintf(w, "\t%s\n", v.Name())
	}
}
