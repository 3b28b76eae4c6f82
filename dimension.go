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

package climstats

import "fmt"

// DimID is a handle to a Dimension in its Dataset.
type DimID int

// Dimension is a named axis. Its size can only change if it is
// unlimited, and then only by growing.
type Dimension struct {
	name      string
	size      int
	unlimited bool
}

// Name returns the dimension name.
func (d *Dimension) Name() string { return d.name }

// Len returns the current size of the dimension.
func (d *Dimension) Len() int { return d.size }

// Unlimited reports whether the dimension can grow.
func (d *Dimension) Unlimited() bool { return d.unlimited }

func (d *Dimension) String() string {
	if d.unlimited {
		return fmt.Sprintf("%s = UNLIMITED // (%d currently)", d.name, d.size)
	}
	return fmt.Sprintf("%s = %d", d.name, d.size)
}

// grow increases the size of d to n.
func (d *Dimension) grow(n int) error {
	if n <= d.size {
		return nil
	}
	if !d.unlimited {
		return fmt.Errorf("climstats: dimension %s has fixed size %d, cannot grow to %d: %w",
			d.name, d.size, n, ErrBounds)
	}
	d.size = n
	return nil
}
