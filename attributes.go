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

import (
	"fmt"
	"strings"
)

// Attribute is a single named metadata entry. It holds either text or
// a list of numbers stored with element type Type.
type Attribute struct {
	Name    string
	Text    string
	Numbers []float64
	Type    DType // Char for text attributes.
}

// IsText reports whether the attribute holds text.
func (a Attribute) IsText() bool { return a.Type == Char }

func (a Attribute) String() string {
	if a.IsText() {
		return fmt.Sprintf("%s = %q", a.Name, a.Text)
	}
	s := make([]string, len(a.Numbers))
	for i, v := range a.Numbers {
		s[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%s = %s (%s)", a.Name, strings.Join(s, ", "), a.Type)
}

// Attributes is an ordered set of attributes with unique names.
// The zero value is an empty set ready to use.
type Attributes struct {
	list []Attribute
}

// NewAttributes creates a set of text attributes from name/value pairs.
func NewAttributes(pairs ...string) *Attributes {
	if len(pairs)%2 != 0 {
		panic("climstats: NewAttributes requires name/value pairs")
	}
	a := new(Attributes)
	for i := 0; i < len(pairs); i += 2 {
		a.SetText(pairs[i], pairs[i+1])
	}
	return a
}

func (a *Attributes) index(name string) int {
	if a == nil {
		return -1
	}
	for i, at := range a.list {
		if at.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether an attribute named name exists.
func (a *Attributes) Has(name string) bool { return a.index(name) >= 0 }

// Get returns the attribute named name.
func (a *Attributes) Get(name string) (Attribute, bool) {
	i := a.index(name)
	if i < 0 {
		return Attribute{}, false
	}
	return a.list[i], true
}

// Text returns the value of a text attribute, or "" if it is absent or
// numeric.
func (a *Attributes) Text(name string) string {
	at, ok := a.Get(name)
	if !ok || !at.IsText() {
		return ""
	}
	return at.Text
}

// Numbers returns the values of a numeric attribute.
func (a *Attributes) Numbers(name string) ([]float64, bool) {
	at, ok := a.Get(name)
	if !ok || at.IsText() {
		return nil, false
	}
	return append([]float64(nil), at.Numbers...), true
}

// Set adds or replaces an attribute, keeping the position of an
// existing attribute with the same name.
func (a *Attributes) Set(at Attribute) error {
	if at.Name == "" {
		return fmt.Errorf("climstats: attribute name must not be empty: %w", ErrConfiguration)
	}
	if at.Type < Byte || at.Type > Double {
		return fmt.Errorf("climstats: attribute %s has invalid type %v: %w", at.Name, at.Type, ErrConfiguration)
	}
	if !at.IsText() {
		at.Numbers = append([]float64(nil), at.Numbers...)
	}
	if i := a.index(at.Name); i >= 0 {
		a.list[i] = at
		return nil
	}
	a.list = append(a.list, at)
	return nil
}

// SetText sets a text attribute.
func (a *Attributes) SetText(name, value string) {
	if err := a.Set(Attribute{Name: name, Text: value, Type: Char}); err != nil {
		panic(err)
	}
}

// SetNumbers sets a numeric attribute with element type t.
func (a *Attributes) SetNumbers(name string, t DType, values ...float64) error {
	if t == Char {
		return fmt.Errorf("climstats: numeric attribute %s cannot have type char: %w", name, ErrConfiguration)
	}
	return a.Set(Attribute{Name: name, Numbers: values, Type: t})
}

// Delete removes the named attribute, if present.
func (a *Attributes) Delete(name string) {
	if i := a.index(name); i >= 0 {
		a.list = append(a.list[:i], a.list[i+1:]...)
	}
}

// Names returns the attribute names in order.
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	n := make([]string, len(a.list))
	for i, at := range a.list {
		n[i] = at.Name
	}
	return n
}

// All returns the attributes in order.
func (a *Attributes) All() []Attribute {
	if a == nil {
		return nil
	}
	o := make([]Attribute, len(a.list))
	copy(o, a.list)
	return o
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

// Clone returns a deep copy of a. Cloning nil returns an empty set.
func (a *Attributes) Clone() *Attributes {
	o := new(Attributes)
	if a == nil {
		return o
	}
	for _, at := range a.list {
		if !at.IsText() {
			at.Numbers = append([]float64(nil), at.Numbers...)
		}
		o.list = append(o.list, at)
	}
	return o
}
