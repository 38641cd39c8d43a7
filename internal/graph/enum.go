package graph

import (
	"fmt"
	"strings"
)

const enumRefPrefix = "enum:"

// EnumRef is the column type that points at an enum.
func EnumRef(enumID string) string {
	return enumRefPrefix + enumID
}

// ParseEnumRef returns the enum id of an enum:<id> column type.
func ParseEnumRef(dataType string) (string, bool) {
	if !strings.HasPrefix(dataType, enumRefPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(dataType, enumRefPrefix)
	return id, id != ""
}

// ColumnRef identifies a column by table id and title.
type ColumnRef struct {
	TableID string
	Title   string
}

// AddEnum creates an enum without values. An empty name becomes
// NewEnum<n>.
func (g *Graph) AddEnum(name string) Enum {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("NewEnum%d", len(g.enums)+1)
	}
	e := &Enum{ID: g.newID(), Name: name, Values: []EnumValue{}}
	g.enums = append(g.enums, e)
	return *e
}

// UpdateEnum renames an enum. Columns reference it by id, so nothing else
// changes.
func (g *Graph) UpdateEnum(id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, e := g.enum(id)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrEnumNotFound, id)
	}
	e.Name = name
	return nil
}

// DeleteEnum removes an enum and resets every column typed enum:<id> to
// DefaultColumnType. The reset columns are returned.
func (g *Graph) DeleteEnum(id string) ([]ColumnRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, e := g.enum(id)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrEnumNotFound, id)
	}
	g.enums = append(g.enums[:i], g.enums[i+1:]...)

	ref := EnumRef(id)
	var reset []ColumnRef
	for _, t := range g.tables {
		for k := range t.Columns {
			if t.Columns[k].DataType == ref {
				t.Columns[k].DataType = DefaultColumnType
				reset = append(reset, ColumnRef{TableID: t.ID, Title: t.Columns[k].Title})
			}
		}
	}
	return reset, nil
}

// AddEnumValue appends a value. An empty value becomes VALUE_<n>.
func (g *Graph) AddEnumValue(enumID, value string) (EnumValue, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, e := g.enum(enumID)
	if e == nil {
		return EnumValue{}, fmt.Errorf("%w: %s", ErrEnumNotFound, enumID)
	}
	if strings.TrimSpace(value) == "" {
		value = fmt.Sprintf("VALUE_%d", len(e.Values)+1)
	}
	v := EnumValue{ID: g.newID(), Value: value}
	e.Values = append(e.Values, v)
	return v, nil
}

// UpdateEnumValue replaces the text of one value.
func (g *Graph) UpdateEnumValue(enumID, valueID, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, k, err := g.enumValue(enumID, valueID)
	if err != nil {
		return err
	}
	e.Values[k].Value = value
	return nil
}

// DeleteEnumValue removes one value.
func (g *Graph) DeleteEnumValue(enumID, valueID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, k, err := g.enumValue(enumID, valueID)
	if err != nil {
		return err
	}
	e.Values = append(e.Values[:k], e.Values[k+1:]...)
	return nil
}

func (g *Graph) enumValue(enumID, valueID string) (*Enum, int, error) {
	_, e := g.enum(enumID)
	if e == nil {
		return nil, -1, fmt.Errorf("%w: %s", ErrEnumNotFound, enumID)
	}
	for k := range e.Values {
		if e.Values[k].ID == valueID {
			return e, k, nil
		}
	}
	return e, -1, fmt.Errorf("%w: %s", ErrEnumValueNotFound, valueID)
}
