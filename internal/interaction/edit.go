package interaction

import (
	"fmt"

	"schemaboard/internal/graph"
)

// TargetKind names what an in-place edit changes.
type TargetKind int

const (
	TargetTableLabel TargetKind = iota
	TargetColumnTitle
	TargetColumnDefault
	TargetColumnCheck
	TargetEnumName
	TargetEnumValue
	TargetRelationshipLabel
	TargetIndexName
)

// Target locates the text being edited. Only the fields its Kind needs are
// read.
type Target struct {
	Kind           TargetKind
	TableID        string
	Column         string
	EnumID         string
	ValueID        string
	RelationshipID string
	IndexID        string
}

// Key is a key press delivered to an edit session.
type Key int

const (
	KeyOther Key = iota
	KeyEnter
	KeyEscape
)

// EditSession is one in-place text edit. Enter and blur commit, Escape
// reverts. A commit the graph rejects reverts too. After any of these the
// session is finished and ignores further input.
type EditSession struct {
	e        *Editor
	target   Target
	original string
	text     string
	done     bool
}

// BeginEdit opens an edit on target, seeded with its current text.
func (e *Editor) BeginEdit(target Target) (*EditSession, error) {
	current, err := e.currentText(target)
	if err != nil {
		return nil, err
	}
	return &EditSession{e: e, target: target, original: current, text: current}, nil
}

func (s *EditSession) Text() string     { return s.text }
func (s *EditSession) Original() string { return s.original }
func (s *EditSession) Done() bool       { return s.done }

// SetText replaces the buffer.
func (s *EditSession) SetText(text string) {
	if !s.done {
		s.text = text
	}
}

// KeyDown handles Enter and Escape. Other keys are ignored.
func (s *EditSession) KeyDown(k Key) error {
	switch k {
	case KeyEnter:
		return s.commit()
	case KeyEscape:
		s.done = true
		s.text = s.original
	}
	return nil
}

// Blur commits like Enter.
func (s *EditSession) Blur() error {
	return s.commit()
}

func (s *EditSession) commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.text == s.original {
		return nil
	}
	if err := s.e.applyText(s.target, s.text); err != nil {
		s.text = s.original
		return err
	}
	s.e.changed()
	return nil
}

func (e *Editor) currentText(t Target) (string, error) {
	switch t.Kind {
	case TargetTableLabel:
		tbl, ok := e.g.Table(t.TableID)
		if !ok {
			return "", fmt.Errorf("%w: %s", graph.ErrTableNotFound, t.TableID)
		}
		return tbl.Label, nil
	case TargetColumnTitle, TargetColumnDefault, TargetColumnCheck:
		c, err := e.column(t.TableID, t.Column)
		if err != nil {
			return "", err
		}
		switch t.Kind {
		case TargetColumnTitle:
			return c.Title, nil
		case TargetColumnDefault:
			return c.DefaultValue, nil
		default:
			return c.CheckExpression, nil
		}
	case TargetEnumName, TargetEnumValue:
		en, ok := e.g.Enum(t.EnumID)
		if !ok {
			return "", fmt.Errorf("%w: %s", graph.ErrEnumNotFound, t.EnumID)
		}
		if t.Kind == TargetEnumName {
			return en.Name, nil
		}
		for _, v := range en.Values {
			if v.ID == t.ValueID {
				return v.Value, nil
			}
		}
		return "", fmt.Errorf("%w: %s", graph.ErrEnumValueNotFound, t.ValueID)
	case TargetRelationshipLabel:
		rel, ok := e.g.Relationship(t.RelationshipID)
		if !ok {
			return "", fmt.Errorf("%w: %s", graph.ErrRelationshipNotFound, t.RelationshipID)
		}
		return e.g.RelationshipLabel(rel), nil
	case TargetIndexName:
		tbl, ok := e.g.Table(t.TableID)
		if !ok {
			return "", fmt.Errorf("%w: %s", graph.ErrTableNotFound, t.TableID)
		}
		for _, ix := range tbl.Indexes {
			if ix.ID == t.IndexID {
				return ix.Name, nil
			}
		}
		return "", fmt.Errorf("%w: %s", graph.ErrIndexNotFound, t.IndexID)
	}
	return "", fmt.Errorf("unknown edit target %d", t.Kind)
}

func (e *Editor) applyText(t Target, text string) error {
	switch t.Kind {
	case TargetTableLabel:
		return e.g.RenameTable(t.TableID, text)
	case TargetColumnTitle:
		return e.g.RenameColumn(t.TableID, t.Column, text)
	case TargetColumnDefault:
		return e.g.UpdateColumnField(t.TableID, t.Column, graph.FieldDefaultValue, text)
	case TargetColumnCheck:
		return e.g.UpdateColumnField(t.TableID, t.Column, graph.FieldCheckExpression, text)
	case TargetEnumName:
		return e.g.UpdateEnum(t.EnumID, text)
	case TargetEnumValue:
		return e.g.UpdateEnumValue(t.EnumID, t.ValueID, text)
	case TargetRelationshipLabel:
		return e.g.RenameRelationship(t.RelationshipID, text)
	case TargetIndexName:
		return e.g.RenameIndex(t.TableID, t.IndexID, text)
	}
	return fmt.Errorf("unknown edit target %d", t.Kind)
}
