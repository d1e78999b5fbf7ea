// Package pipeline runs the fixer catalog over a set of generated pages:
// one orchestrator per document, fanned out across a bounded worker pool.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docfix/docfix/internal/dom"
	"github.com/docfix/docfix/internal/errors"
	"github.com/docfix/docfix/internal/fixers"
)

// maxFixedPointRounds bounds fixers that re-run until stable, so a
// misbehaving fixer cannot loop forever.
const maxFixedPointRounds = 10

// Orchestrator applies an ordered pass list to one document at a time.
// It lazily switches between the parsed tree and the serialized text so
// consecutive passes of the same kind pay no conversion cost.
type Orchestrator struct {
	cx     *fixers.Context
	passes []fixers.Pass
}

// NewOrchestrator builds an orchestrator over the given passes. A nil
// pass list means the full built-in catalog.
func NewOrchestrator(cx *fixers.Context, passes []fixers.Pass) *Orchestrator {
	if passes == nil {
		passes = fixers.CreateAll()
	}
	return &Orchestrator{cx: cx, passes: passes}
}

// docState tracks which representation of the page is current.
type docState struct {
	path string

	doc        *dom.Document
	docChanged bool

	text        string
	textCurrent bool
	changed     bool
}

func (s *docState) switchToTree() error {
	if s.doc != nil {
		return nil
	}
	doc, err := dom.Parse(s.text, s.path)
	if err != nil {
		return err
	}
	s.doc = doc
	s.docChanged = false
	return nil
}

func (s *docState) switchToText() error {
	if s.doc == nil {
		return nil
	}
	if s.docChanged || !s.textCurrent {
		text, err := s.doc.Render()
		if err != nil {
			return err
		}
		s.text = text
		s.textCurrent = true
	}
	s.doc = nil
	return nil
}

// ProcessFile runs the pass list over the page at path, writing the file
// back only when a pass changed it. Nothing is written when any pass
// fails, so a failed document keeps its pre-run content. It reports
// whether the file changed.
func (o *Orchestrator) ProcessFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.IOError(err, "read page").WithContext("path", path)
	}
	text, changed, err := o.Process(string(data), path)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return false, errors.IOError(err, "write page").WithContext("path", path)
	}
	return true, nil
}

// Process runs the pass list over in-memory markup and returns the
// resulting text. XML pages only see the plain-text passes; there is no
// point building an HTML tree for them.
func (o *Orchestrator) Process(markup, path string) (string, bool, error) {
	st := &docState{path: path, text: markup, textCurrent: true}
	xml := strings.EqualFold(filepath.Ext(path), ".xml")

	for _, pass := range o.passes {
		var err error
		switch p := pass.(type) {
		case fixers.Fixer:
			if xml {
				continue
			}
			err = o.applyTree(st, p)
		case fixers.SectionFixer:
			if xml {
				continue
			}
			err = o.applySections(st, p)
		case fixers.TextFixer:
			err = o.applyText(st, p)
		default:
			err = errors.New(errors.CategoryInternal, errors.SeverityFatal,
				fmt.Sprintf("pass %q implements no known pass interface", pass.Name()))
		}
		if err != nil {
			return "", false, o.wrap(err, pass.Name(), path)
		}
	}

	if err := st.switchToText(); err != nil {
		return "", false, o.wrap(err, "render", path)
	}
	return st.text, st.changed, nil
}

func (o *Orchestrator) applyTree(st *docState, f fixers.Fixer) error {
	if err := st.switchToTree(); err != nil {
		return err
	}
	rounds := 1
	if fp, ok := f.(fixers.FixedPointFixer); ok && fp.FixedPoint() {
		rounds = maxFixedPointRounds
	}
	for i := 0; i < rounds; i++ {
		changed, err := f.Apply(o.cx, st.doc)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		st.docChanged = true
		st.textCurrent = false
		st.changed = true
	}
	return nil
}

// applySections runs a per-section pass over a snapshot of the section
// list taken before the pass begins, so a section-removing fixer never
// sees its own edits mid-pass. Sections detached by an earlier iteration
// are skipped.
func (o *Orchestrator) applySections(st *docState, f fixers.SectionFixer) error {
	if err := st.switchToTree(); err != nil {
		return err
	}
	policy := fixers.SectionAbort
	if pf, ok := f.(fixers.SectionPolicyFixer); ok {
		policy = pf.SectionPolicy()
	}

	var firstErr error
	for _, section := range st.doc.Sections() {
		if !dom.IsReachable(section, st.doc.Root()) {
			continue
		}
		changed, err := f.ApplySection(o.cx, st.doc, section)
		if changed {
			st.docChanged = true
			st.textCurrent = false
			st.changed = true
		}
		if err != nil {
			if policy == fixers.SectionAbort {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (o *Orchestrator) applyText(st *docState, f fixers.TextFixer) error {
	if err := st.switchToText(); err != nil {
		return err
	}
	out, err := f.ApplyText(o.cx, st.text, st.path)
	if err != nil {
		return err
	}
	if out != st.text {
		st.text = out
		st.changed = true
	}
	return nil
}

// wrap classifies a pass failure, promoting it to fatal when the
// configuration flags the pass as fatal.
func (o *Orchestrator) wrap(err error, pass, path string) error {
	if e := errors.AsStructured(err); e != nil && e.Category != errors.CategoryFixer {
		return e.WithContext("path", path)
	}
	if o.cx.IsFatal(pass) {
		return errors.FatalFixerError(err, pass).WithContext("path", path)
	}
	return errors.FixerError(err, pass).WithContext("path", path)
}
