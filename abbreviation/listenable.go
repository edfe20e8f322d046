package astiabbreviation

import (
	"github.com/asticode/go-astisense"
	"github.com/pkg/errors"
)

type ListenableOptions struct {
	OnLines func(l astisense.Lines) error
}

type Listenable struct {
	o ListenableOptions
}

func NewListenable(o ListenableOptions) *Listenable {
	return &Listenable{o: o}
}

func (l *Listenable) MessageNames() (ns []string) {
	if l.o.OnLines != nil {
		ns = append(ns, astisense.LinesMessage)
	}
	return
}

func (l *Listenable) OnMessage(m *astisense.Message) (err error) {
	switch m.Name {
	case astisense.LinesMessage:
		if err = l.onLines(m); err != nil {
			err = errors.Wrap(err, "astiabbreviation: on lines failed")
			return
		}
	}
	return
}

func (l *Listenable) onLines(m *astisense.Message) (err error) {
	// Parse payload
	var ls astisense.Lines
	if ls, err = astisense.ParseLinesPayload(m); err != nil {
		err = errors.Wrap(err, "astiabbreviation: parsing lines payload failed")
		return
	}

	// Custom
	if l.o.OnLines != nil {
		if err = l.o.OnLines(ls); err != nil {
			err = errors.Wrap(err, "astiabbreviation: custom on lines failed")
			return
		}
	}
	return
}
