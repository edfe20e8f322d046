package worker

import (
	"github.com/asticode/go-astisense"
)

func (w *Worker) RegisterListenables(ls ...astisense.Listenable) {
	// Loop through listenables
	for _, l := range ls {
		// No message names
		ns := l.MessageNames()
		if len(ns) == 0 {
			continue
		}

		// Add dispatcher handler
		c := astisense.DispatchConditions{Names: make(map[string]bool)}
		for _, n := range ns {
			c.Names[n] = true
		}
		w.d.On(c, l.OnMessage)
	}
}
