package detect

import "github.com/poiesic/originality/core"

// Monitor provides hooks to observe a check.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(text string)
	AfterLocalMatch(match *core.LocalMatch)
	BeforeOnlineSearch(query string)
	AfterOnlineSearch(outcome *core.SearchOutcome)
	AfterPersist(added bool, err error)
	Finish(verdict *core.Verdict)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterLocalMatch(_ *core.LocalMatch)      {}
func (n *noopMonitor) BeforeOnlineSearch(_ string)             {}
func (n *noopMonitor) AfterOnlineSearch(_ *core.SearchOutcome) {}
func (n *noopMonitor) AfterPersist(_ bool, _ error)            {}
func (n *noopMonitor) Finish(_ *core.Verdict)                  {}
