package hooking

import (
	"sync"
)

// StageCountTracer counts how many times each pipeline stage ran and collects
// the warnings raised along the way.
type StageCountTracer struct {
	lock sync.Mutex

	stageNames []string
	stageCount map[string]uint64
	warnings   []Warning
	aborted    bool
}

// NewStageCountTracer creates a new StageCountTracer.
func NewStageCountTracer() *StageCountTracer {
	t := &StageCountTracer{
		stageCount: make(map[string]uint64),
	}

	return t
}

// Func records stage starts, warnings, and aborts.
func (t *StageCountTracer) Func(ctx HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case HookPosStageStart:
		t.countStage(ctx.Item.(Stage))
	case HookPosWarning:
		t.warnings = append(t.warnings, ctx.Item.(Warning))
	case HookPosAbort:
		t.warnings = append(t.warnings, ctx.Item.(Warning))
		t.aborted = true
	}
}

func (t *StageCountTracer) countStage(s Stage) {
	_, ok := t.stageCount[s.Name]
	if !ok {
		t.stageNames = append(t.stageNames, s.Name)
	}

	t.stageCount[s.Name]++
}

// GetStageNames returns the names of the stages that ran, in the order they
// first ran.
func (t *StageCountTracer) GetStageNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stageNames...)
}

// GetStageCount returns the number of times that a stage ran.
func (t *StageCountTracer) GetStageCount(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stageCount[name]
}

// Warnings returns all the warnings collected.
func (t *StageCountTracer) Warnings() []Warning {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]Warning(nil), t.warnings...)
}

// Aborted tells if the pipeline reported a fatal abort.
func (t *StageCountTracer) Aborted() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.aborted
}
