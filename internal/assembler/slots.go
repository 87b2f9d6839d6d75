package assembler

// TaskName is the logical name of one of the ten optional tasks.
type TaskName string

const (
	TaskMES           TaskName = "MES"
	TaskMEPW          TaskName = "MEPW"
	TaskIndexV1       TaskName = "IndexV1"
	TaskIndexV2       TaskName = "IndexV2"
	TaskOCR           TaskName = "OCR"
	TaskFaceDetection TaskName = "FaceDetection"
	TaskFaceRedaction TaskName = "FaceRedaction"
	TaskMotion        TaskName = "Motion"
	TaskSummarization TaskName = "Summarization"
	TaskHyperlapse    TaskName = "Hyperlapse"
)

// TaskOrder is the fixed order tasks are appended to a job. Result
// slots are reported in this order too.
var TaskOrder = []TaskName{
	TaskMES,
	TaskMEPW,
	TaskIndexV1,
	TaskIndexV2,
	TaskOCR,
	TaskFaceDetection,
	TaskFaceRedaction,
	TaskMotion,
	TaskSummarization,
	TaskHyperlapse,
}

// AbsentSlot marks a task whose option was not in the request.
const AbsentSlot = -1

// Slot correlates one logical task with its position in the job and,
// after submission, with the identifiers the service assigned.
type Slot struct {
	Name TaskName
	// Index is the position the task was appended at, or AbsentSlot.
	Index int
	// OutputAssetID and TaskID are empty while Index is AbsentSlot.
	OutputAssetID string
	TaskID        string
	// Parameter is the resolved language/mode/level actually applied.
	Parameter string
}

// Absent reports whether the task was never created.
func (s Slot) Absent() bool {
	return s.Index == AbsentSlot
}

// slotTable assigns slot indices in append order and keeps one entry
// per logical task name, present or not.
type slotTable struct {
	slots map[TaskName]*Slot
	next  int
}

func newSlotTable() *slotTable {
	t := &slotTable{slots: make(map[TaskName]*Slot, len(TaskOrder))}
	for _, name := range TaskOrder {
		t.slots[name] = &Slot{Name: name, Index: AbsentSlot}
	}
	return t
}

// assign gives the named task the next slot index.
func (t *slotTable) assign(name TaskName, parameter string) int {
	s := t.slots[name]
	s.Index = t.next
	s.Parameter = parameter
	t.next++
	return s.Index
}

func (t *slotTable) get(name TaskName) *Slot {
	return t.slots[name]
}

// ordered returns the slots in TaskOrder.
func (t *slotTable) ordered() []Slot {
	out := make([]Slot, 0, len(TaskOrder))
	for _, name := range TaskOrder {
		out = append(out, *t.slots[name])
	}
	return out
}
