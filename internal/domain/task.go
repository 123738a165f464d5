package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// TaskID is the opaque identifier for a task. Previous iterations of the
// service used integers, short strings, and random 128-bit values; logic
// must never branch on the physical representation, so the ID is treated
// as an opaque comparable string everywhere.
type TaskID string

// TaskType selects which executor handles a task. The set is closed at
// runtime by the executor registry; adding a type is a registration, not
// a change to the lifecycle machinery.
type TaskType string

// Known task types shipped with the service.
const (
	TaskTypeSleep     TaskType = "sleep"
	TaskTypePrime     TaskType = "prime"
	TaskTypeFibonacci TaskType = "fibonacci"
)

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

// Lifecycle states. PENDING is the only initial state; SUCCESS and
// FAILURE are terminal.
const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusStarted TaskStatus = "STARTED"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailure TaskStatus = "FAILURE"
)

// statusRank orders the lifecycle for monotonicity checks. A transition
// may never decrease the rank.
var statusRank = map[TaskStatus]int{
	TaskStatusPending: 0,
	TaskStatusStarted: 1,
	TaskStatusSuccess: 2,
	TaskStatusFailure: 2,
}

// IsValid reports whether s is one of the recognized lifecycle states.
func (s TaskStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether s is SUCCESS or FAILURE.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailure
}

// Payload is the task-type-specific input. All builtin executors take a
// single integer operand.
type Payload struct {
	Input int `json:"input"`
}

// Task is the central entity tracked through the lifecycle state machine.
// ID, Type, Payload and NotifyURL are immutable after creation; only
// Status, Result and the cosmetic progress fields mutate afterwards.
type Task struct {
	ID        TaskID          `json:"id"`
	Type      TaskType        `json:"type"`
	Payload   Payload         `json:"payload"`
	Status    TaskStatus      `json:"status"`
	Result    json.RawMessage `json:"result"`
	NotifyURL string          `json:"notify_url"`

	// QueuePosition and PercentDone are best-effort progress metadata.
	// They are non-authoritative and may be stale.
	QueuePosition int `json:"queue_position,omitempty"`
	PercentDone   int `json:"percent_done,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a task in the PENDING state. It validates the notify
// URL but deliberately not the type: type membership is owned by the
// executor registry, which the dispatcher consults before calling this.
func NewTask(id TaskID, taskType TaskType, payload Payload, notifyURL string) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	}
	if taskType == "" {
		return nil, fmt.Errorf("%w: task type cannot be empty", ErrValidation)
	}
	if err := ValidateNotifyURL(notifyURL); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Task{
		ID:        id,
		Type:      taskType,
		Payload:   payload,
		Status:    TaskStatusPending,
		NotifyURL: notifyURL,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateNotifyURL checks that raw is a well-formed absolute HTTP(S) URL.
func ValidateNotifyURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: notify URL cannot be empty", ErrInvalidNotifyURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNotifyURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidNotifyURL, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidNotifyURL, u.Scheme)
	}
	return nil
}

// Transition moves the task to the next lifecycle state. Transitions only
// flow forward (PENDING -> STARTED -> SUCCESS|FAILURE); moving to the
// current state is a no-op so duplicate reports stay idempotent. A task
// in a terminal state never changes again.
func (t *Task) Transition(next TaskStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if next == t.Status {
		return nil
	}
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: task %s is already %s", ErrStatusRegression, t.ID, t.Status)
	}
	if statusRank[next] < statusRank[t.Status] {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteSuccess transitions the task to SUCCESS and records the
// executor's result. Result presence is a function of status, so the two
// are only ever set together.
func (t *Task) CompleteSuccess(result json.RawMessage) error {
	if err := t.Transition(TaskStatusSuccess); err != nil {
		return err
	}
	t.Result = result
	t.PercentDone = 100
	return nil
}

// CompleteFailure transitions the task to FAILURE, recording the error
// description as the result.
func (t *Task) CompleteFailure(reason string) error {
	if err := t.Transition(TaskStatusFailure); err != nil {
		return err
	}
	res, err := json.Marshal(reason)
	if err != nil {
		return fmt.Errorf("failed to encode failure reason: %w", err)
	}
	t.Result = res
	return nil
}

// ApplyReported folds an externally-reported status and result into the
// task. Reports behind or equal to the current state are ignored, so
// repeated application is idempotent and reads stay monotonic; a report
// that would demote a terminal state returns ErrStatusRegression.
// Unrecognized statuses are ignored: the local snapshot is kept.
func (t *Task) ApplyReported(status TaskStatus, result json.RawMessage) error {
	switch status {
	case TaskStatusStarted:
		if t.Status != TaskStatusPending {
			return nil
		}
		return t.Transition(TaskStatusStarted)

	case TaskStatusSuccess:
		if t.Status == TaskStatusSuccess {
			return nil
		}
		return t.CompleteSuccess(result)

	case TaskStatusFailure:
		if t.Status == TaskStatusFailure {
			return nil
		}
		var reason string
		if err := json.Unmarshal(result, &reason); err != nil {
			reason = string(result)
		}
		return t.CompleteFailure(reason)

	default:
		return nil
	}
}

// Clone returns a deep copy of the task. Stores hand out clones so callers
// can never mutate registry state without going through Update.
func (t *Task) Clone() *Task {
	c := *t
	if t.Result != nil {
		c.Result = make(json.RawMessage, len(t.Result))
		copy(c.Result, t.Result)
	}
	return &c
}
