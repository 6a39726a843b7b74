package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBusy is returned by every mutating call while a submission is in
	// flight.
	ErrBusy = errors.New("contact: submission in progress")
	// ErrClosed is returned once the form has been closed.
	ErrClosed = errors.New("contact: form closed")
	// ErrSubmitted is returned when editing a form that was already delivered.
	ErrSubmitted = errors.New("contact: form already submitted")
	// ErrUnknownField is returned by Set for a field no step writes.
	ErrUnknownField = errors.New("contact: unknown field")
	// ErrInvalidSnapshot is returned by Restore for a snapshot that does not
	// fit the workflow's steps.
	ErrInvalidSnapshot = errors.New("contact: invalid snapshot")
)

// DefaultDismissDelay is how long a succeeded form stays open.
const DefaultDismissDelay = 5 * time.Second

const (
	failureMessage     = "All submission methods failed. Please try again or contact us directly."
	interruptedMessage = "The submission was interrupted. Please try again."
)

// Phase is the coarse state of a workflow.
type Phase int

const (
	Editing Phase = iota
	Submitting
	Succeeded
	Failed
	Closed
)

var phaseNames = [...]string{
	Editing:    "editing",
	Submitting: "submitting",
	Succeeded:  "succeeded",
	Failed:     "failed",
	Closed:     "closed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("contact: unknown phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("contact: unknown phase %q", b)
}

// State is the observable state of a workflow. Step is the zero-based index
// of the current question; Err holds the pending validation message or the
// failure reason.
type State struct {
	Phase Phase  `json:"phase"`
	Step  int    `json:"step"`
	Err   string `json:"error,omitempty"`
}

// Draft maps field ids to the values entered so far.
type Draft map[string]string

// Clone returns a copy of d that is never nil.
func (d Draft) Clone() Draft {
	c := make(Draft, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Snapshot is the serializable form of a workflow, used to carry it across
// HTTP requests.
type Snapshot struct {
	Phase Phase  `json:"phase"`
	Step  int    `json:"step"`
	Err   string `json:"error,omitempty"`
	Draft Draft  `json:"draft"`
}

// Clock abstracts time for the workflow so auto-close can be tested.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f after d and returns a function that cancels it.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Workflow drives one contact form session. All methods are safe to call
// from multiple goroutines; while a submission is in flight every mutating
// call returns ErrBusy.
type Workflow struct {
	mu        sync.Mutex
	steps     []Step
	fields    map[string]struct{}
	submitter Submitter
	validate  *Validator
	clock     Clock
	log       zerolog.Logger
	source    string
	userAgent string
	dismiss   time.Duration

	state State
	draft Draft
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithSource sets the origin URL sent with the submission.
func WithSource(source string) Option {
	return func(w *Workflow) { w.source = source }
}

// WithUserAgent sets the client user agent sent with the submission.
func WithUserAgent(ua string) Option {
	return func(w *Workflow) { w.userAgent = ua }
}

func WithClock(c Clock) Option {
	return func(w *Workflow) { w.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

// WithValidator replaces the default validator, e.g. one with extra rules
// registered through RegisterRule.
func WithValidator(v *Validator) Option {
	return func(w *Workflow) { w.validate = v }
}

// WithDismissDelay overrides DefaultDismissDelay.
func WithDismissDelay(d time.Duration) Option {
	return func(w *Workflow) { w.dismiss = d }
}

// New starts a workflow at the first step with an empty draft. With no steps
// the DefaultSteps are used.
func New(steps []Step, submitter Submitter, opts ...Option) *Workflow {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	w := &Workflow{
		steps:     cloneSteps(steps),
		fields:    make(map[string]struct{}),
		submitter: submitter,
		clock:     realClock{},
		log:       log.Logger,
		dismiss:   DefaultDismissDelay,
		draft:     Draft{},
	}
	for _, s := range w.steps {
		for _, f := range s.Fields() {
			w.fields[f] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.validate == nil {
		w.validate = NewValidator()
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Steps returns a copy of the questions.
func (w *Workflow) Steps() []Step {
	return cloneSteps(w.steps)
}

// Current returns the question at the current step.
func (w *Workflow) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneSteps(w.steps[w.state.Step : w.state.Step+1])[0]
}

// Draft returns a copy of the values entered so far.
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// Progress returns the fraction of the form reached, counting the current
// step as reached.
func (w *Workflow) Progress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return float64(w.state.Step+1) / float64(len(w.steps))
}

// DismissAfter is how long a succeeded form stays visible before AutoClose
// closes it.
func (w *Workflow) DismissAfter() time.Duration {
	return w.dismiss
}

func (w *Workflow) checkEditable() error {
	switch w.state.Phase {
	case Submitting:
		return ErrBusy
	case Closed:
		return ErrClosed
	case Succeeded:
		return ErrSubmitted
	}
	return nil
}

// Set records a field value and clears any pending message. Setting a field
// after a failed submission returns the form to editing at the last step.
func (w *Workflow) Set(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditable(); err != nil {
		return err
	}
	if _, ok := w.fields[field]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	w.draft[field] = value
	w.state.Phase = Editing
	w.state.Err = ""
	return nil
}

// Ready reports whether Advance would get past validation of the current
// step. It does not change the state.
func (w *Workflow) Ready() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditable(); err != nil {
		return err
	}
	return w.validate.Step(w.steps[w.state.Step], w.draft)
}

// Advance validates the current step and moves to the next one. On the last
// step it submits the draft instead; the call blocks until the submitter
// returns. Validation failures leave the step index unchanged and return a
// *ValidationError. A submission failure moves the form to Failed and can be
// retried by calling Advance again.
func (w *Workflow) Advance(ctx context.Context) (State, error) {
	w.mu.Lock()
	if err := w.checkEditable(); err != nil {
		st := w.state
		w.mu.Unlock()
		return st, err
	}

	step := w.steps[w.state.Step]
	if err := w.validate.Step(step, w.draft); err != nil {
		w.state.Phase = Editing
		w.state.Err = message(err)
		st := w.state
		w.mu.Unlock()
		return st, err
	}

	last := len(w.steps) - 1
	if w.state.Step < last {
		w.state = State{Phase: Editing, Step: w.state.Step + 1}
		st := w.state
		w.mu.Unlock()
		return st, nil
	}

	sub := w.submission()
	w.state = State{Phase: Submitting, Step: last}
	w.mu.Unlock()

	err := w.submit(ctx, sub)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.log.Warn().Err(err).Str("submission", sub.ID).Msg("contact: submission failed")
		w.state = State{Phase: Failed, Step: last, Err: failureReason(err)}
		return w.state, err
	}
	w.log.Info().Str("submission", sub.ID).Msg("contact: submission delivered")
	w.state = State{Phase: Succeeded, Step: last}
	return w.state, nil
}

func (w *Workflow) submit(ctx context.Context, sub Submission) error {
	if w.submitter == nil {
		return errors.New("contact: no submitter configured")
	}
	return w.submitter.Submit(ctx, sub)
}

// Retreat moves to the previous step without validating and clears any
// pending message. At the first step it does nothing.
func (w *Workflow) Retreat() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditable(); err != nil {
		return w.state, err
	}
	if w.state.Step == 0 {
		return w.state, nil
	}
	w.state = State{Phase: Editing, Step: w.state.Step - 1}
	return w.state, nil
}

// Close discards the draft and ends the session. It is refused while a
// submission is in flight.
func (w *Workflow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Phase == Submitting {
		return ErrBusy
	}
	clear(w.draft)
	w.state = State{Phase: Closed, Step: w.state.Step}
	return nil
}

// AutoClose schedules Close after DismissAfter once the form has succeeded,
// then calls onClose if it is not nil. It returns a function that cancels the
// pending close; for a form that has not succeeded nothing is scheduled.
func (w *Workflow) AutoClose(onClose func()) (cancel func() bool) {
	if w.State().Phase != Succeeded {
		return func() bool { return false }
	}
	return w.clock.AfterFunc(w.dismiss, func() {
		if err := w.Close(); err != nil {
			w.log.Debug().Err(err).Msg("contact: auto close skipped")
			return
		}
		if onClose != nil {
			onClose()
		}
	})
}

// Snapshot captures the state and draft.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Phase: w.state.Phase,
		Step:  w.state.Step,
		Err:   w.state.Err,
		Draft: w.draft.Clone(),
	}
}

// Restore replaces the state and draft with s. A snapshot taken mid-submit
// comes back as Failed so the user can retry.
func (w *Workflow) Restore(s Snapshot) error {
	if s.Step < 0 || s.Step >= len(w.steps) {
		return fmt.Errorf("%w: step %d of %d", ErrInvalidSnapshot, s.Step, len(w.steps))
	}
	if s.Phase < Editing || s.Phase > Closed {
		return fmt.Errorf("%w: phase %d", ErrInvalidSnapshot, int(s.Phase))
	}
	draft := Draft{}
	for k, v := range s.Draft {
		if _, ok := w.fields[k]; ok {
			draft[k] = v
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = State{Phase: s.Phase, Step: s.Step, Err: s.Err}
	if s.Phase == Submitting {
		w.state = State{Phase: Failed, Step: len(w.steps) - 1, Err: interruptedMessage}
	}
	w.draft = draft
	return nil
}

// submission builds the outbound record. Every field a step writes is
// present, empty when unanswered. Callers hold w.mu.
func (w *Workflow) submission() Submission {
	fields := make(Draft, len(w.fields))
	for f := range w.fields {
		fields[f] = w.draft[f]
	}
	return Submission{
		ID:        uuid.NewString(),
		Fields:    fields,
		Timestamp: w.clock.Now().UTC(),
		Source:    w.source,
		UserAgent: w.userAgent,
	}
}

func message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func failureReason(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return failureMessage
	}
	return err.Error()
}

// Submission is a finished draft plus the context it was sent from.
type Submission struct {
	ID        string
	Fields    Draft
	Timestamp time.Time
	Source    string
	UserAgent string
}

// Payload flattens the submission into the key/value body sent to the
// webhook: the draft fields plus timestamp, source and userAgent.
func (s Submission) Payload() map[string]string {
	p := make(map[string]string, len(s.Fields)+3)
	for k, v := range s.Fields {
		p[k] = v
	}
	p["timestamp"] = s.Timestamp.UTC().Format(time.RFC3339Nano)
	p["source"] = s.Source
	p["userAgent"] = s.UserAgent
	return p
}

func (s Submission) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Payload())
}

// ParseSubmission rebuilds a submission from a stored payload.
func ParseSubmission(id string, payload []byte) (Submission, error) {
	var p map[string]string
	if err := json.Unmarshal(payload, &p); err != nil {
		return Submission{}, fmt.Errorf("contact: decode submission %s: %w", id, err)
	}
	sub := Submission{
		ID:        id,
		Source:    p["source"],
		UserAgent: p["userAgent"],
		Fields:    Draft{},
	}
	if ts, ok := p["timestamp"]; ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Submission{}, fmt.Errorf("contact: decode submission %s: %w", id, err)
		}
		sub.Timestamp = t
	}
	for k, v := range p {
		switch k {
		case "timestamp", "source", "userAgent":
		default:
			sub.Fields[k] = v
		}
	}
	return sub, nil
}

// Submitter delivers a submission.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}
