package flow

import (
	"maps"
	"slices"
	"time"
)

type FlowState string

const (
	FlowStateActive     FlowState = "ACTIVE"
	FlowStateCompleted  FlowState = "COMPLETED"
	FlowStateTerminated FlowState = "TERMINATED"
)

type StepState string

const (
	StepStateStarted    StepState = "STARTED"
	StepStateSuspended  StepState = "SUSPENDED"
	StepStateCompleted  StepState = "COMPLETED"
	StepStateTerminated StepState = "TERMINATED"
	StepStateFailed     StepState = "FAILED"
)

// FlowData is the flow-scoped bag. Messages maps a step name to the messages it
// produced; Values holds free-form data set by step actions.
type FlowData struct {
	Messages map[string][]MessageID `json:"messages,omitempty" bson:"messages,omitempty"`
	Values   map[string]string      `json:"values,omitempty" bson:"values,omitempty"`
}

func NewFlowData() *FlowData {
	return &FlowData{
		Messages: make(map[string][]MessageID),
		Values:   make(map[string]string),
	}
}

// AddMessage records a message produced while running step.
func (d *FlowData) AddMessage(step string, id MessageID) {
	if d.Messages == nil {
		d.Messages = make(map[string][]MessageID)
	}
	d.Messages[step] = append(d.Messages[step], id)
}

// StepMessages returns the messages recorded for step.
func (d *FlowData) StepMessages(step string) []MessageID {
	return slices.Clone(d.Messages[step])
}

// TakeMessages removes and returns the messages recorded for step.
func (d *FlowData) TakeMessages(step string) []MessageID {
	ids := d.Messages[step]
	delete(d.Messages, step)
	return ids
}

// AllMessages returns every recorded message ordered by step name then record order.
func (d *FlowData) AllMessages() []MessageID {
	steps := slices.Sorted(maps.Keys(d.Messages))
	var out []MessageID
	for _, s := range steps {
		out = append(out, d.Messages[s]...)
	}
	return out
}

func (d *FlowData) ClearMessages() {
	d.Messages = make(map[string][]MessageID)
}

func (d *FlowData) Set(key, value string) {
	if d.Values == nil {
		d.Values = make(map[string]string)
	}
	d.Values[key] = value
}

func (d *FlowData) Get(key string) string {
	return d.Values[key]
}

func (d *FlowData) clone() *FlowData {
	if d == nil {
		return nil
	}
	out := &FlowData{
		Messages: make(map[string][]MessageID, len(d.Messages)),
		Values:   maps.Clone(d.Values),
	}
	for k, v := range d.Messages {
		out.Messages[k] = slices.Clone(v)
	}
	return out
}

// ChatFlowInfo is the flow part of the chat cursor.
type ChatFlowInfo struct {
	Name     string     `json:"name" bson:"name"`
	State    FlowState  `json:"state" bson:"state"`
	Data     *FlowData  `json:"data,omitempty" bson:"data,omitempty"`
	Started  time.Time  `json:"started" bson:"started"`
	Finished *time.Time `json:"finished,omitempty" bson:"finished,omitempty"`
}

// ChatStepInfo is the step part of the chat cursor.
type ChatStepInfo struct {
	Name         string     `json:"name" bson:"name"`
	State        StepState  `json:"state" bson:"state"`
	Started      time.Time  `json:"started" bson:"started"`
	Finished     *time.Time `json:"finished,omitempty" bson:"finished,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

// ChatState is the persisted per-chat cursor. The engine mutates it in place and
// listeners persist it after every lifecycle event.
type ChatState struct {
	ChatID     int64             `json:"chat_id" bson:"chat_id"`
	Runner     string            `json:"runner" bson:"runner"`
	Language   string            `json:"language" bson:"language"`
	Labels     []string          `json:"labels,omitempty" bson:"labels,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	FlowInfo   *ChatFlowInfo     `json:"flow_info,omitempty" bson:"flow_info,omitempty"`
	StepInfo   *ChatStepInfo     `json:"step_info,omitempty" bson:"step_info,omitempty"`
	LastUpdate time.Time         `json:"last_update" bson:"last_update"`
}

// NewChatState creates the default state of a chat handled by runner.
func NewChatState(chatID int64, runner string) *ChatState {
	return &ChatState{
		ChatID:     chatID,
		Runner:     runner,
		Language:   DefaultLanguage,
		Metadata:   make(map[string]string),
		LastUpdate: time.Now(),
	}
}

// FlowData returns the data bag of the current flow, or nil.
func (s *ChatState) FlowData() *FlowData {
	if s.FlowInfo == nil {
		return nil
	}
	return s.FlowInfo.Data
}

// HasLabel reports whether the chat carries label.
func (s *ChatState) HasLabel(label string) bool {
	return slices.Contains(s.Labels, label)
}

func (s *ChatState) AddLabel(label string) {
	if !s.HasLabel(label) {
		s.Labels = append(s.Labels, label)
	}
}

func (s *ChatState) SetMetadata(key, value string) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]string)
	}
	s.Metadata[key] = value
}

// Clone returns a deep copy of the state.
func (s *ChatState) Clone() *ChatState {
	if s == nil {
		return nil
	}
	out := *s
	out.Labels = slices.Clone(s.Labels)
	out.Metadata = maps.Clone(s.Metadata)
	if s.FlowInfo != nil {
		fi := *s.FlowInfo
		fi.Data = s.FlowInfo.Data.clone()
		fi.Finished = cloneTime(s.FlowInfo.Finished)
		out.FlowInfo = &fi
	}
	if s.StepInfo != nil {
		si := *s.StepInfo
		si.Finished = cloneTime(s.StepInfo.Finished)
		out.StepInfo = &si
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
