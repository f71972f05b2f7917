package journal

import (
	"context"

	"github.com/nerrad567/x10-bridge/internal/bridges/x10"
)

// Recorder adapts a Repository to x10.ActivityRecorder.
type Recorder struct {
	repo Repository
}

// NewRecorder returns a Recorder writing to repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordActivity stores one bridge activity.
func (r *Recorder) RecordActivity(ctx context.Context, a x10.Activity) error {
	e := &Entry{
		Source:  a.Source,
		Device:  a.Device,
		House:   a.House,
		Command: a.Command,
		Input:   a.Input,
		Actions: actionRecords(a.Actions),
	}
	if a.Level != x10.NoLevel {
		level := a.Level
		e.Level = &level
	}
	return r.repo.Create(ctx, e)
}

func actionRecords(actions []x10.Action) []ActionRecord {
	out := make([]ActionRecord, 0, len(actions))
	for _, a := range actions {
		switch act := a.(type) {
		case x10.PublishMQTT:
			out = append(out, ActionRecord{Type: ActionPublish, Topic: act.Topic, Payload: act.Payload})
		case x10.RunControllerCommand:
			out = append(out, ActionRecord{Type: ActionRun, Args: act.Tokens})
		}
	}
	return out
}
