package views

import (
	"context"
	"errors"
	"sort"
	"strings"

	"bankportal.org/internal/audit"
	"bankportal.org/internal/bank"
	"bankportal.org/internal/gateway"
	"bankportal.org/internal/obs"
	"bankportal.org/internal/validate"
)

// Submission is the outcome of a form action. Submitted is false when the
// input was rejected locally and nothing reached the backend.
type Submission struct {
	Submitted bool   `json:"submitted"`
	Success   string `json:"success,omitempty"`
	Error     string `json:"error,omitempty"`

	// Status is the backend status of a failed call, 0 for local or transport failures.
	Status int `json:"-"`
}

// OK reports whether the action succeeded.
func (s Submission) OK() bool { return s.Error == "" }

// Rejected reports a local validation failure.
func Rejected(err error) Submission {
	return Submission{Error: localMessage(err)}
}

func localMessage(err error) string {
	var fe *bank.FormError
	if errors.As(err, &fe) {
		return fe.Message
	}
	var ve *validate.ValidationError
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve.Errors))
		for f := range ve.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			msgs = append(msgs, ve.Errors[f])
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}

// action describes one backend mutation.
type action struct {
	name     string
	event    string // audit event, empty for none
	fallback string
	success  string // overrides the backend text when set
	fields   map[string]any
}

func submit(ctx context.Context, a action, run func(context.Context) (string, error)) Submission {
	text, err := run(ctx)
	if err != nil {
		obs.FromContext(ctx).Warn().Err(err).Str("action", a.name).Int("status", gateway.Status(err)).Msg("action failed")
		return Submission{Submitted: true, Error: gateway.Message(err, a.fallback), Status: gateway.Status(err)}
	}
	if a.event != "" {
		_ = audit.LogEvent(ctx, a.event, a.fields)
	}
	if a.success != "" {
		text = a.success
	}
	return Submission{Submitted: true, Success: text}
}
