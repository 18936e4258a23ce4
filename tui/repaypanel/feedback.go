package repaypanel

import "nhbrepay/repay"

const feedbackLimit = 3

// Feedback collects the notifications shown under the repay button. It is
// written from the panel's update loop only.
type Feedback struct {
	notes []repay.Notification
}

// NewFeedback returns an empty feedback sink.
func NewFeedback() *Feedback {
	return &Feedback{}
}

// Notify keeps n, dropping the oldest entry once the limit is reached.
func (f *Feedback) Notify(n repay.Notification) {
	if f == nil {
		return
	}
	f.notes = append(f.notes, n)
	if len(f.notes) > feedbackLimit {
		f.notes = f.notes[len(f.notes)-feedbackLimit:]
	}
}

// Notes returns the retained notifications, oldest first.
func (f *Feedback) Notes() []repay.Notification {
	if f == nil {
		return nil
	}
	return f.notes
}

// Clear drops every retained notification.
func (f *Feedback) Clear() {
	if f != nil {
		f.notes = nil
	}
}
