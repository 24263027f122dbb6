package chatview

import (
	"dataset-explorer-be/pkg/dataset"
	"dataset-explorer-be/pkg/message"
)

// DeriveInput is everything collection detection depends on.
type DeriveInput struct {
	Messages    []message.UIMessage
	Selection   []string
	Collections []dataset.Collection
	// Current is the collection already selected, if any.
	Current *dataset.Collection
	// InConversation is true when the view is bound to a persisted conversation.
	InConversation bool
	// Suppressed is true while a manual collection pick is settling.
	Suppressed bool
}

// Derived is the outcome of DeriveCollection. Selection is always set; the other fields
// describe what changed.
type Derived struct {
	Selection         []string
	SelectionReplaced bool
	Adopted           *dataset.Collection
	Warn              bool
}

// DeriveCollection reconciles the selection with message history and the known collections.
//
// Outside a persisted conversation the most recent dataset-bearing message is authoritative
// and replaces a diverging selection. A collection whose members equal the selection is adopted
// when none is selected yet. When nothing matches while a collection is selected in a fresh
// session, the dataset-change warning is raised.
func DeriveCollection(in DeriveInput) Derived {
	out := Derived{Selection: dataset.Clone(in.Selection)}
	if in.Suppressed {
		return out
	}

	if ids := LatestDatasetInfo(in.Messages); ids != nil && !in.InConversation && !dataset.Equal(out.Selection, ids) {
		out.Selection = dataset.Dedupe(ids)
		out.SelectionReplaced = true
	}

	var match *dataset.Collection
	if len(out.Selection) > 0 {
		match = dataset.FindMatching(in.Collections, out.Selection)
	}

	if match != nil {
		if in.Current == nil {
			out.Adopted = match
		}
		return out
	}

	if in.Current != nil && !in.InConversation {
		out.Warn = true
	}
	return out
}

// LatestDatasetInfo scans from the newest message for one that carries dataset ids.
func LatestDatasetInfo(msgs []message.UIMessage) []string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if ids := msgs[i].DatasetInfo(); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// DetectDrift reports whether the selection moved away from the one the last question used,
// in a conversation that already has answers.
func DetectDrift(previous, current []string, inConversation, hasMessages bool) bool {
	if len(previous) == 0 {
		return false
	}
	return inConversation && hasMessages && !dataset.Equal(previous, current)
}
