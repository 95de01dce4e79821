package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "knxgraph"

// Import event names, the last topic level of an import event.
const (
	EventImportSucceeded = "succeeded"
	EventImportFailed    = "failed"
)

// Topics builds topic names under a common prefix.
//
//	topics := mqtt.NewTopics("site1/knxgraph")
//	topics.ImportEvent("3f2a...", mqtt.EventImportSucceeded)
//	// site1/knxgraph/import/3f2a.../succeeded
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Surrounding slashes are trimmed;
// an empty prefix selects DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// Status is the retained online/offline topic of this client.
func (t Topics) Status() string {
	return t.Prefix() + "/status"
}

// ImportEvent is the topic for the outcome of one import run.
func (t Topics) ImportEvent(runID, event string) string {
	return t.Prefix() + "/import/" + runID + "/" + event
}

// ImportLatest is the retained topic holding the most recent import outcome.
func (t Topics) ImportLatest() string {
	return t.Prefix() + "/import/latest"
}

// AllImports matches every import topic.
func (t Topics) AllImports() string {
	return t.Prefix() + "/import/#"
}
