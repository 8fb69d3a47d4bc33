package cmis

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ChangeType enumerates the kinds of change log events.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
	ChangeSecurity ChangeType = "security"
)

// ChangeEntry is one event of a repository's change log. The entry id is
// optional, some repositories omit it, and the property snapshot depends
// on the repository's Changes capability.
type ChangeEntry struct {
	// ID is the change entry's own identifier, empty when the repository
	// does not supply one.
	ID string

	// ObjectID identifies the object that changed.
	ObjectID string

	Type ChangeType
	Time time.Time

	// Properties is the coerced property snapshot included with the entry,
	// possibly empty depending on the repository's capability.
	Properties map[string]Value
}

// changeEventInfo is the wire shape of the changeEventInfo member.
type changeEventInfo struct {
	ChangeType string `mapstructure:"changeType"`
	ChangeTime any    `mapstructure:"changeTime"`
}

// parseChangeEntry builds a ChangeEntry from one raw change log object.
func parseChangeEntry(data map[string]any) (*ChangeEntry, error) {
	entry := &ChangeEntry{ID: stringField(data, "id")}

	var info changeEventInfo
	if raw, ok := data["changeEventInfo"].(map[string]any); ok {
		if err := mapstructure.Decode(raw, &info); err != nil {
			return nil, fmt.Errorf("decoding changeEventInfo: %w", err)
		}
	}
	entry.Type = ChangeType(info.ChangeType)
	if info.ChangeTime != nil {
		t, err := coerceDateTime(info.ChangeTime)
		if err != nil {
			return nil, fmt.Errorf("change time: %w", err)
		}
		entry.Time = t.(time.Time)
	}

	if rawProps, ok := data["properties"].(map[string]any); ok {
		props, err := parseProperties(rawProps)
		if err != nil {
			return nil, err
		}
		entry.Properties = props
		if id, ok := props["cmis:objectId"].ID(); ok {
			entry.ObjectID = id
		}
	}
	return entry, nil
}

// ChangeResultSet is the change log counterpart of ResultSet. Change
// entries are not CMIS objects, so they bypass specialization entirely.
type ChangeResultSet struct {
	data    map[string]any
	entries []*ChangeEntry
	done    bool
}

// Results materializes the change entries exactly once, in server order.
func (rs *ChangeResultSet) Results() ([]*ChangeEntry, error) {
	if rs.done {
		return rs.entries, nil
	}
	raw, ok := rs.data["objects"].([]any)
	if !ok {
		return nil, opError("GetContentChanges", ErrInvariant, "change log response lacks an objects list")
	}
	entries := make([]*ChangeEntry, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry, err := parseChangeEntry(obj)
		if err != nil {
			return nil, opError("GetContentChanges", ErrRuntime, err.Error())
		}
		entries = append(entries, entry)
	}
	rs.entries = entries
	rs.done = true
	return rs.entries, nil
}

// HasNext reports the server's hasMoreItems flag. The second return is
// false when the server omitted the field; treat the value as unknown then,
// not as false.
func (rs *ChangeResultSet) HasNext() (bool, bool) {
	v, ok := rs.data["hasMoreItems"].(bool)
	return v, ok
}

// NumItems reports the server's total item count, with the same unknown
// semantics as HasNext.
func (rs *ChangeResultSet) NumItems() (int64, bool) {
	v, ok := rs.data["numItems"].(float64)
	return int64(v), ok
}
