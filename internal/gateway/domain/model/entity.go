package model

import "time"

// Timestamp fields stamped by the gateway. Both creation fields carry the
// same value; the duplication is preserved for data continuity with records
// written by earlier versions of the platform.
const (
	FieldID          = "id"
	FieldCreatedDate = "created_date"
	FieldCreatedAt   = "created_at"
	FieldUpdatedDate = "updated_date"
	FieldCreatedBy   = "created_by"
	FieldUID         = "uid"
)

// TimestampFormat is the wire format for timestamp fields: fixed-width
// millisecond ISO-8601 so values compare correctly as strings.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders a time in the gateway's wire format, always UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Entity is a single record: a flat mapping of field name to a
// JSON-compatible value. The record id is assigned by the store and merged
// in under FieldID; it is never stored inside the document itself.
type Entity map[string]interface{}

// ID returns the record id, or "" when the entity has not been stored yet.
func (e Entity) ID() string {
	return e.String(FieldID)
}

// String returns the named field as a string, or "" when absent or not a string.
func (e Entity) String(field string) string {
	if v, ok := e[field].(string); ok {
		return v
	}
	return ""
}

// Has reports whether the named field is present.
func (e Entity) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Clone returns a shallow copy. Mutating the copy's top-level fields does
// not affect the original.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Merge overlays other's fields onto a copy of e. Fields in other win.
func (e Entity) Merge(other Entity) Entity {
	out := e.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// WithID returns a copy carrying the given id.
func (e Entity) WithID(id string) Entity {
	out := e.Clone()
	out[FieldID] = id
	return out
}
