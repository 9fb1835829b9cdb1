package model

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// RepositoryEvent is a normalized event produced by a repository. It is the
// message body exchanged between ingress and worker.
type RepositoryEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Repository string          `json:"repository"`
	Data       json.RawMessage `json:"data"`
}

// IsPush reports whether the event originates from a push
func (e *RepositoryEvent) IsPush() bool {
	return e.Type == string(EventTypePush)
}

type rawRepositoryEvent struct {
	ID         *string         `json:"id"`
	Type       *string         `json:"type"`
	Repository *string         `json:"repository"`
	Data       json.RawMessage `json:"data"`
}

// DecodeRepositoryEvent decodes a queue message body. All string fields are
// required and data must be a JSON object.
func DecodeRepositoryEvent(body []byte) (*RepositoryEvent, error) {
	var raw rawRepositoryEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, goerr.Wrap(err, "malformed event payload")
	}

	switch {
	case raw.ID == nil:
		return nil, goerr.New("event id is missing")
	case raw.Type == nil:
		return nil, goerr.New("event type is missing", goerr.V("id", *raw.ID))
	case raw.Repository == nil:
		return nil, goerr.New("event repository is missing", goerr.V("id", *raw.ID))
	}

	if !isJSONObject(raw.Data) {
		return nil, goerr.New("event data is not an object", goerr.V("id", *raw.ID))
	}

	return &RepositoryEvent{
		ID:         *raw.ID,
		Type:       *raw.Type,
		Repository: *raw.Repository,
		Data:       raw.Data,
	}, nil
}

func isJSONObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(trimmed, &obj) == nil
}

// PushEventData is the part of a push payload the router relies on
type PushEventData struct {
	Ref string
}

// DecodePushEventData reinterprets event data as a push payload. The ref
// field is required and must be a string; other fields are ignored.
func DecodePushEventData(data json.RawMessage) (*PushEventData, error) {
	var raw struct {
		Ref *string `json:"ref"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "malformed push event payload")
	}
	if raw.Ref == nil {
		return nil, goerr.New("push event has no ref")
	}
	return &PushEventData{Ref: *raw.Ref}, nil
}
