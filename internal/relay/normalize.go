package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// UnknownTicketID stands in for an absent ticket id.
	UnknownTicketID = "Unknown"
	// DefaultAuthorName stands in for an absent comment author.
	DefaultAuthorName = "Support Agent"
)

// Comment is the canonical triple extracted from a helpdesk webhook payload.
type Comment struct {
	TicketID string
	Body     string
	Author   string
}

type path []string

var (
	ticketShapeID     = []path{{"ticket", "id"}}
	ticketShapeBody   = []path{{"ticket", "comment", "body"}, {"ticket", "comment", "value"}}
	ticketShapeAuthor = []path{{"ticket", "comment", "author", "name"}, {"ticket", "comment", "author", "author_name"}}

	flatShapeID     = []path{{"ticket_id"}, {"id"}}
	flatShapeBody   = []path{{"body"}, {"comment"}, {"latest_comment"}, {"value"}}
	flatShapeAuthor = []path{{"author_name"}, {"author"}, {"author", "name"}}
)

// DecodePayload parses a webhook body into a generic JSON tree. Numbers are
// kept as json.Number so ticket ids keep their exact text. An empty body
// decodes to an empty mapping.
func DecodePayload(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected trailing data after JSON document")
	}
	return out, nil
}

// Normalize extracts the comment triple from payload. A mapping with a
// "ticket" key is read only through the nested ticket shape; any other mapping
// is read through the flat shape. Missing keys and wrong types are never
// errors. The boolean is false when no comment body could be found.
func Normalize(payload any) (Comment, bool) {
	root, ok := payload.(map[string]any)
	if !ok {
		return Comment{}, false
	}

	idPaths, bodyPaths, authorPaths := flatShapeID, flatShapeBody, flatShapeAuthor
	if _, nested := root["ticket"]; nested {
		idPaths, bodyPaths, authorPaths = ticketShapeID, ticketShapeBody, ticketShapeAuthor
	}
	ticketID := firstText(root, idPaths...)
	body := firstText(root, bodyPaths...)
	author := firstText(root, authorPaths...)

	if body == "" {
		return Comment{TicketID: orDefault(ticketID, UnknownTicketID)}, false
	}
	return Comment{
		TicketID: orDefault(ticketID, UnknownTicketID),
		Body:     body,
		Author:   orDefault(author, DefaultAuthorName),
	}, true
}

func firstText(root map[string]any, paths ...path) string {
	for _, p := range paths {
		value, ok := lookup(root, p)
		if !ok {
			continue
		}
		if text := textValue(value); text != "" {
			return text
		}
	}
	return ""
}

func lookup(node any, p path) (any, bool) {
	current := node
	for _, key := range p {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = object[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func textValue(value any) string {
	switch typed := value.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return ""
		}
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return ""
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
