package websocket

import (
	"fmt"
	"strings"
)

// TopicKind namespaces broadcast channels so facility and case subscriptions
// can never collide.
type TopicKind string

const (
	TopicFacility TopicKind = "facility"
	TopicCase     TopicKind = "case"
)

// Topic identifies one broadcast channel.
type Topic struct {
	Kind TopicKind
	ID   string
}

func FacilityTopic(id string) Topic { return Topic{Kind: TopicFacility, ID: id} }
func CaseTopic(id string) Topic     { return Topic{Kind: TopicCase, ID: id} }

// String renders the wire form "kind:id".
func (t Topic) String() string {
	return string(t.Kind) + ":" + t.ID
}

// ParseTopic validates and parses the wire form of a topic.
func ParseTopic(s string) (Topic, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Topic{}, fmt.Errorf("websocket: malformed topic %q", s)
	}
	switch TopicKind(kind) {
	case TopicFacility, TopicCase:
		return Topic{Kind: TopicKind(kind), ID: id}, nil
	default:
		return Topic{}, fmt.Errorf("websocket: unknown topic kind %q", kind)
	}
}
