package monitor

import "encoding/json"

// RawEvent is one untrusted notification payload as delivered by the
// platform event channel.
type RawEvent []byte

// Kind classifies a call event. Only two kinds are actionable; everything
// else is passed through as KindUnknown and ignored by the engine.
type Kind string

const (
	KindReceived   Kind = "call_received"
	KindOriginated Kind = "call_originated"
	KindUnknown    Kind = "unknown"
)

// wire values of the upstream event-type discriminator.
const (
	wireCallReceived   = "xsi:CallReceivedEvent"
	wireCallOriginated = "xsi:CallOriginatedEvent"
)

// Event is the normalized form of one call notification.
// CallerID and TargetID are platform-internal call identities; either or
// both may be empty on a valid event.
type Event struct {
	Kind     Kind
	CallID   string
	CallerID string
	TargetID string
}

// Actionable reports whether the engine should evaluate this event at all.
func (e Event) Actionable() bool {
	return e.Kind == KindReceived || e.Kind == KindOriginated
}

// Classify parses one raw notification into a normalized Event.
//
// The upstream schema is untrusted and partially documented, so parsing is
// total: any missing or malformed field degrades to an empty value and an
// unparseable payload yields a KindUnknown event. Classify never fails;
// the ingestion loop must not stop on bad input.
func Classify(raw RawEvent) Event {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Event{Kind: KindUnknown}
	}

	eventData := dig(doc, "xsi:Event", "xsi:eventData")
	call := dig(eventData, "xsi:call")
	remoteParty := dig(call, "xsi:remoteParty")

	ev := Event{
		Kind:     mapKind(digString(eventData, "@xsi1:type")),
		CallID:   digString(call, "xsi:callId"),
		CallerID: digString(remoteParty, "xsi:userId"),
		TargetID: digString(dig(doc, "xsi:Event"), "xsi:targetId"),
	}
	return ev
}

func mapKind(wire string) Kind {
	switch wire {
	case wireCallReceived:
		return KindReceived
	case wireCallOriginated:
		return KindOriginated
	default:
		return KindUnknown
	}
}

// dig walks nested maps, returning nil as soon as a key is absent or a
// value is not itself a map.
func dig(v any, keys ...string) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for _, k := range keys {
		next, ok := m[k].(map[string]any)
		if !ok {
			return nil
		}
		m = next
	}
	return m
}

// digString reads a string leaf, tolerating the upstream habit of encoding
// text nodes as {"#text": "..."} objects.
func digString(v any, key string) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch leaf := m[key].(type) {
	case string:
		return leaf
	case map[string]any:
		if s, ok := leaf["#text"].(string); ok {
			return s
		}
	}
	return ""
}
