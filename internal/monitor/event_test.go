package monitor

import "testing"

func receivedPayload(callID, callerID, targetID string) RawEvent {
	return RawEvent(`{
		"xsi:Event": {
			"xsi:targetId": "` + targetID + `",
			"xsi:eventData": {
				"@xsi1:type": "xsi:CallReceivedEvent",
				"xsi:call": {
					"xsi:callId": "` + callID + `",
					"xsi:remoteParty": {
						"xsi:userId": "` + callerID + `",
						"xsi:name": "Remote Caller",
						"xsi:userDN": {"#text": "+15550100"}
					}
				}
			}
		}
	}`)
}

func TestClassify_CallReceived(t *testing.T) {
	ev := Classify(receivedPayload("call-1", "200", "100"))

	if ev.Kind != KindReceived {
		t.Fatalf("expected KindReceived, got %q", ev.Kind)
	}
	if ev.CallID != "call-1" {
		t.Fatalf("expected call id call-1, got %q", ev.CallID)
	}
	if ev.CallerID != "200" || ev.TargetID != "100" {
		t.Fatalf("unexpected parties: caller %q target %q", ev.CallerID, ev.TargetID)
	}
}

func TestClassify_CallOriginated(t *testing.T) {
	raw := RawEvent(`{
		"xsi:Event": {
			"xsi:targetId": "100",
			"xsi:eventData": {
				"@xsi1:type": "xsi:CallOriginatedEvent",
				"xsi:call": {"xsi:callId": "call-2"}
			}
		}
	}`)
	ev := Classify(raw)

	if ev.Kind != KindOriginated {
		t.Fatalf("expected KindOriginated, got %q", ev.Kind)
	}
	if ev.CallerID != "" {
		t.Fatalf("expected empty caller when remote party absent, got %q", ev.CallerID)
	}
}

func TestClassify_MissingTypeDiscriminator(t *testing.T) {
	raw := RawEvent(`{"xsi:Event": {"xsi:eventData": {"xsi:call": {"xsi:callId": "call-3"}}}}`)
	ev := Classify(raw)

	if ev.Kind != KindUnknown {
		t.Fatalf("expected KindUnknown, got %q", ev.Kind)
	}
	if ev.Actionable() {
		t.Fatalf("event without discriminator must not be actionable")
	}
}

func TestClassify_UnrelatedEventKind(t *testing.T) {
	raw := RawEvent(`{
		"xsi:Event": {
			"xsi:eventData": {"@xsi1:type": "xsi:CallReleasedEvent", "xsi:call": {"xsi:callId": "call-4"}}
		}
	}`)
	ev := Classify(raw)

	if ev.Kind != KindUnknown {
		t.Fatalf("expected unrecognized kinds to map to KindUnknown, got %q", ev.Kind)
	}
	if ev.CallID != "call-4" {
		t.Fatalf("fields should still be extracted, got call id %q", ev.CallID)
	}
}

func TestClassify_GarbageInput(t *testing.T) {
	for _, raw := range []RawEvent{
		nil,
		RawEvent(""),
		RawEvent("not json"),
		RawEvent(`[1,2,3]`),
		RawEvent(`{"xsi:Event": "not an object"}`),
		RawEvent(`{"xsi:Event": {"xsi:eventData": {"@xsi1:type": 42}}}`),
	} {
		ev := Classify(raw)
		if ev.Kind != KindUnknown {
			t.Fatalf("garbage %q: expected KindUnknown, got %q", raw, ev.Kind)
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	raw := receivedPayload("call-5", "200", "100")
	first := Classify(raw)
	second := Classify(raw)
	if first != second {
		t.Fatalf("classification not idempotent: %+v vs %+v", first, second)
	}
}
