package validate

import "testing"

func TestUnknownMethodPassesThroughLeniently(t *testing.T) {
	res := Validate("some_unregistered_method", map[string]any{"anything": 1.0})
	if !res.OK {
		t.Fatalf("expected lenient pass-through, got details: %v", res.Details)
	}
}

func TestMissingRequiredFieldFails(t *testing.T) {
	res := Validate("send_text", map[string]any{"chat_id": "1"})
	if res.OK {
		t.Fatal("expected validation to fail when 'text' is missing")
	}
	if len(res.Details) == 0 {
		t.Fatal("expected at least one detail message")
	}
}

func TestValidSendTextPasses(t *testing.T) {
	res := Validate("send_text", map[string]any{"chat_id": "1", "text": "hello"})
	if !res.OK {
		t.Fatalf("expected valid params to pass, got: %v", res.Details)
	}
}

func TestUnknownExtraFieldsPreserved(t *testing.T) {
	res := Validate("send_text", map[string]any{"chat_id": "1", "text": "hi", "future_field": true})
	if !res.OK {
		t.Fatalf("expected unknown fields to be tolerated, got: %v", res.Details)
	}
	if _, present := res.Normalized["future_field"]; !present {
		t.Fatal("expected unknown field to survive in normalized params")
	}
}

func TestEnumConstraintRejectsInvalidValue(t *testing.T) {
	res := Validate("send_text", map[string]any{"chat_id": "1", "text": "hi", "parse_mode": "bogus"})
	if res.OK {
		t.Fatal("expected an invalid enum value to fail validation")
	}
}

func TestCrossFieldRuleRequiresOneGroup(t *testing.T) {
	res := Validate("edit_message_text", map[string]any{"text": "hi"})
	if res.OK {
		t.Fatal("expected edit_message_text without chat_id/message_id or inline_message_id to fail")
	}
}

func TestCrossFieldRuleSatisfiedByChatAndMessageID(t *testing.T) {
	res := Validate("edit_message_text", map[string]any{"text": "hi", "chat_id": "1", "message_id": "2"})
	if !res.OK {
		t.Fatalf("expected chat_id+message_id to satisfy the cross-field rule, got: %v", res.Details)
	}
}

func TestCrossFieldRuleSatisfiedByInlineMessageID(t *testing.T) {
	res := Validate("edit_message_text", map[string]any{"text": "hi", "inline_message_id": "abc"})
	if !res.OK {
		t.Fatalf("expected inline_message_id alone to satisfy the cross-field rule, got: %v", res.Details)
	}
}

func TestErrorJoinsDetailsWithSemicolon(t *testing.T) {
	res := Result{Details: []string{"#/a: required", "#/b: type"}}
	if got := res.Error(); got != "#/a: required; #/b: type" {
		t.Fatalf("unexpected joined error: %q", got)
	}
}
