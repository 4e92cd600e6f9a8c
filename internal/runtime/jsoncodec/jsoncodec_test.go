package jsoncodec

import (
	"bytes"
	"strings"
	"testing"
)

type testAction struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func TestMarshalAndUnmarshal(t *testing.T) {
	in := testAction{Type: "submit", Payload: map[string]any{"form": "login"}}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out testAction
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Type != in.Type || out.Payload["form"] != "login" {
		t.Fatalf("expected round trip to match, got %#v", out)
	}

	indented, err := MarshalIndent(in, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent failed: %v", err)
	}
	if !strings.Contains(string(indented), "\n  \"type\"") {
		t.Fatalf("expected indented output, got %s", string(indented))
	}
}

func TestUnmarshalStringDecodesUntypedObjects(t *testing.T) {
	var decoded any
	if err := UnmarshalString(`{"deleteSurface":{"surfaceId":"s1"},"n":1}`, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", decoded)
	}
	if _, ok := obj["deleteSurface"].(map[string]any); !ok {
		t.Fatalf("expected nested object, got %T", obj["deleteSurface"])
	}
	if n, ok := obj["n"].(float64); !ok || n != 1 {
		t.Fatalf("expected numbers to decode as float64, got %#v", obj["n"])
	}
}

func TestUnmarshalStringRejectsMalformedInput(t *testing.T) {
	var decoded any
	if err := UnmarshalString(`{"createSurface":`, &decoded); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestValid(t *testing.T) {
	if !Valid([]byte(`{"a":[1,2]}`)) {
		t.Fatal("expected valid JSON")
	}
	if Valid([]byte(`{"a":`)) {
		t.Fatal("expected invalid JSON")
	}
}

func TestEncodeAndDecode(t *testing.T) {
	buf := &bytes.Buffer{}
	payload := testAction{Type: "click"}

	if err := Encode(buf, payload); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("expected encoder to terminate the line, got %q", buf.String())
	}

	var decoded testAction
	if err := Decode(buf, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Type != payload.Type {
		t.Fatalf("expected decoded payload to match, got %#v", decoded)
	}
}
