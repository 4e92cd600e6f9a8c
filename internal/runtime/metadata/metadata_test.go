package metadata

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestCloneDoesNotAlias(t *testing.T) {
	original := Metadata{KeySurfaceID: "s1", KeyActionType: "submit"}
	clone := original.Clone()
	clone[KeySurfaceID] = "changed"

	if original[KeySurfaceID] != "s1" {
		t.Fatalf("expected original map to stay untouched, got %q", original[KeySurfaceID])
	}
	if len(clone) != len(original) {
		t.Fatalf("expected clone to have same size")
	}
}

func TestCloneEmpty(t *testing.T) {
	var m Metadata
	cloned := m.Clone()
	if cloned == nil {
		t.Fatal("expected non-nil map")
	}
	if len(cloned) != 0 {
		t.Fatal("expected empty map")
	}
}

func TestWithAndWithAll(t *testing.T) {
	base := Metadata{KeyCorrelationID: "c1"}
	enriched := base.With(KeyActionType, "click")
	if base[KeyActionType] != "" {
		t.Fatalf("expected base map to remain unchanged")
	}
	if enriched[KeyActionType] != "click" {
		t.Fatalf("expected enriched map to add entry")
	}

	merged := enriched.WithAll(Metadata{KeySurfaceID: "s1"})
	if merged[KeySurfaceID] != "s1" {
		t.Fatalf("expected merged metadata to include new value")
	}
	if merged[KeyActionType] != "click" {
		t.Fatalf("expected existing entries to persist")
	}
}

func TestWithoutEmpty(t *testing.T) {
	md := Metadata{KeySurfaceID: "", KeyActionType: "click"}.WithoutEmpty()
	if _, ok := md[KeySurfaceID]; ok {
		t.Fatal("expected empty value to be dropped")
	}
	if md[KeyActionType] != "click" {
		t.Fatal("expected populated value to be kept")
	}
}

func TestNewPairs(t *testing.T) {
	md := New(KeySurfaceID, "s1", KeyActionType, "submit", "dangling")
	if md[KeySurfaceID] != "s1" || md[KeyActionType] != "submit" {
		t.Fatalf("expected pairs to be set, got %v", md)
	}
	if _, ok := md["dangling"]; ok {
		t.Fatal("expected dangling key to be ignored")
	}
}

func TestToAndFromWatermill(t *testing.T) {
	md := Metadata{KeySurfaceID: "s1"}
	wm := ToWatermill(md)
	if wm[KeySurfaceID] != "s1" {
		t.Fatalf("expected watermill metadata to copy entries")
	}
	wm[KeySurfaceID] = "mutation"
	if md[KeySurfaceID] != "s1" {
		t.Fatalf("expected original metadata to be immutable to watermill changes")
	}

	if len(ToWatermill(nil)) != 0 {
		t.Fatal("expected nil input to return empty metadata")
	}

	roundTrip := FromWatermill(message.Metadata{KeyActionType: "click"})
	if roundTrip[KeyActionType] != "click" {
		t.Fatalf("expected watermill metadata to convert back")
	}
}

func TestFromWatermillEmpty(t *testing.T) {
	md := FromWatermill(nil)
	if md == nil {
		t.Fatal("expected non-nil map")
	}
	if len(md) != 0 {
		t.Fatal("expected empty map")
	}
}
