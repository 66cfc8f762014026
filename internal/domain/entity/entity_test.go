package entity

import (
	"encoding/json"
	"testing"
	"time"
)

func TestElementTypeClassification(t *testing.T) {
	for _, typ := range ScreenplayElementTypes {
		if !typ.IsScreenplay() || !typ.Valid() {
			t.Errorf("%s should be a valid screenplay type", typ)
		}
	}
	for _, typ := range []ElementType{ElementImage, ElementVideo, ElementText} {
		if typ.IsScreenplay() {
			t.Errorf("%s must not be a screenplay type", typ)
		}
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if ElementType("POSTER").Valid() {
		t.Errorf("unknown type reported valid")
	}
}

func TestConversationTurnValidate(t *testing.T) {
	if err := NewConversationTurn("p", RoleUser, "  ").Validate(); err != ErrEmptyTurnContent {
		t.Fatalf("empty content err = %v", err)
	}
	if err := NewConversationTurn("p", Role("system"), "x").Validate(); err == nil {
		t.Fatalf("expected invalid role error")
	}
	if err := NewConversationTurn("p", RoleTool, "ok").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEventEnvelopeRoundTrip(t *testing.T) {
	events := []StudioEvent{
		TextChunk{Content: "hello"},
		GenerationStarted{ElementID: "e1", Type: ElementImage},
		GenerationCompleted{ElementID: "e1", AssetURL: "https://cdn/x.png"},
		ElementAdded{Element: &Element{ID: "e2", Type: ElementAction, Content: "runs", Order: 3}},
		InfoEvent{Message: "Generating image..."},
		ErrorEvent{Message: "Failed to generate response. Please try again."},
	}
	for _, ev := range events {
		env, err := EncodeEvent("p1", ev)
		if err != nil {
			t.Fatalf("encode %s: %v", ev.Name(), err)
		}
		got, err := env.Decode()
		if err != nil {
			t.Fatalf("decode %s: %v", ev.Name(), err)
		}
		if got.Name() != ev.Name() {
			t.Fatalf("name = %s, want %s", got.Name(), ev.Name())
		}
	}

	env, _ := EncodeEvent("p1", GenerationCompleted{ElementID: "e1", AssetURL: "u"})
	if string(env.Data) != `{"elementId":"e1","assetUrl":"u"}` {
		t.Fatalf("wire payload = %s", env.Data)
	}
}

func TestElementAddedUsesClientFieldNames(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	el := &Element{
		ID: "e1", ProjectID: "p1", Type: ElementImage, Content: "door",
		AssetURL: "https://cdn/x.png", Order: 2, CreatedAt: created, UpdatedAt: created,
	}
	env, err := EncodeEvent("p1", ElementAdded{Element: el})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw struct {
		Element map[string]any `json:"element"`
	}
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "projectId", "type", "content", "assetUrl", "isGenerating", "order", "createdAt", "updatedAt"} {
		if _, ok := raw.Element[key]; !ok {
			t.Errorf("missing key %q in %s", key, env.Data)
		}
	}
	for _, key := range []string{"project_id", "asset_url", "is_generating", "created_at", "updated_at"} {
		if _, ok := raw.Element[key]; ok {
			t.Errorf("unexpected snake_case key %q", key)
		}
	}

	ev, err := env.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := ev.(ElementAdded).Element
	if got.ID != "e1" || got.ProjectID != "p1" || got.AssetURL != el.AssetURL || got.Order != 2 || !got.CreatedAt.Equal(created) {
		t.Fatalf("decoded element = %+v", got)
	}
}

func TestEnvelopeUnknownEvent(t *testing.T) {
	env := &EventEnvelope{Event: "bogus", Data: []byte(`{}`)}
	if _, err := env.Decode(); err == nil {
		t.Fatalf("expected error for unknown event")
	}
}
