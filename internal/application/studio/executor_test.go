package studio

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"z-script-ai-api/internal/domain/entity"
	apperrors "z-script-ai-api/pkg/errors"
)

func TestExecuteAddScriptElement(t *testing.T) {
	h := newHarness()
	got := h.executor.Execute(context.Background(), projectID,
		call("a", ToolAddScriptElement, `{"content":"She hesitates.","element_type":"ACTION"}`))

	if got != "Script element added successfully: ACTION" {
		t.Fatalf("result = %q", got)
	}
	els, _ := h.elements.ListByProject(context.Background(), projectID)
	if len(els) != 1 || els[0].Order != 0 || els[0].Content != "She hesitates." {
		t.Fatalf("elements = %+v", els)
	}
}

func TestExecuteRejectsNonScreenplayType(t *testing.T) {
	h := newHarness()
	got := h.executor.Execute(context.Background(), projectID,
		call("a", ToolAddScriptElement, `{"content":"x","element_type":"IMAGE"}`))

	if !strings.HasPrefix(got, "Failed to add script element: ") {
		t.Fatalf("result = %q", got)
	}
	if len(h.elements.elements) != 0 || len(h.sink.events) != 0 {
		t.Fatalf("rejected call must have no side effects")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	h := newHarness()
	got := h.executor.Execute(context.Background(), projectID, call("a", "delete_project", `{}`))
	if got != "Unknown function: delete_project" {
		t.Fatalf("result = %q", got)
	}
}

func TestExecuteGenerateImage(t *testing.T) {
	h := newHarness(WithIDGenerator(func() string { return "img-1" }))
	got := h.executor.Execute(context.Background(), projectID,
		call("a", ToolGenerateImage, `{"description":"a red door in the rain"}`))

	if got != "Image generated and saved successfully. The image shows: a red door in the rain" {
		t.Fatalf("result = %q", got)
	}
	if !reflect.DeepEqual(h.publisher.names, []string{"image-1777636800000"}) {
		t.Fatalf("published names = %v", h.publisher.names)
	}

	els, _ := h.elements.ListByProject(context.Background(), projectID)
	if len(els) != 1 {
		t.Fatalf("elements = %d", len(els))
	}
	el := els[0]
	if el.ID != "img-1" || el.Type != entity.ElementImage || el.Content != "a red door in the rain" || el.IsGenerating {
		t.Fatalf("element = %+v", el)
	}

	started := h.sink.events[1].(entity.GenerationStarted)
	added := h.sink.events[2].(entity.ElementAdded)
	completed := h.sink.events[3].(entity.GenerationCompleted)
	if started.ElementID != "img-1" || added.Element.ID != "img-1" || completed.ElementID != "img-1" || completed.AssetURL != el.AssetURL {
		t.Fatalf("lifecycle events = %#v / %#v / %#v", started, added, completed)
	}
}

func TestExecuteGenerateImageFailureCreatesNoElement(t *testing.T) {
	h := newHarness()
	h.images.err = errors.New("content policy violation")

	got := h.executor.Execute(context.Background(), projectID,
		call("a", ToolGenerateImage, `{"description":"x"}`))

	if got != "Failed to generate image: content policy violation" {
		t.Fatalf("result = %q", got)
	}
	if len(h.elements.elements) != 0 {
		t.Fatalf("no element may be created on failure")
	}
	want := []entity.EventName{entity.EventInfo, entity.EventGenerationStarted, entity.EventInfo}
	if got := h.sink.names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if info := h.sink.events[2].(entity.InfoEvent); info.Message != ImageFailedMessage {
		t.Fatalf("terminal info = %q", info.Message)
	}
}

func TestExecuteGenerateImagePublishFailure(t *testing.T) {
	h := newHarness()
	h.publisher.err = errors.New("upload rejected")

	got := h.executor.Execute(context.Background(), projectID,
		call("a", ToolGenerateImage, `{"description":"x"}`))

	if got != "Failed to generate image: upload rejected" {
		t.Fatalf("result = %q", got)
	}
	if len(h.elements.elements) != 0 {
		t.Fatalf("no element may be created when publishing fails")
	}
}

func TestExecuteGenerateVideoPlaceholder(t *testing.T) {
	h := newHarness()
	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/image-1","description":"slow push in"}`))

	want := "Video generated (placeholder mode). Original image returned. Daily budget unchanged: $5.00"
	if got != want {
		t.Fatalf("result = %q, want %q", got, want)
	}
	if h.videos.last.Duration != VideoDurationShort {
		t.Fatalf("duration = %d, want default %d", h.videos.last.Duration, VideoDurationShort)
	}
	if len(h.publisher.names) != 0 {
		t.Fatalf("placeholder result must not be republished")
	}
	els, _ := h.elements.ListByProject(context.Background(), projectID)
	if len(els) != 1 || els[0].Type != entity.ElementVideo || els[0].AssetURL != "https://cdn.example/image-1" {
		t.Fatalf("elements = %+v", els)
	}
}

func TestExecuteGenerateVideoZeroCostWithExhaustedBudget(t *testing.T) {
	h := newHarness()
	h.ledger.Record(5)

	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan","duration":10}`))

	if !strings.HasPrefix(got, "Video generated (placeholder mode).") {
		t.Fatalf("result = %q", got)
	}
	if h.videos.calls != 1 {
		t.Fatalf("generator calls = %d", h.videos.calls)
	}
}

func TestExecuteGenerateVideoRefusedByDailyBudget(t *testing.T) {
	h := newHarness(WithVideoCost(PerSecondVideoCost(1)))

	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan","duration":10}`))

	want := "Cannot generate video: Daily budget limit reached. Remaining: $5.00, Need: $10.00"
	if got != want {
		t.Fatalf("result = %q, want %q", got, want)
	}
	if h.videos.calls != 0 {
		t.Fatalf("generator must not be called when the budget refuses")
	}
	if len(h.sink.events) != 0 || len(h.elements.elements) != 0 {
		t.Fatalf("refusal must have no side effects")
	}
}

func TestExecuteGenerateVideoChargesOverrunWithinCap(t *testing.T) {
	h := newHarness(WithVideoCost(PerSecondVideoCost(0.1)))
	h.videos.result = &VideoResult{URL: "https://video.example/tmp.mp4", Cost: 0.75}

	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan","duration":5}`))

	want := "Video generated and saved successfully. Cost: $0.75. Daily budget remaining: $4.25"
	if got != want {
		t.Fatalf("result = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(h.publisher.names, []string{"video-1777636800000"}) {
		t.Fatalf("published names = %v", h.publisher.names)
	}
	els, _ := h.elements.ListByProject(context.Background(), projectID)
	if els[0].AssetURL != "https://cdn.example/video-1777636800000" {
		t.Fatalf("asset url = %q", els[0].AssetURL)
	}
}

func TestExecuteGenerateVideoOverrunNeverExceedsCap(t *testing.T) {
	h := newHarness(WithVideoCost(PerSecondVideoCost(0.1)))
	h.ledger.Record(4.4)
	h.videos.result = &VideoResult{URL: "https://video.example/tmp.mp4", Cost: 2}

	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan","duration":5}`))

	want := "Video generated and saved successfully. Cost: $0.50. Daily budget remaining: $0.10"
	if got != want {
		t.Fatalf("result = %q, want %q", got, want)
	}
	status := h.ledger.Status()
	if status.Daily.Used > status.Daily.Limit || status.Monthly.Used > status.Monthly.Limit {
		t.Fatalf("cap breached: %+v", status)
	}
	if remaining := h.ledger.RemainingDaily(); remaining < 0 {
		t.Fatalf("remaining = %v", remaining)
	}
	if len(h.elements.elements) != 1 {
		t.Fatalf("generated video must still be saved")
	}
}

func TestExecuteGenerateVideoFailureEmitsTerminalInfo(t *testing.T) {
	h := newHarness(WithVideoCost(PerSecondVideoCost(0.1)))
	h.videos.err = errors.New("provider timeout")

	h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan"}`))

	want := []entity.EventName{entity.EventInfo, entity.EventGenerationStarted, entity.EventInfo}
	if got := h.sink.names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if info := h.sink.events[2].(entity.InfoEvent); info.Message != VideoFailedMessage {
		t.Fatalf("terminal info = %q", info.Message)
	}
}

func TestExecuteGenerateVideoPublishFailureKeepsGeneratorURL(t *testing.T) {
	h := newHarness()
	h.videos.result = &VideoResult{URL: "https://video.example/tmp.mp4"}
	h.publisher.err = errors.New("cdn down")

	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan"}`))

	if !strings.HasPrefix(got, "Video generated and saved successfully.") {
		t.Fatalf("result = %q", got)
	}
	els, _ := h.elements.ListByProject(context.Background(), projectID)
	if len(els) != 1 || els[0].AssetURL != "https://video.example/tmp.mp4" {
		t.Fatalf("elements = %+v", els)
	}
}

func TestExecuteGenerateVideoFailureRefundsReservation(t *testing.T) {
	h := newHarness(WithVideoCost(PerSecondVideoCost(0.1)))
	h.videos.err = errors.New("provider timeout")

	got := h.executor.Execute(context.Background(), projectID,
		call("v", ToolGenerateVideo, `{"image_url":"https://cdn.example/i","description":"pan"}`))

	if got != "Failed to generate video: provider timeout" {
		t.Fatalf("result = %q", got)
	}
	if remaining := h.ledger.RemainingDaily(); remaining != 5 {
		t.Fatalf("remaining = %v, want 5", remaining)
	}
	if len(h.elements.elements) != 0 {
		t.Fatalf("no element may be created on failure")
	}
}

func TestToolFailureCodes(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		call ToolCall
		err  error
		want apperrors.ErrorCode
	}{
		{GenerateImageCall{}, cause, apperrors.CodeGenerationFailed},
		{GenerateVideoCall{}, cause, apperrors.CodeGenerationFailed},
		{AddScriptElementCall{}, cause, apperrors.CodeDatabaseError},
		{AddScriptElementCall{}, context.Canceled, apperrors.CodeServiceUnavailable},
	}
	for _, tc := range cases {
		got := toolFailure(tc.call, tc.err)
		if got.Code != tc.want || !errors.Is(got, tc.err) {
			t.Errorf("toolFailure(%T, %v) = %v, want code %s", tc.call, tc.err, got, tc.want)
		}
	}
	if !errors.Is(toolFailure(GenerateImageCall{}, cause), apperrors.ErrGenerationFailed) {
		t.Fatalf("media failures must match ErrGenerationFailed")
	}
}

func TestMonotonicStampIsStrictlyIncreasing(t *testing.T) {
	h := newHarness()
	for i := 0; i < 3; i++ {
		h.executor.Execute(context.Background(), projectID, call("a", ToolGenerateImage, `{"description":"x"}`))
	}
	want := []string{"image-1777636800000", "image-1777636800001", "image-1777636800002"}
	if !reflect.DeepEqual(h.publisher.names, want) {
		t.Fatalf("names = %v, want %v", h.publisher.names, want)
	}
}
