package studio

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"z-script-ai-api/internal/domain/entity"
)

const (
	ToolGenerateImage    = "generate_image"
	ToolAddScriptElement = "add_script_element"
	ToolGenerateVideo    = "generate_video"
)

// 视频时长（秒）
const (
	VideoDurationShort = 5
	VideoDurationLong  = 10
)

// ToolPalette 首轮模型调用提供的工具
func ToolPalette() []*schema.ToolInfo {
	screenplayKinds := make([]string, 0, len(entity.ScreenplayElementTypes))
	for _, t := range entity.ScreenplayElementTypes {
		screenplayKinds = append(screenplayKinds, string(t))
	}

	return []*schema.ToolInfo{
		{
			Name: ToolGenerateImage,
			Desc: "Generate an image based on a detailed description for scene visualization",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"description": {
					Type:     schema.String,
					Desc:     "Detailed description of the image to generate, including visual elements, lighting, mood, and style",
					Required: true,
				},
				"scene_context": {
					Type: schema.String,
					Desc: "Context about what scene or part of the script this image represents",
				},
			}),
		},
		{
			Name: ToolAddScriptElement,
			Desc: "Add a formatted script element to the project",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"content": {
					Type:     schema.String,
					Desc:     "The formatted script content (scene heading, action, dialogue, etc.)",
					Required: true,
				},
				"element_type": {
					Type:     schema.String,
					Desc:     "The type of script element",
					Enum:     screenplayKinds,
					Required: true,
				},
			}),
		},
		{
			Name: ToolGenerateVideo,
			Desc: "Generate a video from an image with motion and animation",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"image_url": {
					Type:     schema.String,
					Desc:     "URL of the image to animate into a video",
					Required: true,
				},
				"description": {
					Type:     schema.String,
					Desc:     "Description of the motion and animation to apply to the image",
					Required: true,
				},
				"duration": {
					Type: schema.Integer,
					Desc: "Duration of the video in seconds (5 or 10)",
				},
			}),
		},
	}
}

// ToolCall 已校验的工具调用，每个工具一个变体
type ToolCall interface {
	CallID() string
	ToolName() string
	toolCall()
}

// GenerateImageCall generate_image
type GenerateImageCall struct {
	ID           string
	Description  string
	SceneContext string
}

// AddScriptElementCall add_script_element
type AddScriptElementCall struct {
	ID          string
	Content     string
	ElementType entity.ElementType
}

// GenerateVideoCall generate_video
type GenerateVideoCall struct {
	ID          string
	ImageURL    string
	Description string
	Duration    int
}

func (c GenerateImageCall) CallID() string    { return c.ID }
func (c AddScriptElementCall) CallID() string { return c.ID }
func (c GenerateVideoCall) CallID() string    { return c.ID }

func (GenerateImageCall) ToolName() string    { return ToolGenerateImage }
func (AddScriptElementCall) ToolName() string { return ToolAddScriptElement }
func (GenerateVideoCall) ToolName() string    { return ToolGenerateVideo }

func (GenerateImageCall) toolCall()    {}
func (AddScriptElementCall) toolCall() {}
func (GenerateVideoCall) toolCall()    {}

// InvalidArgumentsError 工具参数不符合声明的结构
type InvalidArgumentsError struct {
	Tool   string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// UnknownToolError 模型请求了未声明的工具
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// ParseToolCall 将模型返回的调用解析为具体变体，在执行前完成校验
func ParseToolCall(tc schema.ToolCall) (ToolCall, error) {
	name := tc.Function.Name
	raw := strings.TrimSpace(tc.Function.Arguments)
	if raw == "" {
		raw = "{}"
	}
	invalid := func(format string, args ...any) error {
		return &InvalidArgumentsError{Tool: name, Reason: fmt.Sprintf(format, args...)}
	}

	switch name {
	case ToolGenerateImage:
		var args struct {
			Description  string `json:"description"`
			SceneContext string `json:"scene_context"`
		}
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, invalid("%v", err)
		}
		if strings.TrimSpace(args.Description) == "" {
			return nil, invalid("description is required")
		}
		return GenerateImageCall{ID: tc.ID, Description: args.Description, SceneContext: args.SceneContext}, nil

	case ToolAddScriptElement:
		var args struct {
			Content     string `json:"content"`
			ElementType string `json:"element_type"`
		}
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, invalid("%v", err)
		}
		if strings.TrimSpace(args.Content) == "" {
			return nil, invalid("content is required")
		}
		typ := entity.ElementType(strings.TrimSpace(args.ElementType))
		if !typ.IsScreenplay() {
			return nil, invalid("element_type %q is not a screenplay element type", args.ElementType)
		}
		return AddScriptElementCall{ID: tc.ID, Content: args.Content, ElementType: typ}, nil

	case ToolGenerateVideo:
		var args struct {
			ImageURL    string   `json:"image_url"`
			Description string   `json:"description"`
			Duration    *float64 `json:"duration"`
		}
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, invalid("%v", err)
		}
		if strings.TrimSpace(args.ImageURL) == "" {
			return nil, invalid("image_url is required")
		}
		if strings.TrimSpace(args.Description) == "" {
			return nil, invalid("description is required")
		}
		duration := VideoDurationShort
		if args.Duration != nil {
			switch *args.Duration {
			case VideoDurationShort, VideoDurationLong:
				duration = int(*args.Duration)
			default:
				return nil, invalid("duration must be 5 or 10, got %v", *args.Duration)
			}
		}
		return GenerateVideoCall{ID: tc.ID, ImageURL: args.ImageURL, Description: args.Description, Duration: duration}, nil

	default:
		return nil, &UnknownToolError{Name: name}
	}
}

// failurePrefix 工具失败结果的统一前缀
func failurePrefix(tool string) string {
	switch tool {
	case ToolGenerateImage:
		return "Failed to generate image"
	case ToolAddScriptElement:
		return "Failed to add script element"
	case ToolGenerateVideo:
		return "Failed to generate video"
	}
	return "Failed to run " + tool
}
