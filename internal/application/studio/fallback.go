package studio

import (
	"fmt"
	"math/rand/v2"
)

const (
	// DegradedModeMessage 降级回复后追加的提示
	DegradedModeMessage = "Response generated using fallback due to API rate limits. Please try again in a few minutes for full AI responses."
	// GenericFailureMessage 周期失败时对用户的统一提示
	GenericFailureMessage = "Failed to generate response. Please try again."
)

var fallbackTemplates = []string{
	`I understand you want me to help with: "%s".

Here's a sample script structure you can use as a starting point:

**FADE IN:**

**EXT. LOCATION - TIME OF DAY**

*[Scene description and action]*

**CHARACTER NAME**
Dialogue goes here.

**[Additional action or camera direction]**

**FADE OUT.**

I'm currently experiencing high demand and rate limits. Please try again in a few moments for a more detailed, personalized response.`,

	`Thank you for your request about: "%s".

Due to current API limitations, here's a general framework you can adapt:

**SCENE STRUCTURE:**
- **Setup:** Establish the setting and characters
- **Conflict:** Introduce the main challenge or goal
- **Resolution:** Show how the situation develops

**VISUAL ELEMENTS:**
- Consider lighting (golden hour, dramatic shadows, etc.)
- Camera angles (wide shots for establishing, close-ups for emotion)
- Color palette to match the mood

Please try your request again in a moment for a more customized response.`,

	`I see you're working on: "%s".

Here's a quick creative starting point:

**STORY BEATS:**
1. **Opening Image** - Set the tone and world
2. **Inciting Incident** - What kicks off the action?
3. **Midpoint** - Major turning point or revelation
4. **Climax** - The main confrontation or peak moment
5. **Resolution** - How things settle

**PRODUCTION NOTES:**
- Focus on strong visual storytelling
- Keep dialogue concise and purposeful
- Consider practical locations and budget

The system is currently at capacity. Please retry shortly for a full, detailed response tailored to your specific needs.`,
}

// FallbackPool 限流耗尽时使用的固定回复池
type FallbackPool struct {
	templates []string
	pick      func(n int) int
}

// NewFallbackPool 创建回复池，pick 为空时使用 math/rand/v2
func NewFallbackPool(pick func(n int) int) *FallbackPool {
	if pick == nil {
		pick = rand.IntN
	}
	return &FallbackPool{templates: fallbackTemplates, pick: pick}
}

// Size 模板数量
func (p *FallbackPool) Size() int {
	return len(p.templates)
}

// Respond 选取一个模板并嵌入用户提示
func (p *FallbackPool) Respond(prompt string) string {
	i := p.pick(len(p.templates))
	if i < 0 || i >= len(p.templates) {
		i = 0
	}
	return fmt.Sprintf(p.templates[i], prompt)
}
