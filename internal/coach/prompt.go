package coach

import (
	"fmt"
	"regexp"
	"strings"

	"voice-coach/internal/types"
)

// SystemPrompt 教练人设
const SystemPrompt = "You are an expert voice coach with 20+ years of experience helping people improve their speaking and presentation skills. Provide encouraging, specific, and actionable feedback."

const promptTemplate = `As a professional voice coach, analyze this voice data and provide specific, actionable feedback:

VOICE METRICS:
- Fundamental Frequency: %.1f Hz
- Pitch Stability (Jitter): %.2f%%
- Volume Stability (Shimmer): %.2f%%
- Clarity Score: %d%%
- Formants: %s

Please provide:
1. Overall assessment of voice quality
2. Specific strengths to build upon
3. Areas needing improvement with practical exercises
4. Daily practice recommendations

Keep the feedback encouraging, specific, and actionable. Limit to 4 paragraphs.`

// BuildPrompt 根据分析结果生成提示词
func BuildPrompt(a *types.UtteranceAnalysis) string {
	return fmt.Sprintf(promptTemplate,
		a.FundamentalFreqHz,
		a.JitterPercent,
		a.ShimmerPercent,
		a.ClarityScore,
		formantList(a.Formants),
	)
}

func formantList(formants []types.Formant) string {
	if len(formants) == 0 {
		return "Not available"
	}
	parts := make([]string, len(formants))
	for i, f := range formants {
		parts[i] = fmt.Sprintf("%.0fHz", f.FrequencyHz)
	}
	return strings.Join(parts, ", ")
}

// Persona 以特定人物风格进行指导的教练人设
type Persona struct {
	Name         string `mapstructure:"name" yaml:"name"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
}

const personaTemplate = `%s

VOICE ANALYSIS DATA:
- Fundamental Frequency: %.1f Hz
- Pitch Stability (Jitter): %.2f%%
- Volume Stability (Shimmer): %.2f%%
- Overall Clarity Score: %d%%
- Formant Frequencies: %s

PRACTICE TEXT:
"%s"

COACHING TASK:
Analyze this voice performance and provide specific, actionable feedback in your characteristic style as %s. Focus on:

1. What they did well (be encouraging and specific)
2. Areas for improvement based on the voice analysis data
3. Specific techniques they should practice
4. How to apply your signature vocal qualities to their delivery

Keep your feedback conversational, encouraging, and practical. Limit your response to 3-4 paragraphs. Remember to coach in the voice and style of %s.`

var markupTag = regexp.MustCompile(`<[^>]*>`)

// BuildPersonaPrompt 生成人设教练提示词，练习文本中的标记会被去掉
func BuildPersonaPrompt(p Persona, a *types.UtteranceAnalysis, practiceText string) string {
	return fmt.Sprintf(personaTemplate,
		p.SystemPrompt,
		a.FundamentalFreqHz,
		a.JitterPercent,
		a.ShimmerPercent,
		a.ClarityScore,
		formantList(a.Formants),
		markupTag.ReplaceAllString(practiceText, ""),
		p.Name,
		p.Name,
	)
}
