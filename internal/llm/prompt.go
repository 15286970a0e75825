package llm

import (
	"fmt"
	"strings"
)

// Prompt 一次生成的提示词
type Prompt struct {
	System string
	User   string
}

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"zh": "Simplified Chinese",
	"fr": "French",
	"es": "Spanish",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
}

// LanguageName 语言代码对应的英文名称，未知代码按德语处理
func LanguageName(language string) string {
	if name, ok := languageNames[language]; ok {
		return name
	}
	return languageNames["de"]
}

const reportInstructions = `Generate a well-structured Markdown report based on the provided data. Use the following sections:

## Executive Summary
Write 2-3 paragraphs providing a high-level overview of the most significant developments this period. Highlight the key themes and their potential impact on the AI industry.

## Technology Breakthroughs
Analyze the tech news in detail. Group related developments, explain their significance, and note the impact level. Reference specific sources where available.

## Investment & Market Activity

### Primary Market (Funding Rounds)
Summarize funding rounds, noting amounts, stages, and what the companies do.

### Secondary Market (Stock Movements)
Analyze notable stock price movements and what they signal about market sentiment.

### Mergers & Acquisitions
Cover M&A activity, discussing strategic rationale and industry implications.

## Practical AI Tips
Curate the most valuable tips, adding context about when and why each tip is useful. Group by difficulty level if applicable.

## Key Trends & Outlook
Synthesize the trending topics into a forward-looking analysis. Identify patterns across the data and provide perspective on where the AI industry is heading.

---

IMPORTANT GUIDELINES:
- Base your report ONLY on the provided data. Do not fabricate information.
- If a section has no data, write "No data available for this section." and move on.
- Use professional, analytical tone suitable for business executives and tech leaders.
- Include specific numbers, company names, and details from the data.
- Keep the report comprehensive but focused. Aim for quality analysis over quantity.
- Use only #, ## and ### headings, "- " bullet lists, pipe tables and **bold** emphasis.`

// BuildPrompt 构建分析师提示词
func BuildPrompt(periodID, language, dataContext string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a senior AI industry analyst writing a comprehensive weekly briefing report. ")
	fmt.Fprintf(&sb, "Write in %s.\n\n", LanguageName(language))
	sb.WriteString(reportInstructions)
	sb.WriteString("\n\nDATA:\n")
	sb.WriteString(dataContext)

	return Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("Generate the comprehensive AI briefing report for period %s.", periodID),
	}
}
