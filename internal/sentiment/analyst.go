package sentiment

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// FallbackLabel is the neutral placeholder used whenever a headline
// cannot be classified.
const FallbackLabel = "⚖️ NEUTRAL - Analysis unavailable"

// Generator produces model text for a prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// labelShape is the required output: marker, uppercase sentiment word,
// dash, short summary.
var labelShape = regexp.MustCompile(`^\S+ [A-Z]+ - .+`)

const promptTemplate = `You are a financial news summarizer.
Analyze this headline: '%s'

Output format must be exactly like this:
[EMOJI] [SENTIMENT] - [3-5 WORD SUMMARY]

Example 1: 📈 BULLISH - Stock hits all-time high
Example 2: 📉 BEARISH - CEO steps down amid scandal
Example 3: ⚖️ NEUTRAL - Market awaits earnings report

Do not add any other text.`

// Analyst turns a headline into a short sentiment label.
type Analyst struct {
	gen Generator
}

func NewAnalyst(gen Generator) *Analyst {
	return &Analyst{gen: gen}
}

// Annotate classifies a headline. Output that does not match the label
// shape degrades to FallbackLabel; only transport failures return an
// error, and callers are expected to substitute FallbackLabel then too.
func (a *Analyst) Annotate(ctx context.Context, title string) (string, error) {
	out, err := a.gen.GenerateText(ctx, fmt.Sprintf(promptTemplate, title))
	if err != nil {
		return "", fmt.Errorf("failed to analyze headline: %v", err)
	}

	out = strings.TrimSpace(out)
	if !labelShape.MatchString(out) {
		return FallbackLabel, nil
	}

	return out, nil
}
