package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the closed set of things a user message can ask for.
type Action int

const (
	ActionReply Action = iota
	ActionSubscribe
	ActionUnsubscribe
	ActionList
)

// Intent is the structured outcome of resolving one free-text message.
// Topic is set for subscribe/unsubscribe; Reply carries conversational
// answers.
type Intent struct {
	Action Action
	Topic  string
	Reply  string
}

// Generator produces model text for a prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const promptTemplate = `You are the assistant behind a WhatsApp stock watchlist bot.
The user can ask you to track a stock, stop tracking a stock, or show
their watchlist. Anything else gets a short conversational answer.

User phone: %s
User message: %s

Respond with a single line of JSON, nothing else:
{"action":"subscribe|unsubscribe|list|reply","topic":"<TICKER or empty>","reply":"<answer text or empty>"}

Use "subscribe" or "unsubscribe" only when the user clearly names a
stock; put its ticker symbol in "topic". Use "list" when they ask what
they are tracking. Otherwise use "reply".`

// Resolver maps free text onto an Intent via the model's JSON contract.
type Resolver struct {
	gen Generator
}

func NewResolver(gen Generator) *Resolver {
	return &Resolver{gen: gen}
}

type rawIntent struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
	Reply  string `json:"reply"`
}

// Resolve returns an Intent for one inbound message. Output that is not
// valid JSON is treated as a conversational reply rather than an error;
// only transport failures propagate.
func (r *Resolver) Resolve(ctx context.Context, from, text string) (Intent, error) {
	out, err := r.gen.GenerateText(ctx, fmt.Sprintf(promptTemplate, from, text))
	if err != nil {
		return Intent{}, fmt.Errorf("failed to resolve intent: %v", err)
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(extractJSON(out)), &raw); err != nil {
		// The model answered in prose; pass it through.
		return Intent{Action: ActionReply, Reply: out}, nil
	}

	topic := strings.TrimSpace(raw.Topic)

	switch strings.ToLower(strings.TrimSpace(raw.Action)) {
	case "subscribe":
		if topic == "" {
			return Intent{Action: ActionReply, Reply: "Which stock would you like me to track?"}, nil
		}
		return Intent{Action: ActionSubscribe, Topic: topic}, nil
	case "unsubscribe":
		if topic == "" {
			return Intent{Action: ActionReply, Reply: "Which stock should I stop tracking?"}, nil
		}
		return Intent{Action: ActionUnsubscribe, Topic: topic}, nil
	case "list":
		return Intent{Action: ActionList}, nil
	default:
		if strings.TrimSpace(raw.Reply) != "" {
			return Intent{Action: ActionReply, Reply: raw.Reply}, nil
		}
		return Intent{Action: ActionReply, Reply: out}, nil
	}
}

// extractJSON pulls the first {...} span out of model output, stripping
// code fences the model sometimes wraps it in.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
