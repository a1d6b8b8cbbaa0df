package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"math"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"handsfree/internal/state"
)

// Result is the JSON shape the model is asked to produce.
type Result struct {
	Intent   string         `json:"intent"`
	Entities map[string]any `json:"entities"`
	Query    string         `json:"query"`
}

const systemPrompt = `
You are the command classifier of a hands-free capture assistant.
Your ONLY job is to convert the user's utterance into a minimal structured JSON.

GENERAL RULES:
1. Do NOT converse.
2. Output ONLY JSON. No markdown.
3. Never invent values that were not spoken.

OUTPUT FORMAT:
{
  "intent": "<string>",
  "entities": { ... },
  "query": "<original user text>"
}

INTENTS (snake_case):
- "show_commands", "hide_commands"
- "take_photos"            entities: count, delay (seconds)
- "take_photo_timer"       entities: duration (seconds)
- "record_video"           entities: duration (seconds, optional)
- "record_audio"           entities: duration (seconds, optional)
- "stop_recording"         stops video only
- "stop_audio_recording"
- "switch_camera"
- "set_contact_field"      entities: field (name|phone|email|details), value
- "set_confirmation_field" entities: field (type|name|number), value
- "save_contact", "cancel_contact", "save_confirmation", "cancel_confirmation"
- "show_contacts", "open_media", "show_calendar", "return_main"
- "capture_contact", "capture_confirmation"
- "unknown"

Confirmation numbers are digits and letters without spaces.
Field values keep the user's original casing.
The current capture mode is given on the first line as "mode: <general|contact|confirmation>".
Field intents are only valid in the matching capture mode.
`

// Completer sends one system+user exchange to a language model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type OpenAICompleter struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAICompleter(client openai.Client, model string) *OpenAICompleter {
	if model == "" {
		model = string(openai.ChatModelGPT5Nano)
	}
	return &OpenAICompleter{client: client, model: openai.ChatModel(model)}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}
	return content, nil
}

// LLMMatcher asks a language model for the intent instead of using the rule table.
type LLMMatcher struct {
	llm Completer
}

func NewLLMMatcher(llm Completer) *LLMMatcher {
	return &LLMMatcher{llm: llm}
}

func (m *LLMMatcher) Match(ctx context.Context, u Utterance, mode state.CaptureMode) (Action, error) {
	prompt := fmt.Sprintf("mode: %s\n%s", mode, u.Raw)

	content, err := m.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return Unknown(u.Raw), err
	}

	log.Debug("Classified", "data", content)

	var out Result
	if err := json.Unmarshal([]byte(stripFence(content)), &out); err != nil {
		return Unknown(u.Raw), fmt.Errorf("unmarshal NLU result: %w (raw: %s)", err, content)
	}
	return out.Action(u.Raw), nil
}

// Action maps a model result onto the same Action values the rule table produces.
func (r Result) Action(raw string) Action {
	str := func(key string) string {
		v, ok := r.Entities[key]
		if !ok || v == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(v))
	}
	num := func(key string) int {
		if f, ok := r.Entities[key].(float64); ok {
			// Out of range values are negative so the bounds below reject them.
			if f < 0 || f > math.MaxInt32 {
				return -1
			}
			return int(f)
		}
		n, ok := leadingInt(str(key))
		if !ok {
			return 0
		}
		return n
	}

	switch Intent(r.Intent) {
	case IntentShowCommands, IntentHideCommands,
		IntentSaveContact, IntentCancelContact, IntentSaveConfirmation, IntentCancelConfirmation,
		IntentShowContacts, IntentOpenMedia, IntentShowCalendar, IntentReturnMain,
		IntentCaptureContact, IntentCaptureConfirmation:
		return Action{Intent: Intent(r.Intent), Raw: raw}

	case IntentSetContactField, IntentSetConfirmField:
		field := strings.ToLower(str("field"))
		value := str("value")
		if Intent(r.Intent) == IntentSetConfirmField && field == "number" {
			value = stripSpace(DigitsFromWords(value))
		}
		return Action{Intent: Intent(r.Intent), Field: field, Value: value, Raw: raw}
	}

	switch state.MediaKind(r.Intent) {
	case state.MediaTakePhotos:
		count := num("count")
		if count < 1 || count > maxPhotos {
			count = 1
		}
		return MediaAction(state.TakePhotos(count, boundSeconds(num("delay"))), raw)
	case state.MediaTakePhotoTimer:
		if d := boundSeconds(num("duration")); d > 0 {
			return MediaAction(state.TakePhotoTimer(d), raw)
		}
	case state.MediaRecordVideo:
		return MediaAction(state.RecordVideo(boundSeconds(num("duration"))), raw)
	case state.MediaRecordAudio:
		return MediaAction(state.RecordAudio(boundSeconds(num("duration"))), raw)
	case state.MediaStopRecording:
		return MediaAction(state.StopRecording(), raw)
	case state.MediaStopAudioRecording:
		return MediaAction(state.StopAudioRecording(), raw)
	case state.MediaSwitchCamera:
		return MediaAction(state.SwitchCamera(), raw)
	}

	return Unknown(raw)
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
