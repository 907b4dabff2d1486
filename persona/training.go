package persona

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"google.golang.org/genai"
)

// TrainingReply is the structured output of the customer-simulation
// persona. The model is asked for JSON; decoding is treated as fallible
// with the typed fallbacks below, never as a trusted deserialization.
type TrainingReply struct {
	CustomerReply   string `json:"customer_reply"`
	FeedbackToStaff string `json:"feedback_to_staff"`
}

var (
	malformedReply = TrainingReply{CustomerReply: "Sorry, could you say that again?"}
	failureReply   = TrainingReply{CustomerReply: "Sorry, I'm having trouble understanding. Could you repeat that?"}
)

// TrainingOptions configures the training persona.
type TrainingOptions struct {
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	RestaurantName  string
}

// TrainingSession plays a Canadian customer so staff can practice their
// English service skills. Same rebuild-on-context-change contract as
// Session, but replies arrive in JSON response mode.
type TrainingSession struct {
	gen   Generator
	model string
	opts  TrainingOptions

	mu          sync.RWMutex
	menuContext string
	handle      *handle
	rebuilds    int
}

// NewTraining connects to Gemini for the training persona.
func NewTraining(ctx context.Context, opts TrainingOptions) (*TrainingSession, error) {
	if opts.APIKey == "" {
		return nil, ErrConfigurationMissing
	}
	gen, err := newGeminiGenerator(ctx, opts.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return newTrainingSession(gen, opts), nil
}

func newTrainingSession(gen Generator, opts TrainingOptions) *TrainingSession {
	t := &TrainingSession{
		gen:   gen,
		model: opts.Model,
		opts:  opts,
	}
	t.handle = t.buildHandle("")
	return t
}

func (t *TrainingSession) buildHandle(menuContext string) *handle {
	instruction := renderTrainingInstruction(t.opts.RestaurantName, menuContext)
	return &handle{
		instruction: instruction,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
			Temperature:       genai.Ptr(float32(t.opts.Temperature)),
			MaxOutputTokens:   int32(t.opts.MaxOutputTokens),
			ResponseMIMEType:  "application/json",
		},
	}
}

// UpdateContext rebuilds the handle only when the menu context changed.
func (t *TrainingSession) UpdateContext(menuContext string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if menuContext == t.menuContext {
		return
	}
	t.menuContext = menuContext
	t.handle = t.buildHandle(menuContext)
	t.rebuilds++
	log.Printf("Training persona rebuilt with %d chars of menu context", len(menuContext))
}

// RebuildCount reports how many times the handle has been replaced.
func (t *TrainingSession) RebuildCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rebuilds
}

// GenerateTurn runs one training exchange. The turn counter hint tells
// the model when to switch from customer to mentor mode.
func (t *TrainingSession) GenerateTurn(ctx context.Context, message string, history []Turn) TrainingReply {
	t.mu.RLock()
	h := t.handle
	t.mu.RUnlock()

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	turnCount := len(history)/2 + 1
	outgoing := fmt.Sprintf("[Turn %d] %s", turnCount, message)
	contents = append(contents, genai.NewContentFromText(outgoing, genai.RoleUser))

	resp, err := t.gen.GenerateContent(ctx, t.model, contents, h.config)
	if err != nil {
		log.Printf("❌ Training API error: %v", err)
		return failureReply
	}

	raw := strings.TrimSpace(resp.Text())
	var reply TrainingReply
	if err := sonic.Unmarshal([]byte(raw), &reply); err != nil {
		log.Printf("❌ Training JSON parse error: %v (raw: %.120s)", err, raw)
		return malformedReply
	}
	return reply
}
