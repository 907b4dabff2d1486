package persona

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// ErrConfigurationMissing is returned when the Gemini credential is absent
// at startup. The caller disables the persona and starts degraded.
var ErrConfigurationMissing = errors.New("GEMINI_API_KEY is not set")

// maxHistoryTurns bounds the conversation history forwarded per turn.
// History is client-held; the server keeps no session store.
const maxHistoryTurns = 20

// Turn is one conversational exchange entry supplied by the caller.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Hints carry non-visible context prepended to the outgoing message.
// Language and Energy are produced by the caller; the time hint is added
// here. None of them may leak into the customer-visible reply.
type Hints struct {
	Language string
	Energy   string
}

// Options configures a persona session.
type Options struct {
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	RestaurantName  string
	RestaurantInfo  string
	Location        *time.Location
}

// handle is one fully-formed binding of instruction text to generation
// config. It is replaced wholesale on context change, never patched, so
// an in-flight turn always runs against the handle it captured.
type handle struct {
	instruction string
	config      *genai.GenerateContentConfig
}

// Session owns the Gemini handle bound to the server persona's system
// instruction and rebuilds it only when the grounding context changes.
type Session struct {
	gen   Generator
	model string
	opts  Options
	loc   *time.Location
	now   func() time.Time

	mu           sync.RWMutex
	menuContext  string
	staffContext string
	handle       *handle
	rebuilds     int
}

// New connects to Gemini and binds the persona with empty grounding
// context; the dispatcher injects real context before the first turn.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.APIKey == "" {
		return nil, ErrConfigurationMissing
	}
	gen, err := newGeminiGenerator(ctx, opts.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return newSession(gen, opts), nil
}

func newSession(gen Generator, opts Options) *Session {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Session{
		gen:   gen,
		model: opts.Model,
		opts:  opts,
		loc:   loc,
		now:   time.Now,
	}
	s.handle = s.buildHandle("", "")
	return s
}

func (s *Session) buildHandle(menuContext, staffContext string) *handle {
	instruction := renderSystemInstruction(
		s.opts.RestaurantName, s.opts.RestaurantInfo, menuContext, staffContext)

	return &handle{
		instruction: instruction,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
			Temperature:       genai.Ptr(float32(s.opts.Temperature)),
			MaxOutputTokens:   int32(s.opts.MaxOutputTokens),
		},
	}
}

// UpdateContext rebuilds the bound handle when the rendered grounding
// context differs from the current one. Identical text is a cheap no-op;
// rebuilding is the only way context changes take effect.
func (s *Session) UpdateContext(menuContext, staffContext string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if menuContext == s.menuContext && staffContext == s.staffContext {
		return
	}

	s.menuContext = menuContext
	s.staffContext = staffContext
	s.handle = s.buildHandle(menuContext, staffContext)
	s.rebuilds++
	log.Printf("Gemini persona rebuilt with %d chars of menu context", len(menuContext))
}

// RebuildCount reports how many times the handle has been replaced.
func (s *Session) RebuildCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rebuilds
}

// Generate runs one conversational turn. History is trimmed to the most
// recent turns, caller roles are mapped to Gemini's vocabulary, and a
// non-visible time/language/energy hint is prepended to the outgoing
// message. Any service failure yields the fixed apology, never an error.
func (s *Session) Generate(ctx context.Context, message string, history []Turn, hints Hints) string {
	s.mu.RLock()
	h := s.handle
	s.mu.RUnlock()

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
	contents = append(contents, genai.NewContentFromText(s.hintPrefix(hints)+message, genai.RoleUser))

	resp, err := s.gen.GenerateContent(ctx, s.model, contents, h.config)
	if err != nil {
		log.Printf("❌ Gemini API error: %v", err)
		return Apology
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		log.Printf("❌ Gemini returned an empty reply")
		return Apology
	}
	return sanitize(reply)
}

func (s *Session) hintPrefix(hints Hints) string {
	now := s.now().In(s.loc)
	parts := []string{fmt.Sprintf("[現在時刻: %s %s]", now.Format("Monday"), now.Format("15:04"))}
	if hints.Language != "" {
		parts = append(parts, "[お客様の言語: "+hints.Language+"]")
	}
	if hints.Energy != "" {
		parts = append(parts, "[店内の活気: "+hints.Energy+"]")
	}
	return strings.Join(parts, " ") + " "
}

var (
	bracketPattern = regexp.MustCompile(`\[[^\[\]]*\]`)
	spacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// sanitize strips bracketed hint markers the model may have echoed back.
func sanitize(reply string) string {
	cleaned := bracketPattern.ReplaceAllString(reply, "")
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
