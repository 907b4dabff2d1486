// Package dispatch orchestrates one conversational turn: refresh the
// sheet cache if stale, rebuild the persona context if it changed, run
// the generation, and look up which menu items the reply mentioned.
package dispatch

import (
	"context"
	"errors"
	"log"

	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
)

// ErrServiceUnavailable is returned when the persona failed to
// initialize at process start. There is no degraded generation path:
// partial availability surfaces as an explicit error, never as a
// silently wrong answer.
var ErrServiceUnavailable = errors.New("persona not initialized")

// Persona is the conversational session the dispatcher drives.
type Persona interface {
	UpdateContext(menuContext, staffContext string)
	Generate(ctx context.Context, message string, history []persona.Turn, hints persona.Hints) string
}

// TrainingPersona is the customer-simulation session variant.
type TrainingPersona interface {
	UpdateContext(menuContext string)
	GenerateTurn(ctx context.Context, message string, history []persona.Turn) persona.TrainingReply
}

// Dispatcher holds the process-lifetime singletons. No other state is
// shared across requests; conversation history travels with the caller.
type Dispatcher struct {
	cache    *menu.Cache
	persona  Persona
	training TrainingPersona
}

// New wires the dispatcher. Any argument may be nil when the matching
// component failed to initialize; the corresponding operations then
// report unavailability instead of attempting degraded answers.
func New(cache *menu.Cache, p Persona, t TrainingPersona) *Dispatcher {
	return &Dispatcher{cache: cache, persona: p, training: t}
}

// HandleTurn runs one customer chat turn and returns the sanitized reply
// plus the active menu items it mentioned.
func (d *Dispatcher) HandleTurn(ctx context.Context, message string, history []persona.Turn, hints persona.Hints) (string, []menu.MenuRow, error) {
	if d.persona == nil {
		return "", nil, ErrServiceUnavailable
	}

	d.syncContext(ctx)

	reply := d.persona.Generate(ctx, message, history, hints)

	var mentioned []menu.MenuRow
	if d.cache != nil {
		mentioned = d.cache.FindMentioned(reply)
	}
	return reply, mentioned, nil
}

// HandleTrainingTurn runs one staff-training exchange.
func (d *Dispatcher) HandleTrainingTurn(ctx context.Context, message string, history []persona.Turn) (persona.TrainingReply, error) {
	if d.training == nil {
		return persona.TrainingReply{}, ErrServiceUnavailable
	}

	d.syncContext(ctx)

	return d.training.GenerateTurn(ctx, message, history), nil
}

// syncContext refreshes the cache when stale and pushes freshly rendered
// grounding context into the sessions. Refresh failures are logged and
// the previous snapshot keeps serving; they never abort a request.
func (d *Dispatcher) syncContext(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.RefreshIfStale(ctx); err != nil {
		log.Printf("⚠️ Cache refresh failed, serving previous snapshot: %v", err)
	}

	snap := d.cache.Snapshot()
	menuContext := menu.RenderMenuContext(snap)
	staffContext := menu.RenderStaffContext(snap)

	if d.persona != nil {
		d.persona.UpdateContext(menuContext, staffContext)
	}
	if d.training != nil {
		d.training.UpdateContext(menuContext)
	}
}

// ActiveMenu refreshes if stale and returns the currently served items.
func (d *Dispatcher) ActiveMenu(ctx context.Context) ([]menu.MenuRow, error) {
	if d.cache == nil {
		return nil, ErrServiceUnavailable
	}
	if err := d.cache.RefreshIfStale(ctx); err != nil {
		log.Printf("⚠️ Cache refresh failed, serving previous snapshot: %v", err)
	}
	if d.cache.Snapshot() == nil {
		return nil, menu.ErrUpstreamUnavailable
	}
	return d.cache.ActiveItems(), nil
}

// SubmitRating validates and appends a customer rating.
func (d *Dispatcher) SubmitRating(ctx context.Context, rating, messageCount int, lang string) error {
	if d.cache == nil {
		return ErrServiceUnavailable
	}
	return d.cache.SaveRating(ctx, rating, messageCount, lang)
}
