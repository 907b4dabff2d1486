package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takamineyasuyuki/sumi-x-orator/dispatch"
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
)

type stubStore struct {
	menuRows  []menu.MenuRow
	staffRows []menu.StaffRow
	menuErr   error
	ratings   []menu.RatingRecord
}

func (s *stubStore) FetchMenu(ctx context.Context) ([]menu.MenuRow, error) {
	if s.menuErr != nil {
		return nil, s.menuErr
	}
	return s.menuRows, nil
}

func (s *stubStore) FetchStaff(ctx context.Context) ([]menu.StaffRow, error) {
	return s.staffRows, nil
}

func (s *stubStore) AppendRating(ctx context.Context, rec menu.RatingRecord) error {
	s.ratings = append(s.ratings, rec)
	return nil
}

type stubPersona struct {
	reply        string
	menuContext  string
	staffContext string
	updates      int
	lastMessage  string
	lastHints    persona.Hints
}

func (p *stubPersona) UpdateContext(menuContext, staffContext string) {
	p.menuContext = menuContext
	p.staffContext = staffContext
	p.updates++
}

func (p *stubPersona) Generate(ctx context.Context, message string, history []persona.Turn, hints persona.Hints) string {
	p.lastMessage = message
	p.lastHints = hints
	return p.reply
}

type stubTraining struct {
	reply       persona.TrainingReply
	menuContext string
}

func (t *stubTraining) UpdateContext(menuContext string) { t.menuContext = menuContext }

func (t *stubTraining) GenerateTurn(ctx context.Context, message string, history []persona.Turn) persona.TrainingReply {
	return t.reply
}

func TestHandleTurnUnavailableWithoutPersona(t *testing.T) {
	d := dispatch.New(nil, nil, nil)

	_, _, err := d.HandleTurn(context.Background(), "hi", nil, persona.Hints{})
	assert.ErrorIs(t, err, dispatch.ErrServiceUnavailable)

	_, err = d.HandleTrainingTurn(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, dispatch.ErrServiceUnavailable)
}

func TestHandleTurnSyncsContextAndFindsMentions(t *testing.T) {
	store := &stubStore{
		menuRows: []menu.MenuRow{
			{Name: "Karaage", Category: "レギュラー", Active: true},
			{Name: "Oden", Category: "レギュラー", Active: false},
		},
		staffRows: []menu.StaffRow{{Name: "しんたろう", OnShift: true}},
	}
	cache := menu.NewCache(store, 5*time.Minute, time.UTC)
	p := &stubPersona{reply: "今日は karaage がおすすめです！"}
	tr := &stubTraining{}
	d := dispatch.New(cache, p, tr)

	reply, mentioned, err := d.HandleTurn(context.Background(), "おすすめは？", nil, persona.Hints{Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, p.reply, reply)

	require.Len(t, mentioned, 1)
	assert.Equal(t, "Karaage", mentioned[0].Name)

	// Both sessions received the freshly rendered context.
	assert.Equal(t, 1, p.updates)
	assert.Contains(t, p.menuContext, "Karaage")
	assert.Contains(t, p.staffContext, "しんたろう")
	assert.Equal(t, p.menuContext, tr.menuContext)
	assert.Equal(t, "ja", p.lastHints.Language)
}

func TestHandleTurnServesWithoutCache(t *testing.T) {
	p := &stubPersona{reply: "hello"}
	d := dispatch.New(nil, p, nil)

	reply, mentioned, err := d.HandleTurn(context.Background(), "hi", nil, persona.Hints{})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Nil(t, mentioned)
}

func TestHandleTurnRefreshFailureUsesPlaceholders(t *testing.T) {
	store := &stubStore{menuErr: errors.New("sheet down")}
	cache := menu.NewCache(store, time.Minute, time.UTC)
	p := &stubPersona{reply: "すみません"}
	d := dispatch.New(cache, p, nil)

	_, _, err := d.HandleTurn(context.Background(), "hi", nil, persona.Hints{})
	require.NoError(t, err)
	assert.Equal(t, menu.MenuPlaceholder, p.menuContext)
	assert.Equal(t, menu.StaffPlaceholder, p.staffContext)
}

func TestHandleTrainingTurn(t *testing.T) {
	want := persona.TrainingReply{CustomerReply: "Hi!", FeedbackToStaff: "Good greeting."}
	d := dispatch.New(nil, nil, &stubTraining{reply: want})

	got, err := d.HandleTrainingTurn(context.Background(), "Welcome in!", nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestActiveMenu(t *testing.T) {
	d := dispatch.New(nil, nil, nil)
	_, err := d.ActiveMenu(context.Background())
	assert.ErrorIs(t, err, dispatch.ErrServiceUnavailable)

	store := &stubStore{menuErr: errors.New("sheet down")}
	cache := menu.NewCache(store, time.Minute, time.UTC)
	d = dispatch.New(cache, nil, nil)
	_, err = d.ActiveMenu(context.Background())
	assert.ErrorIs(t, err, menu.ErrUpstreamUnavailable)

	store.menuErr = nil
	store.menuRows = []menu.MenuRow{{Name: "Karaage", Active: true}}
	items, err := d.ActiveMenu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Karaage", items[0].Name)
}

func TestSubmitRating(t *testing.T) {
	d := dispatch.New(nil, nil, nil)
	assert.ErrorIs(t, d.SubmitRating(context.Background(), 4, 3, "en"), dispatch.ErrServiceUnavailable)

	store := &stubStore{}
	cache := menu.NewCache(store, time.Minute, time.UTC)
	d = dispatch.New(cache, nil, nil)

	assert.ErrorIs(t, d.SubmitRating(context.Background(), 9, 3, "en"), menu.ErrInvalidRating)
	require.NoError(t, d.SubmitRating(context.Background(), 4, 3, "en"))
	require.Len(t, store.ratings, 1)
	assert.Equal(t, 4, store.ratings[0].Rating)
}
