package prompt

import (
	"fmt"
	"strings"
	"testing"

	"coinvert/internals/core/domain"
	"coinvert/internals/selection"

	"github.com/stretchr/testify/assert"
)

// --- Mock Searcher ---

type MockSearcher struct {
	SearchResp   domain.SearchResult
	PopularResp  domain.SearchResult
	LastQuery    string
	SearchCalls  int
	PopularCalls int
}

func (m *MockSearcher) Search(query string) domain.SearchResult {
	m.LastQuery = query
	m.SearchCalls++
	return m.SearchResp
}

func (m *MockSearcher) Popular() domain.SearchResult {
	m.PopularCalls++
	return m.PopularResp
}

func popularFixture() domain.SearchResult {
	return domain.SearchResult{
		Fiat: []domain.CurrencyEntry{
			{Code: "USD", Name: "US Dollar", Kind: domain.Fiat},
			{Code: "EUR", Name: "Euro", Kind: domain.Fiat},
		},
		Crypto: []domain.CurrencyEntry{
			{Code: "BTC", Name: "Bitcoin", Kind: domain.Crypto, CoinID: "bitcoin"},
		},
	}
}

func typeText(s *session, text string) {
	for _, r := range text {
		s.handle(KeyEvent{Key: KeyRune, Rune: r})
	}
}

// --- Session state machine ---

func TestSession_OpensWithPopularPicks(t *testing.T) {
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, nil, "From")

	assert.Equal(t, 1, mock.PopularCalls)
	assert.Len(t, s.rows, 3)
	assert.False(t, s.cursor.Active())
}

func TestSession_TypingRunsSearch(t *testing.T) {
	mock := &MockSearcher{
		PopularResp: popularFixture(),
		SearchResp: domain.SearchResult{
			Fiat: []domain.CurrencyEntry{{Code: "EUR", Name: "Euro", Kind: domain.Fiat}},
		},
	}
	s := newSession(mock, nil, "From")
	typeText(s, "eu")

	assert.Equal(t, "eu", mock.LastQuery)
	assert.Len(t, s.rows, 1)
	assert.Equal(t, "EUR", s.rows[0].Code)
}

func TestSession_EditDropsConfirmedSelection(t *testing.T) {
	var tr selection.Tracker
	tr.Select(domain.CurrencyEntry{Code: "USD", Name: "US Dollar", Kind: domain.Fiat})

	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, &tr, "From")
	assert.True(t, tr.Confirmed())

	typeText(s, "e")
	assert.False(t, tr.Confirmed())
	assert.Equal(t, "e", tr.Text())
}

func TestSession_EnterSelectsHighlighted(t *testing.T) {
	var tr selection.Tracker
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, &tr, "From")

	s.handle(KeyEvent{Key: KeyDown})
	s.handle(KeyEvent{Key: KeyDown})
	s.handle(KeyEvent{Key: KeyEnter})

	assert.True(t, s.done)
	assert.True(t, s.accepted)
	assert.Equal(t, "EUR", s.choice.Code)
	assert.True(t, tr.Confirmed())
	assert.Equal(t, "EUR - Euro", tr.Text())
}

func TestSession_EnterWithoutHighlightIsIgnored(t *testing.T) {
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, nil, "From")

	s.handle(KeyEvent{Key: KeyEnter})

	assert.False(t, s.done)
	assert.False(t, s.accepted)
}

func TestSession_EscapeKeepsPriorConfirmation(t *testing.T) {
	var tr selection.Tracker
	tr.Select(domain.CurrencyEntry{Code: "USD", Name: "US Dollar", Kind: domain.Fiat})

	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, &tr, "From")
	s.handle(KeyEvent{Key: KeyEsc})

	assert.True(t, s.done)
	assert.False(t, s.accepted)
	assert.True(t, tr.Confirmed())
}

func TestSession_BackspaceRefiltersQuery(t *testing.T) {
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, nil, "From")

	typeText(s, "eu")
	s.handle(KeyEvent{Key: KeyBackspace})

	assert.Equal(t, "e", string(s.query))
	assert.Equal(t, "e", mock.LastQuery)
}

func TestSession_BackspaceOnEmptyQueryIsNoop(t *testing.T) {
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, nil, "From")

	s.handle(KeyEvent{Key: KeyBackspace})

	assert.Equal(t, 1, mock.PopularCalls)
	assert.Empty(t, s.query)
}

func TestSession_CtrlCAborts(t *testing.T) {
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, nil, "From")

	s.handle(KeyEvent{Key: KeyCtrlC})

	assert.True(t, s.done)
	assert.True(t, s.aborted)
	assert.False(t, s.accepted)
}

// --- Rendering ---

func TestView_GroupsAndHighlight(t *testing.T) {
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, nil, "From")
	s.handle(KeyEvent{Key: KeyDown})

	frame := strings.Join(s.view(), "\n")
	assert.Contains(t, frame, "Fiat")
	assert.Contains(t, frame, "Crypto")
	assert.Contains(t, frame, "> USD - US Dollar")
	assert.Contains(t, frame, "    EUR - Euro")
	assert.Contains(t, frame, "    BTC - Bitcoin")
}

func TestView_NoResultsMarker(t *testing.T) {
	mock := &MockSearcher{
		PopularResp: popularFixture(),
		SearchResp:  domain.SearchResult{NoMatches: true},
	}
	s := newSession(mock, nil, "From")
	typeText(s, "qq")

	frame := strings.Join(s.view(), "\n")
	assert.Contains(t, frame, "no results")
}

func TestView_WindowFollowsCursor(t *testing.T) {
	var entries []domain.CurrencyEntry
	for i := 0; i < 15; i++ {
		entries = append(entries, domain.CurrencyEntry{
			Code: fmt.Sprintf("F%02d", i),
			Name: fmt.Sprintf("Fiat %02d", i),
			Kind: domain.Fiat,
		})
	}
	mock := &MockSearcher{PopularResp: domain.SearchResult{Fiat: entries}}
	s := newSession(mock, nil, "From")

	frame := strings.Join(s.view(), "\n")
	assert.Contains(t, frame, "F00")
	assert.NotContains(t, frame, "F12")

	for i := 0; i < 13; i++ {
		s.handle(KeyEvent{Key: KeyDown})
	}
	frame = strings.Join(s.view(), "\n")
	assert.Contains(t, frame, "> F12 - Fiat 12")
	assert.NotContains(t, frame, "F00")
}

func TestSession_FinalLineShowsChoice(t *testing.T) {
	var tr selection.Tracker
	mock := &MockSearcher{PopularResp: popularFixture()}
	s := newSession(mock, &tr, "From")

	s.handle(KeyEvent{Key: KeyDown})
	s.handle(KeyEvent{Key: KeyEnter})

	assert.Contains(t, s.finalLine(), "USD - US Dollar")
}
