package board

import (
	"github.com/alexanderramin/dealboard/internal/domain"
)

// Card is the board view of one deal. ID is the deal id and stays the same
// when the card moves.
type Card struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	ClientName     string          `json:"clientName,omitempty"`
	PotentialValue int64           `json:"potentialValue"`
	Currency       domain.Currency `json:"currency,omitempty"`
}

// Stack is one board column: a pipeline stage and its ordered cards.
type Stack struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// IndexOf returns the position of cardID in the stack, or -1.
func (s Stack) IndexOf(cardID string) int {
	for i, c := range s.Cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// CardFromDeal builds the card shown for d.
func CardFromDeal(d *domain.Deal) Card {
	return Card{
		ID:             d.ID,
		Title:          d.Title,
		ClientName:     d.DisplayClient(),
		PotentialValue: d.PotentialValue,
		Currency:       d.Currency,
	}
}

// BuildStacks lays deals out over the pipeline stages in position order.
// Only open deals are placed; deals on a stage the pipeline does not have
// are skipped. Cards keep the order of the deals slice.
func BuildStacks(stages []domain.Stage, deals []*domain.Deal) []Stack {
	p := domain.Pipeline{Stages: stages}
	sorted := p.SortedStages()

	stacks := make([]Stack, len(sorted))
	index := make(map[string]int, len(sorted))
	for i, s := range sorted {
		stacks[i] = Stack{ID: s.ID, Title: s.Title, Cards: []Card{}}
		index[s.ID] = i
	}

	seen := make(map[string]bool, len(deals))
	for _, d := range deals {
		if d == nil || d.Status != domain.DealOpen || seen[d.ID] {
			continue
		}
		i, ok := index[d.StageID]
		if !ok {
			continue
		}
		seen[d.ID] = true
		stacks[i].Cards = append(stacks[i].Cards, CardFromDeal(d))
	}
	return stacks
}

// CloneStacks deep-copies a working copy.
func CloneStacks(stacks []Stack) []Stack {
	if stacks == nil {
		return nil
	}
	out := make([]Stack, len(stacks))
	for i, s := range stacks {
		out[i] = Stack{ID: s.ID, Title: s.Title, Cards: append([]Card{}, s.Cards...)}
	}
	return out
}

// locate finds the stack and card index holding cardID.
func locate(stacks []Stack, cardID string) (stackIdx, cardIdx int, ok bool) {
	for i, s := range stacks {
		if j := s.IndexOf(cardID); j >= 0 {
			return i, j, true
		}
	}
	return -1, -1, false
}

func stackIndex(stacks []Stack, stackID string) int {
	for i, s := range stacks {
		if s.ID == stackID {
			return i
		}
	}
	return -1
}

// checkUnique reports the first card id found in more than one place.
func checkUnique(stacks []Stack) error {
	seen := make(map[string]string)
	for _, s := range stacks {
		for _, c := range s.Cards {
			if prev, dup := seen[c.ID]; dup {
				return &DuplicateCardError{CardID: c.ID, Stacks: [2]string{prev, s.ID}}
			}
			seen[c.ID] = s.ID
		}
	}
	return nil
}
