package board

import (
	"fmt"

	"github.com/alexanderramin/dealboard/internal/domain"
)

// Move records a card leaving one stack for another stack or a rest target.
type Move struct {
	CardID    string `json:"cardId"`
	FromStack string `json:"fromStack"`
	ToStack   string `json:"toStack"`
}

func (m Move) String() string {
	return fmt.Sprintf("%s: %s -> %s", m.CardID, m.FromStack, m.ToStack)
}

// DetectMoves diffs two snapshots and returns one move per card whose stack
// changed. A card's prior stack is the first before-stack holding it; cards
// missing from every before-stack are new and yield nothing. Moves come out
// in after-stack order, then card order.
func DetectMoves(before, after []Stack) []Move {
	prior := make(map[string]string)
	for _, s := range before {
		for _, c := range s.Cards {
			if _, ok := prior[c.ID]; !ok {
				prior[c.ID] = s.ID
			}
		}
	}

	var moves []Move
	for _, s := range after {
		for _, c := range s.Cards {
			from, ok := prior[c.ID]
			if !ok || from == s.ID {
				continue
			}
			moves = append(moves, Move{CardID: c.ID, FromStack: from, ToStack: s.ID})
		}
	}
	return moves
}

// DropOnRestTarget takes a card off the board onto won, lost or archived. The
// returned working copy no longer holds the card; stacks is left untouched.
func DropOnRestTarget(stacks []Stack, cardID, target string) ([]Stack, Move, error) {
	if !domain.IsRestTarget(target) {
		return nil, Move{}, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	si, ci, ok := locate(stacks, cardID)
	if !ok {
		return nil, Move{}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}

	out := CloneStacks(stacks)
	cards := out[si].Cards
	out[si].Cards = append(cards[:ci:ci], cards[ci+1:]...)
	return out, Move{CardID: cardID, FromStack: stacks[si].ID, ToStack: target}, nil
}

// MoveCard drags a card to position index of stack toStack. The index is
// clamped to the target's bounds. stacks is left untouched.
func MoveCard(stacks []Stack, cardID, toStack string, index int) ([]Stack, error) {
	si, ci, ok := locate(stacks, cardID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	ti := stackIndex(stacks, toStack)
	if ti < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStack, toStack)
	}

	out := CloneStacks(stacks)
	card := out[si].Cards[ci]
	out[si].Cards = append(out[si].Cards[:ci:ci], out[si].Cards[ci+1:]...)

	dst := out[ti].Cards
	if index < 0 {
		index = 0
	}
	if index > len(dst) {
		index = len(dst)
	}
	dst = append(dst, Card{})
	copy(dst[index+1:], dst[index:])
	dst[index] = card
	out[ti].Cards = dst
	return out, nil
}
