package board

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTarget = errors.New("unknown move target")
	ErrCardNotFound  = errors.New("card not on board")
	ErrUnknownStack  = errors.New("unknown stack")
	ErrDealNotFound  = errors.New("deal not found")
)

// DuplicateCardError is returned when a snapshot places one card in two
// stacks.
type DuplicateCardError struct {
	CardID string
	Stacks [2]string
}

func (e *DuplicateCardError) Error() string {
	return fmt.Sprintf("card %s is in both %s and %s", e.CardID, e.Stacks[0], e.Stacks[1])
}
