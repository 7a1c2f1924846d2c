package domain

type DealStatus string

const (
	DealOpen     DealStatus = "open"
	DealWon      DealStatus = "won"
	DealLost     DealStatus = "lost"
	DealArchived DealStatus = "archived"
)

// ValidDealStatuses is the canonical set of accepted deal status strings.
var ValidDealStatuses = map[DealStatus]bool{
	DealOpen: true, DealWon: true, DealLost: true, DealArchived: true,
}

// RestTargets are the board drop zones that change a deal's status instead
// of its stage.
var RestTargets = []DealStatus{DealWon, DealLost, DealArchived}

// IsRestTarget reports whether id names a won/lost/archived drop zone.
func IsRestTarget(id string) bool {
	for _, t := range RestTargets {
		if string(t) == id {
			return true
		}
	}
	return false
}

// Closed reports whether the status ends the sales cycle.
func (s DealStatus) Closed() bool {
	return s == DealWon || s == DealLost
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)
