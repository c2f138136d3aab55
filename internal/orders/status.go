package orders

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// APPROVED is absorbing. Re-rejecting a rejected order is a real re-write
// and therefore a listed edge; re-approving an approved order is not — the
// approve path short-circuits before any write so the stock decrement can
// never run twice.
var validNext = map[Status]map[Status]bool{
	StatusPending:  {StatusApproved: true, StatusRejected: true},
	StatusApproved: {},
	StatusRejected: {StatusRejected: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
