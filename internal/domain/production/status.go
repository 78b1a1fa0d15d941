package production

// Status is the production order lifecycle state
type Status string

const (
	StatusDraft      Status = "draft"
	StatusReleased   Status = "released"
	StatusInProgress Status = "in_progress"
	StatusQC         Status = "qc"
	StatusComplete   Status = "complete"
	StatusShipped    Status = "shipped"
	StatusCancelled  Status = "cancelled"
	StatusSplit      Status = "split"
)

// AllStatuses returns every valid production order status
func AllStatuses() []Status {
	return []Status{
		StatusDraft, StatusReleased, StatusInProgress, StatusQC,
		StatusComplete, StatusShipped, StatusCancelled, StatusSplit,
	}
}

// IsValid checks if the status is one of the closed set
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusReleased, StatusInProgress, StatusQC,
		StatusComplete, StatusShipped, StatusCancelled, StatusSplit:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
// Split is terminal for operational purposes: the children carry on.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusShipped, StatusCancelled, StatusSplit:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the order still represents incoming supply
func (s Status) IsOpen() bool {
	switch s {
	case StatusReleased, StatusInProgress, StatusQC:
		return true
	default:
		return false
	}
}
