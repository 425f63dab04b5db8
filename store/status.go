package store

type Status int

const (
	Initial Status = iota
	Loading
	HasValue
	HasError
)

func (s Status) String() string {
	switch s {
	case Initial:
		return "initial"
	case Loading:
		return "loading"
	case HasValue:
		return "has-value"
	case HasError:
		return "has-error"
	default:
		return "unknown"
	}
}

// precedence when several statuses are folded into one
func (s Status) rank() int {
	switch s {
	case HasError:
		return 3
	case Loading:
		return 2
	case Initial:
		return 1
	default:
		return 0
	}
}

// CombineStatus folds the statuses of several stores into the status of
// something derived from all of them: any error wins, then any load in
// flight, then anything not yet loaded. No statuses at all is HasValue.
func CombineStatus(statuses ...Status) Status {
	combined := HasValue
	for _, s := range statuses {
		if s.rank() > combined.rank() {
			combined = s
		}
	}
	return combined
}
