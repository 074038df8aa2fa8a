package model

// QuotaDecision is the outcome of applying the daily counting rules to one snapshot.
// When Write is set the caller persists (CountAfter, Day) for the user.
type QuotaDecision struct {
	Allowed    bool
	CountAfter int
	Write      bool
	Day        string
}

// DecideConsume applies the consume rules for a regular account:
// a new day restarts the count at 1, below the cap increments, otherwise deny without a write.
func DecideConsume(u *User, today string, dailyCap int) QuotaDecision {
	if u.LastCountDate != today {
		return QuotaDecision{Allowed: true, CountAfter: 1, Write: true, Day: today}
	}
	if u.MessageCountToday < dailyCap {
		return QuotaDecision{Allowed: true, CountAfter: u.MessageCountToday + 1, Write: true, Day: today}
	}
	return QuotaDecision{Allowed: false, CountAfter: dailyCap}
}

// DecideRecord counts the unit but never denies. Used for premium accounts in record mode.
func DecideRecord(u *User, today string) QuotaDecision {
	return QuotaDecision{Allowed: true, CountAfter: u.CountOn(today) + 1, Write: true, Day: today}
}

// CanConsume is the read-only form of DecideConsume.
func CanConsume(u *User, today string, dailyCap int) bool {
	return u.LastCountDate != today || u.MessageCountToday < dailyCap
}

// QuotaResult is what the ledger reports back for a consume.
type QuotaResult struct {
	Allowed    bool
	CountAfter int
	Premium    bool
	Cap        int
}

// Remaining is the number of units left today, floored at zero.
func (r QuotaResult) Remaining() int {
	if r.Cap-r.CountAfter < 0 {
		return 0
	}
	return r.Cap - r.CountAfter
}

// QuotaState is the persisted counting pair a compare-and-swap write is conditioned on.
type QuotaState struct {
	Count int
	Day   string
}

func (u *User) QuotaState() QuotaState {
	return QuotaState{Count: u.MessageCountToday, Day: u.LastCountDate}
}
