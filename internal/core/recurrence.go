package core

// NextOccurrence advances a series date by one period. Monthly and yearly
// steps clamp to the month length, so a series anchored on the 31st lands on
// the last day of shorter months.
func NextOccurrence(d Date, f Frequency) Date {
	switch f {
	case Weekly:
		return DateOf(d.AddDate(0, 0, 7))
	case Monthly:
		return AddMonthsClamped(d, 1)
	case Yearly:
		return AddMonthsClamped(d, 12)
	}
	return Date{}
}

// DueOccurrence reports whether the recurring series headed by head has an
// occurrence falling exactly on ref. The walk starts at the head's own date
// and stops past ref or past the series end date.
func DueOccurrence(head Transaction, ref Date) (Date, bool) {
	if head.Recurrence == nil || !head.Recurrence.Frequency.Valid() {
		return Date{}, false
	}
	end := head.Recurrence.EndDate

	d := head.Date
	for !d.After(ref.Time) {
		if !end.IsZero() && d.After(end.Time) {
			return Date{}, false
		}
		if d.Equal(ref.Time) {
			return d, true
		}
		d = NextOccurrence(d, head.Recurrence.Frequency)
	}
	return Date{}, false
}
