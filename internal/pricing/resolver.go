package pricing

import "time"

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AppliesTo reports whether the rule is scoped to typeID or is global.
func (r *Rule) AppliesTo(typeID string) bool {
	return r.ScopeTypeID == nil || *r.ScopeTypeID == typeID
}

// Matches reports whether the rule is active and its date condition holds for date.
func (r *Rule) Matches(date time.Time) bool {
	if !r.IsActive {
		return false
	}
	day := DateOnly(date)

	switch r.Type {
	case RuleWeekend:
		switch day.Weekday() {
		case time.Friday:
			return r.AppliesFri
		case time.Saturday:
			return r.AppliesSat
		case time.Sunday:
			return r.AppliesSun
		}
		return false
	case RuleHoliday, RuleSeasonal:
		if r.StartDate != nil && day.Before(DateOnly(*r.StartDate)) {
			return false
		}
		if r.EndDate != nil && day.After(DateOnly(*r.EndDate)) {
			return false
		}
		return true
	}
	return false
}

// precedes orders matching rules: lower priority value, then scoped over global,
// then older rules, then id for a total order.
func precedes(a, b *Rule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	aScoped, bScoped := a.ScopeTypeID != nil, b.ScopeTypeID != nil
	if aScoped != bScoped {
		return aScoped
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Select returns the winning rule for typeID on date, or nil when none matches.
func Select(rules []*Rule, typeID string, date time.Time) *Rule {
	var best *Rule
	for _, r := range rules {
		if !r.AppliesTo(typeID) || !r.Matches(date) {
			continue
		}
		if best == nil || precedes(r, best) {
			best = r
		}
	}
	return best
}

// Resolve returns the price of typeID on date, falling back to base.
func Resolve(rules []*Rule, typeID string, date time.Time, base int64) Line {
	day := DateOnly(date)
	if r := Select(rules, typeID, day); r != nil {
		return Line{Date: day, Price: r.Price, RuleID: r.ID}
	}
	return Line{Date: day, Price: base}
}

// Nights prices every night from checkIn up to, but excluding, checkOut and sums them.
func Nights(rules []*Rule, typeID string, base int64, checkIn, checkOut time.Time) (*Breakdown, error) {
	start, end := DateOnly(checkIn), DateOnly(checkOut)
	if !end.After(start) {
		return nil, ErrEmptyInterval
	}

	b := &Breakdown{}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		line := Resolve(rules, typeID, day, base)
		b.Lines = append(b.Lines, line)
		b.Subtotal += line.Price
	}
	return b, nil
}

// Single prices a one-off service slot starting at the given instant.
func Single(rules []*Rule, typeID string, base int64, at time.Time) *Breakdown {
	line := Resolve(rules, typeID, at, base)
	return &Breakdown{Lines: []Line{line}, Subtotal: line.Price}
}
