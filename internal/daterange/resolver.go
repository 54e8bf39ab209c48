package daterange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// Kind identifies which grammar rule produced a Range.
type Kind string

// Range kinds.
const (
	KindBetweenExplicit Kind = "between_explicit"
	KindFromToExplicit  Kind = "from_to_explicit"
	KindToday           Kind = "today"
	KindYesterday       Kind = "yesterday"
	KindLastNDays       Kind = "last_n_days"
	KindLastNWeeks      Kind = "last_n_weeks"
	KindLastNMonths     Kind = "last_n_months"
	KindLastNYears      Kind = "last_n_years"
	KindLastDay         Kind = "last_day"
	KindLastWeek        Kind = "last_week"
	KindLastMonth       Kind = "last_month"
	KindLastYear        Kind = "last_year"
	KindThisWeek        Kind = "this_week"
	KindThisMonth       Kind = "this_month"
	KindThisYear        Kind = "this_year"
)

// ErrInvalidDateRange is matched by every *InvalidDateRangeError.
var ErrInvalidDateRange = errors.New("invalid date range")

// InvalidDateRangeError reports a range that has the right shape but does
// not describe a usable calendar range: impossible or reversed explicit
// dates, or a "last N" count reaching before year 1.
type InvalidDateRangeError struct {
	Err   error
	Text  string
	Start string
	End   string
}

func (e *InvalidDateRangeError) Error() string {
	if e.Start == "" && e.End == "" {
		return fmt.Sprintf("invalid date range %q: %v", e.Text, e.Err)
	}
	return fmt.Sprintf("invalid date range %s to %s: %v", e.Start, e.End, e.Err)
}

func (e *InvalidDateRangeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidDateRange.
func (e *InvalidDateRangeError) Is(target error) bool {
	return target == ErrInvalidDateRange
}

// Range is an inclusive calendar range. Start is never after End.
type Range struct {
	Start   model.Date     `json:"start_date"`
	End     model.Date     `json:"end_date"`
	Params  map[string]int `json:"params,omitempty"`
	Kind    Kind           `json:"kind"`
	RawText string         `json:"original_text"`
}

// Days returns the number of calendar days covered by r, inclusive.
func (r Range) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Rule is one entry of the resolver grammar. Match returns ok=false when the
// rule does not apply to the (already lower-cased) text.
type Rule struct {
	Match func(text string, ref time.Time) (Range, bool, error)
	Name  string
}

// Resolver evaluates an ordered grammar; the first matching rule wins.
type Resolver struct {
	rules []Rule
}

// NewResolver creates a resolver over rules, evaluated in slice order.
func NewResolver(rules []Rule) *Resolver {
	return &Resolver{rules: rules}
}

var defaultResolver = NewResolver(DefaultRules())

// Resolve resolves text against reference using the default grammar.
func Resolve(text string, reference time.Time) (Range, bool, error) {
	return defaultResolver.Resolve(text, reference)
}

// Resolve returns the range described by text relative to reference. It
// returns ok=false with a nil error when nothing in the text is recognised,
// and an *InvalidDateRangeError when an explicit range names impossible dates.
// Only the calendar day of reference is used.
func (r *Resolver) Resolve(text string, reference time.Time) (Range, bool, error) {
	lowered := strings.ToLower(text)
	ref := Day(reference)

	for _, rule := range r.rules {
		rng, ok, err := rule.Match(lowered, ref)
		if err != nil {
			return Range{}, false, err
		}
		if ok {
			rng.RawText = lowered
			return rng, true, nil
		}
	}
	return Range{}, false, nil
}

// RuleNames lists the grammar in evaluation order.
func (r *Resolver) RuleNames() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name)
	}
	return names
}

var (
	betweenRegex = regexp.MustCompile(`between\s+(\d{4}-\d{2}-\d{2})\s+and\s+(\d{4}-\d{2}-\d{2})`)
	fromToRegex  = regexp.MustCompile(`from\s+(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})`)
	lastNRegex   = regexp.MustCompile(`last\s+(\d+)\s+(days|day|weeks|week|months|month|years|year)`)
)

// DefaultRules returns the resolver grammar, highest priority first.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "between_explicit", Match: explicitRule(betweenRegex, KindBetweenExplicit)},
		{Name: "from_to_explicit", Match: explicitRule(fromToRegex, KindFromToExplicit)},
		{Name: "today", Match: containsRule("today", KindToday, func(ref time.Time) (time.Time, time.Time) {
			return ref, ref
		})},
		{Name: "yesterday", Match: containsRule("yesterday", KindYesterday, func(ref time.Time) (time.Time, time.Time) {
			y := ref.AddDate(0, 0, -1)
			return y, y
		})},
		{Name: "last_n", Match: lastNRule},
		{Name: "last_day", Match: containsRule("last day", KindLastDay, func(ref time.Time) (time.Time, time.Time) {
			return ref.AddDate(0, 0, -1), ref
		})},
		{Name: "last_week", Match: containsRule("last week", KindLastWeek, func(ref time.Time) (time.Time, time.Time) {
			end := StartOfISOWeek(ref).AddDate(0, 0, -1)
			return end.AddDate(0, 0, -6), end
		})},
		{Name: "last_month", Match: containsRule("last month", KindLastMonth, func(ref time.Time) (time.Time, time.Time) {
			prev := StartOfMonth(ref).AddDate(0, -1, 0)
			return prev, EndOfMonth(prev)
		})},
		{Name: "last_year", Match: containsRule("last year", KindLastYear, func(ref time.Time) (time.Time, time.Time) {
			year := ref.Year() - 1
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
				time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		})},
		{Name: "this_week", Match: containsRule("this week", KindThisWeek, func(ref time.Time) (time.Time, time.Time) {
			return StartOfISOWeek(ref), ref
		})},
		{Name: "this_month", Match: containsRule("this month", KindThisMonth, func(ref time.Time) (time.Time, time.Time) {
			return StartOfMonth(ref), ref
		})},
		{Name: "this_year", Match: containsRule("this year", KindThisYear, func(ref time.Time) (time.Time, time.Time) {
			return time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), ref
		})},
	}
}

func containsRule(phrase string, kind Kind, span func(ref time.Time) (time.Time, time.Time)) func(string, time.Time) (Range, bool, error) {
	return func(text string, ref time.Time) (Range, bool, error) {
		if !strings.Contains(text, phrase) {
			return Range{}, false, nil
		}
		start, end := span(ref)
		return newRange(text, kind, start, end, nil)
	}
}

func explicitRule(re *regexp.Regexp, kind Kind) func(string, time.Time) (Range, bool, error) {
	return func(text string, _ time.Time) (Range, bool, error) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return Range{}, false, nil
		}

		invalid := func(err error) error {
			return &InvalidDateRangeError{Text: text, Start: m[1], End: m[2], Err: err}
		}

		start, err := model.ParseDate(m[1])
		if err != nil {
			return Range{}, false, invalid(err)
		}
		end, err := model.ParseDate(m[2])
		if err != nil {
			return Range{}, false, invalid(err)
		}
		if start.After(end.Time) {
			return Range{}, false, invalid(errors.New("start date is after end date"))
		}

		return Range{Start: start, End: end, Kind: kind}, true, nil
	}
}

func lastNRule(text string, ref time.Time) (Range, bool, error) {
	m := lastNRegex.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}

	tooFar := &InvalidDateRangeError{Text: text, Err: errors.New("count reaches before year 1")}

	n, err := strconv.Atoi(m[1])
	switch {
	case errors.Is(err, strconv.ErrRange):
		return Range{}, false, tooFar
	case err != nil || n < 1:
		return Range{}, false, nil //nolint:nilerr // zero counts fall through to later rules
	}
	params := map[string]int{"n": n}

	// Bound n first so the shifts below cannot overflow.
	days := daysSinceEpochStart(ref)
	switch unit := m[2]; {
	case strings.HasPrefix(unit, "day"):
		if n > days {
			return Range{}, false, tooFar
		}
		return newRange(text, KindLastNDays, ref.AddDate(0, 0, -n), ref, params)
	case strings.HasPrefix(unit, "week"):
		if n > days/7 {
			return Range{}, false, tooFar
		}
		return newRange(text, KindLastNWeeks, ref.AddDate(0, 0, -7*n), ref, params)
	case strings.HasPrefix(unit, "month"):
		if n > (ref.Year()-1)*12+int(ref.Month())-1 {
			return Range{}, false, tooFar
		}
		return newRange(text, KindLastNMonths, ShiftMonths(ref, n), ref, params)
	default:
		if n > ref.Year()-1 {
			return Range{}, false, tooFar
		}
		return newRange(text, KindLastNYears, ShiftYears(ref, n), ref, params)
	}
}

// daysSinceEpochStart counts the days from 0001-01-01 to ref.
func daysSinceEpochStart(ref time.Time) int {
	first := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int((Day(ref).Unix() - first.Unix()) / 86400)
}

func newRange(text string, kind Kind, start, end time.Time, params map[string]int) (Range, bool, error) {
	if start.After(end) {
		return Range{}, false, &InvalidDateRangeError{
			Text:  text,
			Start: start.Format(model.DateLayout),
			End:   end.Format(model.DateLayout),
			Err:   errors.New("start date is after end date"),
		}
	}
	return Range{
		Start:  model.NewDate(start),
		End:    model.NewDate(end),
		Kind:   kind,
		Params: params,
	}, true, nil
}
