package sales

import "time"

// DefaultTimeLayout renders like an en-US locale date-time string.
const DefaultTimeLayout = "1/2/2006, 3:04:05 PM"

// Formatter renders timestamps the way the console displays them.
// Two instants that render to the same string are indistinguishable to
// timestamp-keyed grouping.
type Formatter struct {
	Location *time.Location
	Layout   string
}

// NewFormatter returns a Formatter, defaulting to local time and DefaultTimeLayout.
func NewFormatter(loc *time.Location, layout string) Formatter {
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return Formatter{Location: loc, Layout: layout}
}

func (f Formatter) Format(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return t.In(f.location()).Format(layout)
}

// FormatDate renders only the calendar day, as expiration dates are shown.
func (f Formatter) FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(f.location()).Format("1/2/2006")
}

func (f Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}
