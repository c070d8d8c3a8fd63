package internal

type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusAverage   Status = "average"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"

	// legacy three-level scale
	StatusSunny  Status = "sunny"
	StatusCloudy Status = "cloudy"
	StatusRainy  Status = "rainy"
)

// StatusInfo is the single source for everything derived from a status.
// Legacy statuses have no label: they are never exported under a label and
// no label imports back to them.
type StatusInfo struct {
	Label  string
	Rating int
	Emoji  string
	Legacy bool
}

const (
	defaultRating = 3
	defaultEmoji  = ":memo:"
)

var statusTable = map[Status]StatusInfo{
	StatusExcellent: {Label: "最高", Rating: 5, Emoji: ":star-struck:"},
	StatusGood:      {Label: "良い", Rating: 4, Emoji: ":smile:"},
	StatusAverage:   {Label: "普通", Rating: 3, Emoji: ":neutral_face:"},
	StatusFair:      {Label: "悪い", Rating: 2, Emoji: ":slightly_frowning_face:"},
	StatusPoor:      {Label: "最悪", Rating: 1, Emoji: ":face_with_thermometer:"},
	StatusSunny:     {Rating: 4, Emoji: defaultEmoji, Legacy: true},
	StatusCloudy:    {Rating: 3, Emoji: defaultEmoji, Legacy: true},
	StatusRainy:     {Rating: 1, Emoji: defaultEmoji, Legacy: true},
}

var labelToStatus = func() map[string]Status {
	m := make(map[string]Status, len(statusTable))
	for s, info := range statusTable {
		if info.Label != "" {
			m[info.Label] = s
		}
	}
	return m
}()

// Statuses lists the current five-level scale, best first.
func Statuses() []Status {
	return []Status{StatusExcellent, StatusGood, StatusAverage, StatusFair, StatusPoor}
}

func (s Status) Info() (StatusInfo, bool) {
	info, ok := statusTable[s]
	return info, ok
}

// Known reports whether s is a current or legacy status.
func (s Status) Known() bool {
	_, ok := statusTable[s]
	return ok
}

// Rating maps a status to 1–5; unknown statuses rate as average.
func (s Status) Rating() int {
	if info, ok := statusTable[s]; ok {
		return info.Rating
	}
	return defaultRating
}

// Label returns the export label, or "" for legacy and unknown statuses.
func (s Status) Label() string {
	return statusTable[s].Label
}

func (s Status) Emoji() string {
	if info, ok := statusTable[s]; ok {
		return info.Emoji
	}
	return defaultEmoji
}

// StatusFromLabel is the inverse of Label; unmapped labels become average.
func StatusFromLabel(label string) Status {
	if s, ok := labelToStatus[label]; ok {
		return s
	}
	return StatusAverage
}
