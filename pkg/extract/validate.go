package extract

import (
	"regexp"
	"strconv"
)

var validGuildRE = regexp.MustCompile(`^[A-Z]{2,6}$`)

// Validate runs the hard validity checks, independent of any confidence.
// The returned list holds one human-readable reason per violated rule; an
// empty list means the record may proceed. A record failing any rule is
// routed to disambiguation no matter how confident the extraction was.
func Validate(r *Record) []string {
	var reasons []string

	if v, ok := r.Score(); !ok || v < ScoreMin || v > ScoreMax {
		reasons = append(reasons, "Score must be between 1 and 2,000,000,000")
	}
	if f, ok := r.Get(FieldServer); ok {
		if v, err := strconv.Atoi(f.Value); err != nil || v < 100 || v > 999999 {
			reasons = append(reasons, "Server ID must be between 100 and 999999")
		}
	}
	if f, ok := r.Get(FieldGuild); ok && !validGuildRE.MatchString(f.Value) {
		reasons = append(reasons, "Guild tag must be 2-6 uppercase letters")
	}
	if f, ok := r.Get(FieldName); ok {
		if n := len([]rune(f.Value)); n < 2 || n > 30 {
			reasons = append(reasons, "Player name must be 2-30 characters")
		}
	}

	phase, hasPhase := r.Get(FieldPhase)
	day, hasDay := r.Get(FieldDay)
	if hasPhase {
		switch phase.Value {
		case "prep":
			if !hasDay || !validDay(day.Value) {
				reasons = append(reasons, "Prep phase requires a day between 1 and 5 or overall")
			}
		case "war":
			if hasDay && day.Value != "" {
				reasons = append(reasons, "War phase must have day=None")
			}
		default:
			reasons = append(reasons, "Phase must be prep or war")
		}
	}
	return reasons
}

func validDay(v string) bool {
	if v == "overall" {
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n >= 1 && n <= 5
}
