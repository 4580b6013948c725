package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"svsboard/pkg/ocr"
)

// Score bounds; anything outside is a misread, not a record.
const (
	ScoreMin int64 = 1
	ScoreMax int64 = 2_000_000_000
)

// Confidence assigned when a field has no OCR candidate at all and the value
// comes purely from the submitter's profile.
const (
	GuildCacheFallbackConfidence = 0.7
	NameCacheFallbackConfidence  = 0.75
)

// cacheMatchCeiling caps the boost a cached match can give; OCR agreement
// with the profile is strong evidence but never certainty.
const cacheMatchCeiling = 0.98

var (
	scoreLabelRE = regexp.MustCompile(`(?i)\b(?:points?|score)\s*[:：]?\s*([0-9][0-9.,\s]{0,14}[0-9]|[0-9])`)
	numberRunRE  = regexp.MustCompile(`[0-9][0-9.,]{3,13}[0-9]`)
	serverRE     = regexp.MustCompile(`#(\d{3,6})`)
	guildRE      = regexp.MustCompile(`\[([A-Z0-9]{2,6})\]`)
	pureTagRE    = regexp.MustCompile(`^[A-Z]{2,6}$`)
)

// Characters tesseract habitually hallucinates into player names.
const nameArtifactChars = `|\/_@#$%^&*()`

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ExtractScore finds the most plausible score in the OCR lines. A labeled
// "Points:"/"Score:" match wins over a bare digit run.
func ExtractScore(lines []string) (Field, bool) {
	text := strings.Join(lines, " ")
	var raw string
	labeled := false
	if m := scoreLabelRE.FindStringSubmatch(text); m != nil {
		raw = strings.TrimSpace(m[0])
		labeled = true
	} else if m := numberRunRE.FindString(text); m != "" {
		raw = m
	} else {
		return Field{}, false
	}
	digits := onlyDigits(raw)
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Field{}, false
	}
	return Field{
		Name:       FieldScore,
		Raw:        raw,
		Value:      strconv.FormatInt(v, 10),
		Confidence: ScoreConfidence(digits, v, labeled),
	}, true
}

// ScoreConfidence scores a matched digit string against the parsed value.
// Returns 0.0 exactly when the value is outside [ScoreMin, ScoreMax].
func ScoreConfidence(matchedDigits string, value int64, labeled bool) float64 {
	if value < ScoreMin || value > ScoreMax {
		return 0
	}
	c := 0.5
	if labeled {
		c += 0.3
	}
	if matchedDigits == strconv.FormatInt(value, 10) {
		c += 0.2
	}
	// 5-10 digits is the typical event score magnitude
	switch n := len(matchedDigits); {
	case n >= 5 && n <= 10:
		c += 0.1
	case n < 5:
		c -= 0.1
	}
	return clamp01(c)
}

// ExtractPhase decides prep vs war from the tab highlight signals.
func ExtractPhase(sig ocr.Signals) Field {
	f := Field{Name: FieldPhase, Confidence: 0.3}
	conflicting := sig.PrepHighlighted && sig.WarHighlighted
	switch {
	case conflicting:
		f.Confidence = 0.4
		if sig.HasDaySelector {
			f.Value = "prep"
		} else {
			f.Value = "war"
		}
	case sig.PrepHighlighted:
		f.Value = "prep"
		f.Confidence = 0.95
	case sig.WarHighlighted:
		f.Value = "war"
		f.Confidence = 0.95
	}
	// The day selector only exists on the prep layout, so its presence is
	// a phase signal on its own.
	if sig.HasDaySelector && !conflicting {
		if f.Value == "" {
			f.Value = "prep"
		}
		if f.Value == "prep" && f.Confidence < 0.85 {
			f.Confidence = 0.85
		}
	}
	return f
}

// ExtractDay reads the highlighted day button. Only meaningful in prep phase.
func ExtractDay(sig ocr.Signals) Field {
	f := Field{Name: FieldDay, Confidence: 0.3}
	n := len(sig.DayHighlights)
	if sig.OverallHighlighted {
		n++
	}
	switch {
	case n == 1 && sig.OverallHighlighted:
		f.Value = "overall"
		f.Confidence = 0.95
	case n == 1:
		f.Value = strconv.Itoa(sig.DayHighlights[0])
		f.Confidence = 0.95
	case n > 1:
		// conflicting highlights; surface the first one, low confidence
		if len(sig.DayHighlights) > 0 {
			f.Value = strconv.Itoa(sig.DayHighlights[0])
		} else {
			f.Value = "overall"
		}
		f.Confidence = 0.4
	}
	return f
}

// ExtractServer finds a "#1234" style server marker.
func ExtractServer(lines []string) (Field, bool) {
	text := strings.Join(lines, " ")
	ms := serverRE.FindAllStringSubmatch(text, -1)
	if len(ms) == 0 {
		return Field{}, false
	}
	digits := ms[0][1]
	c := 0.5
	switch len(digits) {
	case 4, 5:
		c += 0.3
	case 3, 6:
		c += 0.1
	}
	if len(ms) == 1 {
		c += 0.2
	} else {
		c -= 0.1
	}
	return Field{Name: FieldServer, Raw: ms[0][0], Value: digits, Confidence: clamp01(c)}, true
}

// ExtractGuild finds a bracketed guild tag. A tag with digits in it is the
// classic misread ([T4O] for [TAO]) and stays at base confidence so the
// cache substitution step can repair it.
func ExtractGuild(lines []string, cachedGuild string) (Field, bool) {
	text := strings.Join(lines, " ")
	ms := guildRE.FindAllStringSubmatch(text, -1)
	if len(ms) == 0 {
		return Field{}, false
	}
	tag := ms[0][1]
	c := 0.6
	if pureTagRE.MatchString(tag) {
		switch len(tag) {
		case 3:
			c += 0.2
		case 2, 4:
			c += 0.1
		}
		if len(ms) == 1 {
			c += 0.2
		} else {
			c -= 0.1
		}
		if cachedGuild != "" && tag == cachedGuild {
			c = math.Min(cacheMatchCeiling, c+0.2)
		}
	}
	return Field{Name: FieldGuild, Raw: ms[0][0], Value: tag, Confidence: clamp01(c)}, true
}

// ExtractName takes the text following the guild bracket as the player name.
func ExtractName(lines []string, cachedName string) (Field, bool) {
	text := strings.Join(lines, " ")
	loc := guildRE.FindStringIndex(text)
	if loc == nil {
		return Field{}, false
	}
	name := nameAfterBracket(text[loc[1]:])
	if name == "" {
		return Field{}, false
	}
	c := 0.6
	switch n := len([]rune(name)); {
	case n >= 3 && n <= 20:
		c += 0.2
	case n < 3:
		c -= 0.2
	}
	if strings.ContainsAny(name, nameArtifactChars) {
		c -= 0.2
	} else {
		c += 0.1
	}
	if cachedName != "" {
		if strings.EqualFold(name, cachedName) {
			c = math.Min(cacheMatchCeiling, c+0.2)
		} else if c > 0.75 {
			// a name disagreeing with the profile is never trusted outright
			c = 0.75
		}
	}
	return Field{Name: FieldName, Raw: name, Value: name, Confidence: clamp01(c)}, true
}

// nameAfterBracket collects tokens after the tag until the text turns
// numeric (the score column) or another bracket opens.
func nameAfterBracket(tail string) string {
	var parts []string
	for _, tok := range strings.Fields(tail) {
		if strings.HasPrefix(tok, "[") {
			break
		}
		if onlyDigits(tok) == strings.Map(func(r rune) rune {
			if r == '.' || r == ',' {
				return -1
			}
			return r
		}, tok) && tok != "" {
			break // pure number, we have run into the score column
		}
		if strings.Contains(strings.ToLower(tok), "points") || strings.Contains(strings.ToLower(tok), "score") {
			break
		}
		parts = append(parts, tok)
		if len(parts) >= 4 {
			break
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
