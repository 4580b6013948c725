package extract

// Weights used to combine per-field confidences into the overall score.
// Fields absent from a record are excluded from numerator and denominator,
// so the remaining weights re-normalize.
var Weights = map[string]float64{
	FieldScore:  0.35,
	FieldPhase:  0.20,
	FieldDay:    0.15,
	FieldServer: 0.10,
	FieldGuild:  0.10,
	FieldName:   0.10,
}

// Overall computes the weighted overall confidence of the fields present.
// Returns 0.0 when no weighted field is present.
func Overall(r *Record) float64 {
	var num, den float64
	for _, name := range FieldOrder {
		f, ok := r.Fields[name]
		if !ok {
			continue
		}
		w := Weights[name]
		num += w * f.Confidence
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}
