package extract

import "testing"

func recordWith(confs map[string]float64) *Record {
	r := NewRecord()
	for name, c := range confs {
		r.Set(Field{Name: name, Value: "x", Confidence: c})
	}
	return r
}

func TestOverallEmptyRecord(t *testing.T) {
	if got := Overall(NewRecord()); got != 0 {
		t.Fatalf("empty record should aggregate to 0 got %f", got)
	}
}

func TestOverallReweightsMissingFields(t *testing.T) {
	// only score present: its confidence is the overall
	r := recordWith(map[string]float64{FieldScore: 0.8})
	if got := Overall(r); got != 0.8 {
		t.Fatalf("single field should renormalize to its own confidence, got %f", got)
	}
}

func TestOverallMonotonicPerField(t *testing.T) {
	base := map[string]float64{
		FieldScore:  0.7,
		FieldPhase:  0.95,
		FieldDay:    0.95,
		FieldServer: 0.8,
		FieldGuild:  0.6,
		FieldName:   0.75,
	}
	baseline := Overall(recordWith(base))
	for name := range base {
		bumped := map[string]float64{}
		for k, v := range base {
			bumped[k] = v
		}
		bumped[name] = base[name] + 0.1
		if got := Overall(recordWith(bumped)); got <= baseline {
			t.Fatalf("raising %s should raise overall: baseline=%f got=%f", name, baseline, got)
		}
	}
}

func TestOverallWeighted(t *testing.T) {
	// score (0.35) at 1.0, name (0.10) at 0.0 -> 0.35/0.45
	r := recordWith(map[string]float64{FieldScore: 1.0, FieldName: 0.0})
	want := 0.35 / 0.45
	got := Overall(r)
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("expected %f got %f", want, got)
	}
}
