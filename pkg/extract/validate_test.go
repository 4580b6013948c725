package extract

import (
	"strings"
	"testing"
)

func validRecord() *Record {
	r := NewRecord()
	r.Set(Field{Name: FieldScore, Value: "1250000", Confidence: 0.9})
	r.Set(Field{Name: FieldPhase, Value: "prep", Confidence: 0.95})
	r.Set(Field{Name: FieldDay, Value: "3", Confidence: 0.95})
	r.Set(Field{Name: FieldServer, Value: "1234", Confidence: 0.9})
	r.Set(Field{Name: FieldGuild, Value: "TAO", Confidence: 0.9})
	r.Set(Field{Name: FieldName, Value: "Marshal", Confidence: 0.9})
	return r
}

func TestValidateCleanRecord(t *testing.T) {
	if v := Validate(validRecord()); len(v) != 0 {
		t.Fatalf("expected no violations got %v", v)
	}
}

func TestValidateScoreBounds(t *testing.T) {
	r := validRecord()
	r.Set(Field{Name: FieldScore, Value: "2000000001", Confidence: 0.9})
	v := Validate(r)
	if len(v) == 0 || !strings.Contains(v[0], "Score") {
		t.Fatalf("expected score violation got %v", v)
	}
}

func TestValidateMissingScore(t *testing.T) {
	r := validRecord()
	delete(r.Fields, FieldScore)
	if v := Validate(r); len(v) == 0 {
		t.Fatalf("record without a score must not validate")
	}
}

func TestValidateWarWithDay(t *testing.T) {
	r := validRecord()
	r.Set(Field{Name: FieldPhase, Value: "war", Confidence: 1.0})
	v := Validate(r)
	found := false
	for _, reason := range v {
		if reason == "War phase must have day=None" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected war/day violation got %v", v)
	}
}

func TestValidatePrepNeedsDay(t *testing.T) {
	r := validRecord()
	delete(r.Fields, FieldDay)
	if v := Validate(r); len(v) == 0 {
		t.Fatalf("prep without a day must not validate")
	}
	r.Set(Field{Name: FieldDay, Value: "overall", Confidence: 0.95})
	if v := Validate(r); len(v) != 0 {
		t.Fatalf("overall is a valid prep day, got %v", v)
	}
}

func TestValidateGuildFormat(t *testing.T) {
	r := validRecord()
	r.Set(Field{Name: FieldGuild, Value: "T4O", Confidence: 0.6})
	if v := Validate(r); len(v) == 0 {
		t.Fatalf("digit in guild tag must not validate")
	}
	// guild absent is fine
	delete(r.Fields, FieldGuild)
	if v := Validate(r); len(v) != 0 {
		t.Fatalf("absent guild should validate, got %v", v)
	}
}

func TestValidateNameLength(t *testing.T) {
	r := validRecord()
	r.Set(Field{Name: FieldName, Value: "x", Confidence: 0.9})
	if v := Validate(r); len(v) == 0 {
		t.Fatalf("one-character name must not validate")
	}
}

func TestValidateServerRange(t *testing.T) {
	r := validRecord()
	r.Set(Field{Name: FieldServer, Value: "42", Confidence: 0.9})
	if v := Validate(r); len(v) == 0 {
		t.Fatalf("server 42 must not validate")
	}
}
