package pipeline

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"svsboard/models"
	"svsboard/pkg/confirm"
	"svsboard/pkg/extract"
	"svsboard/pkg/ocr"
	"svsboard/pkg/store"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	corrections, err := store.OpenCorrections(filepath.Join(t.TempDir(), "corrections.json"))
	if err != nil {
		t.Fatalf("corrections: %v", err)
	}
	// no db: these tests exercise extraction, merge and routing only
	return New(Default(), nil, nil, corrections)
}

func routeRecord(p *Pipeline, rec *extract.Record) (confirm.State, *confirm.Payload) {
	rec.Overall = extract.Overall(rec)
	return p.router.Route(rec, extract.Validate(rec))
}

func TestCleanReadWithMatchingProfileAutoAccepts(t *testing.T) {
	p := newTestPipeline(t)
	profile := &models.PlayerProfile{SubmitterID: "u1", Guild: "TAO", PlayerName: "Mars"}
	lines := []string{"[TAO] Mars", "Points: 1,250,000"}

	rec := p.buildRecord(lines, ocr.Signals{}, profile, "comm-1")
	state, payload := routeRecord(p, rec)
	if state != confirm.StateAutoAccepted {
		t.Fatalf("expected auto accept at overall %.4f, got %s", rec.Overall, state)
	}
	if payload != nil {
		t.Fatalf("auto accept must not carry a payload")
	}
	if score, ok := rec.Score(); !ok || score != 1250000 {
		t.Fatalf("score = %d ok=%v", score, ok)
	}
	if rec.Guild() != "TAO" || rec.Name() != "Mars" {
		t.Fatalf("guild=%q name=%q", rec.Guild(), rec.Name())
	}
}

func TestMisreadGuildIsRepairedFromCache(t *testing.T) {
	p := newTestPipeline(t)
	profile := &models.PlayerProfile{SubmitterID: "u1", Guild: "TAO", PlayerName: "Mars"}
	lines := []string{"[T4O] Mars", "Points: 1,250,000"}

	rec := p.buildRecord(lines, ocr.Signals{}, profile, "comm-1")
	if rec.Guild() != "TAO" {
		t.Fatalf("guild not substituted: %q", rec.Guild())
	}
	if !rec.GuildFromCache {
		t.Fatal("GuildFromCache not set")
	}
	f, _ := rec.Get(extract.FieldGuild)
	if f.Confidence != p.cfg.GuildSubstituteThreshold {
		t.Fatalf("substituted guild confidence = %.2f", f.Confidence)
	}
	state, payload := routeRecord(p, rec)
	if state != confirm.StateSoftConfirmOffered {
		t.Fatalf("expected soft confirm at overall %.4f, got %s", rec.Overall, state)
	}
	if payload == nil || payload.Type != confirm.PayloadSoftConfirm {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestWarPhaseCarriesNoDay(t *testing.T) {
	p := newTestPipeline(t)
	sig := ocr.Signals{WarHighlighted: true, DayHighlights: []int{3}}
	rec := p.buildRecord([]string{"Points: 1,250,000"}, sig, nil, "comm-1")
	if rec.Phase() != "war" {
		t.Fatalf("phase = %q", rec.Phase())
	}
	if _, ok := rec.Get(extract.FieldDay); ok {
		t.Fatal("war record must not carry a day field")
	}
	if v := extract.Validate(rec); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestCroppedTableOmitsPhase(t *testing.T) {
	p := newTestPipeline(t)
	rec := p.buildRecord([]string{"Points: 1,250,000"}, ocr.Signals{}, nil, "comm-1")
	if _, ok := rec.Get(extract.FieldPhase); ok {
		t.Fatal("no tab chrome means no phase field")
	}
}

func TestDifferingNameIsFlaggedNotOverwritten(t *testing.T) {
	p := newTestPipeline(t)
	profile := &models.PlayerProfile{SubmitterID: "u1", Guild: "TAO", PlayerName: "Mars"}
	lines := []string{"[TAO] Marx", "Points: 1,250,000"}

	rec := p.buildRecord(lines, ocr.Signals{}, profile, "comm-1")
	if !rec.NameDiffers {
		t.Fatal("NameDiffers not set")
	}
	if rec.CachedName != "Mars" {
		t.Fatalf("cached name = %q", rec.CachedName)
	}
	if rec.Name() != "Marx" {
		t.Fatalf("OCR name should be kept, got %q", rec.Name())
	}
	f, _ := rec.Get(extract.FieldName)
	if f.Confidence > 0.75 {
		t.Fatalf("differing name confidence %.2f should be capped", f.Confidence)
	}
}

func TestActiveNameLockForcesCachedName(t *testing.T) {
	p := newTestPipeline(t)
	until := time.Now().Add(12 * time.Hour)
	profile := &models.PlayerProfile{
		SubmitterID: "u1", Guild: "TAO", PlayerName: "Mars",
		NameLocked: true, NameLockedUntil: &until,
	}
	lines := []string{"[TAO] Marx", "Points: 1,250,000"}

	rec := p.buildRecord(lines, ocr.Signals{}, profile, "comm-1")
	if rec.Name() != "Mars" {
		t.Fatalf("locked name not enforced, got %q", rec.Name())
	}
	if !rec.NameLocked {
		t.Fatal("NameLocked not set on record")
	}
	if rec.NameDiffers {
		t.Fatal("a locked name is forced, not prompted")
	}
}

func TestNameCorrectionMemoryApplies(t *testing.T) {
	p := newTestPipeline(t)
	if err := p.corrections.RecordNameCorrection("comm-1", "Mar5", "Mars"); err != nil {
		t.Fatalf("record correction: %v", err)
	}
	lines := []string{"[TAO] Mar5", "Points: 1,250,000"}

	rec := p.buildRecord(lines, ocr.Signals{}, nil, "comm-1")
	if rec.Name() != "Mars" {
		t.Fatalf("correction not applied, got %q", rec.Name())
	}
	f, _ := rec.Get(extract.FieldName)
	if f.Confidence != p.cfg.CorrectionConfidence {
		t.Fatalf("corrected name confidence = %.2f", f.Confidence)
	}
}

func TestProfileBackfillsMissingFields(t *testing.T) {
	p := newTestPipeline(t)
	profile := &models.PlayerProfile{SubmitterID: "u1", Guild: "TAO", PlayerName: "Mars"}
	lines := []string{"Points: 1,250,000"} // no guild bracket at all

	rec := p.buildRecord(lines, ocr.Signals{}, profile, "comm-1")
	if rec.Guild() != "TAO" || !rec.GuildFromCache {
		t.Fatalf("guild fallback missing: %q from-cache=%v", rec.Guild(), rec.GuildFromCache)
	}
	g, _ := rec.Get(extract.FieldGuild)
	if g.Confidence != extract.GuildCacheFallbackConfidence {
		t.Fatalf("guild fallback confidence = %.2f", g.Confidence)
	}
	n, ok := rec.Get(extract.FieldName)
	if !ok || n.Value != "Mars" || n.Confidence != extract.NameCacheFallbackConfidence {
		t.Fatalf("name fallback = %+v ok=%v", n, ok)
	}
}

func TestResolveCancelDiscards(t *testing.T) {
	p := newTestPipeline(t)
	rec := extract.NewRecord()
	p.Sessions().Open(&confirm.Session{
		ID:      "sub-1",
		Record:  rec,
		State:   confirm.StateSoftConfirmOffered,
		Payload: &confirm.Payload{Type: confirm.PayloadSoftConfirm},
	}, time.Minute)

	out, err := p.Resolve("sub-1", confirm.ActionCancel, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.State != confirm.StateCancelled {
		t.Fatalf("state = %s", out.State)
	}
	if _, err := p.Resolve("sub-1", confirm.ActionCancel, nil); !errors.Is(err, confirm.ErrUnknownSubmission) {
		t.Fatalf("second resolve should fail, got %v", err)
	}
}

func TestResolveUnknownSubmission(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.Resolve("never-opened", confirm.ActionConfirm, nil); !errors.Is(err, confirm.ErrUnknownSubmission) {
		t.Fatalf("expected ErrUnknownSubmission got %v", err)
	}
}
