package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"svsboard/models"
	"svsboard/pkg/confirm"
	"svsboard/pkg/extract"
	"svsboard/pkg/ocr"
	"svsboard/pkg/store"
)

// RawSubmission is one incoming screenshot with its context. Ephemeral;
// discarded when the pipeline completes.
type RawSubmission struct {
	SubmissionID string
	SubmitterID  string
	CommunityID  string
	Image        []byte
	ReceivedAt   time.Time
}

// Outcome is what the caller renders: the routing state, the confirmation
// payload (nil on auto-accept) and, when a rename was detected, the separate
// name-change prompt.
type Outcome struct {
	SubmissionID string
	State        confirm.State
	Payload      *confirm.Payload
	NameChange   *confirm.Payload
	Record       *extract.Record
}

// Pipeline wires the extraction-and-confirmation flow. All collaborators
// are injected at construction; there is no process-wide default instance.
type Pipeline struct {
	cfg         Config
	db          *gorm.DB
	chain       *ocr.Chain
	profiles    *ProfileStore
	corrections *store.Corrections
	router      confirm.Router
	sessions    *confirm.Manager
}

func New(cfg Config, db *gorm.DB, chain *ocr.Chain, corrections *store.Corrections) *Pipeline {
	p := &Pipeline{
		cfg:         cfg,
		db:          db,
		chain:       chain,
		profiles:    NewProfileStore(db),
		corrections: corrections,
		router: confirm.Router{
			Thresholds: confirm.Thresholds{
				AutoAccept:  cfg.AutoAcceptThreshold,
				SoftConfirm: cfg.SoftConfirmThreshold,
			},
			ConfirmTimeout:    cfg.ConfirmTimeout,
			NameChangeTimeout: cfg.NameChangeTimeout,
		},
		sessions: confirm.NewManager(),
	}
	p.sessions.OnTimeout = func(s *confirm.Session) {
		log.Printf("submission %s timed out in %s, discarded", s.ID, s.Payload.Type)
	}
	return p
}

// Sessions exposes the pending-session manager (for tests and status).
func (p *Pipeline) Sessions() *confirm.Manager { return p.sessions }

// Profiles exposes the profile store.
func (p *Pipeline) Profiles() *ProfileStore { return p.profiles }

// Process runs a submission through preparation, OCR, extraction, cache
// merge, aggregation, validation and routing. Auto-accepted records are
// committed before returning; offered tiers open a pending session.
func (p *Pipeline) Process(ctx context.Context, sub RawSubmission) (*Outcome, error) {
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.NewString()
	}
	prepared, err := ocr.Prepare(sub.Image)
	if err != nil {
		return nil, err
	}
	colorFrame, err := ocr.PrepareColor(sub.Image)
	if err != nil {
		return nil, err
	}
	regions := ocr.ProposeRegions(prepared)
	lines, err := ocr.DetectRegions(ctx, p.chain, prepared, regions)
	if err != nil {
		return nil, err
	}
	sig := ocr.DetectSignals(colorFrame, lines)

	profile, perr := p.profiles.Get(sub.SubmitterID)
	if perr != nil {
		// persistence hiccup: continue without cache rather than abort
		log.Printf("profile read failed for %s, continuing uncached: %v", sub.SubmitterID, perr)
		profile = nil
	}

	rec := p.buildRecord(lines, sig, profile, sub.CommunityID)
	rec.Overall = extract.Overall(rec)
	violations := extract.Validate(rec)
	state, payload := p.router.Route(rec, violations)

	out := &Outcome{SubmissionID: sub.SubmissionID, State: state, Payload: payload, Record: rec}
	if rec.NameDiffers {
		out.NameChange = p.router.NameChangePrompt(rec.CachedName, rec.Name())
	}

	switch state {
	case confirm.StateAutoAccepted:
		if err := p.commit(sub.SubmissionID, sub.SubmitterID, sub.CommunityID, rec); err != nil {
			return nil, err
		}
	case confirm.StateSoftConfirmOffered, confirm.StateDisambiguationOffered:
		p.sessions.Open(&confirm.Session{
			ID:          sub.SubmissionID,
			SubmitterID: sub.SubmitterID,
			CommunityID: sub.CommunityID,
			Record:      rec,
			State:       state,
			Payload:     payload,
		}, p.cfg.ConfirmTimeout)
	}
	return out, nil
}

// buildRecord runs the per-field extractors and merges in correction memory
// and the cached profile.
func (p *Pipeline) buildRecord(lines []string, sig ocr.Signals, profile *models.PlayerProfile, community string) *extract.Record {
	rec := extract.NewRecord()
	var cachedGuild, cachedName string
	if profile != nil {
		cachedGuild = profile.Guild
		cachedName = profile.PlayerName
	}

	if f, ok := extract.ExtractScore(lines); ok {
		if corr, hit := p.corrections.GetScoreCorrection(community, f.Raw); hit {
			f.Value = strconv.FormatInt(corr, 10)
			f.Confidence = p.cfg.CorrectionConfidence
		}
		rec.Set(f)
	}

	// A frame cropped to the bare table carries no tab chrome at all; the
	// phase field is then absent rather than guessed.
	if sig.PrepHighlighted || sig.WarHighlighted || sig.HasDaySelector {
		phase := extract.ExtractPhase(sig)
		rec.Set(phase)
		if phase.Value == "prep" {
			rec.Set(extract.ExtractDay(sig))
		}
	}

	if f, ok := extract.ExtractServer(lines); ok {
		rec.Set(f)
	}

	if f, ok := extract.ExtractGuild(lines, cachedGuild); ok {
		if f.Confidence < p.cfg.GuildSubstituteThreshold && cachedGuild != "" && f.Value != cachedGuild {
			f.Value = cachedGuild
			f.Confidence = p.cfg.GuildSubstituteThreshold
			rec.GuildFromCache = true
		}
		rec.Set(f)
	} else if cachedGuild != "" {
		rec.GuildFromCache = true
		rec.Set(extract.Field{
			Name:       extract.FieldGuild,
			Value:      cachedGuild,
			Confidence: extract.GuildCacheFallbackConfidence,
		})
	}

	if f, ok := extract.ExtractName(lines, cachedName); ok {
		if corr, hit := p.corrections.GetNameCorrection(community, f.Raw); hit {
			f.Value = corr
			f.Confidence = p.cfg.CorrectionConfidence
		}
		if cachedName != "" && f.Confidence < p.cfg.NameSubstituteThreshold &&
			!strings.EqualFold(f.Value, cachedName) {
			if profile != nil && profile.NameLockActive(time.Now()) {
				// an active lock can only be undone by explicit user action
				f.Value = cachedName
				f.Confidence = p.cfg.NameSubstituteThreshold
				rec.NameLocked = true
			} else {
				rec.NameDiffers = true
				rec.CachedName = cachedName
			}
		}
		rec.Set(f)
	} else if cachedName != "" {
		rec.Set(extract.Field{
			Name:       extract.FieldName,
			Value:      cachedName,
			Confidence: extract.NameCacheFallbackConfidence,
		})
	}
	return rec
}

// Resolve applies a user action to a pending submission. Exactly one of the
// user action and the timeout wins; a second call for the same id fails with
// ErrUnknownSubmission.
func (p *Pipeline) Resolve(submissionID, action string, overrides map[string]string) (*Outcome, error) {
	sess, err := p.sessions.Resolve(submissionID, action)
	if err != nil {
		return nil, err
	}
	out := &Outcome{SubmissionID: sess.ID, State: sess.State, Record: sess.Record}
	switch sess.State {
	case confirm.StateAccepted:
		if err := p.commit(sess.ID, sess.SubmitterID, sess.CommunityID, sess.Record); err != nil {
			return nil, err
		}
	case confirm.StateCorrected:
		if err := p.applyCorrections(sess, overrides); err != nil {
			return nil, err
		}
		if err := p.commit(sess.ID, sess.SubmitterID, sess.CommunityID, sess.Record); err != nil {
			return nil, err
		}
	case confirm.StateCancelled:
		// discarded, nothing persisted
	}
	return out, nil
}

// applyCorrections overwrites fields with user-provided values, remembers
// name/score fixes in correction memory and marks the record verified.
func (p *Pipeline) applyCorrections(sess *confirm.Session, overrides map[string]string) error {
	rec := sess.Record
	for name, value := range overrides {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		prev, had := rec.Get(name)
		f := extract.Field{Name: name, Raw: prev.Raw, Value: value, Confidence: 1.0}
		rec.Set(f)
		if !had || prev.Raw == "" || prev.Value == value {
			continue
		}
		switch name {
		case extract.FieldName:
			if err := p.corrections.RecordNameCorrection(sess.CommunityID, prev.Raw, value); err != nil {
				log.Printf("name correction not persisted: %v", err)
			}
		case extract.FieldScore:
			if v, err := strconv.ParseInt(onlyDigits(value), 10, 64); err == nil {
				if err := p.corrections.RecordScoreCorrection(sess.CommunityID, prev.Raw, v); err != nil {
					log.Printf("score correction not persisted: %v", err)
				}
				rec.Set(extract.Field{Name: name, Raw: prev.Raw, Value: strconv.FormatInt(v, 10), Confidence: 1.0})
			}
		}
	}
	rec.ManuallyVerified = true
	rec.NameDiffers = false
	if v := extract.Validate(rec); len(v) > 0 {
		return fmt.Errorf("corrected record still invalid: %s", strings.Join(v, "; "))
	}
	return nil
}

// commit writes the accepted record and refreshes the submitter's profile.
// An accepted record must pass validation; this is the invariant gate.
func (p *Pipeline) commit(submissionID, submitterID, communityID string, rec *extract.Record) error {
	if v := extract.Validate(rec); len(v) > 0 {
		return fmt.Errorf("record failed validation at commit: %s", strings.Join(v, "; "))
	}
	score, _ := rec.Score()
	serverID, _ := rec.ServerID()
	row := models.ScoreRecord{
		SubmissionID:     submissionID,
		SubmitterID:      submitterID,
		CommunityID:      communityID,
		Score:            score,
		Phase:            rec.Phase(),
		Day:              rec.Day(),
		ServerID:         serverID,
		Guild:            rec.Guild(),
		PlayerName:       rec.Name(),
		Overall:          rec.Overall,
		ManuallyVerified: rec.ManuallyVerified,
		GuildFromCache:   rec.GuildFromCache,
	}
	if err := p.db.Create(&row).Error; err != nil {
		return fmt.Errorf("record insert: %w", err)
	}
	// OCR-only flows never move a locked or disputed name; manual
	// verification counts as an explicit user decision.
	allowName := rec.ManuallyVerified || (!rec.NameLocked && !rec.NameDiffers)
	if err := p.profiles.Upsert(submitterID, serverID, rec.Guild(), rec.Name(), allowName); err != nil {
		// best effort: the record is committed, the cache catches up later
		log.Printf("profile upsert failed for %s: %v", submitterID, err)
	}
	return nil
}

// ConfirmNameChange is the explicit "yes, I renamed" action: the profile
// takes the new name and a fresh lock for the configured cooldown.
func (p *Pipeline) ConfirmNameChange(submitterID, newName string) error {
	until := time.Now().Add(p.cfg.NameLockCooldown)
	return p.profiles.ApplyNameChange(submitterID, newName, until)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
