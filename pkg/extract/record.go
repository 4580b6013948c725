package extract

import "strconv"

// Canonical field names shared by extraction, aggregation and the
// confirmation payloads.
const (
	FieldScore  = "score"
	FieldPhase  = "phase"
	FieldDay    = "day"
	FieldServer = "server_id"
	FieldGuild  = "guild"
	FieldName   = "player_name"
)

// FieldOrder is the display/aggregation order.
var FieldOrder = []string{FieldScore, FieldPhase, FieldDay, FieldServer, FieldGuild, FieldName}

// Field is one recognized value with its raw OCR text and an independent
// confidence in [0,1]. Immutable once produced.
type Field struct {
	Name       string
	Raw        string
	Value      string
	Confidence float64
}

// Record aggregates the extracted fields for one submission plus the flags
// the merge steps set. It is either fully accepted or discarded, never
// partially persisted.
type Record struct {
	Fields  map[string]Field
	Overall float64

	GuildFromCache   bool
	NameDiffers      bool
	NameLocked       bool
	ManuallyVerified bool

	// CachedName carries the profile's name when NameDiffers, so the
	// renderer can show both candidates.
	CachedName string
}

func NewRecord() *Record {
	return &Record{Fields: map[string]Field{}}
}

func (r *Record) Get(name string) (Field, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

func (r *Record) Set(f Field) {
	r.Fields[f.Name] = f
}

// Score returns the parsed score value, false when absent or unparseable.
func (r *Record) Score() (int64, bool) {
	f, ok := r.Fields[FieldScore]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(f.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *Record) Phase() string { return r.Fields[FieldPhase].Value }
func (r *Record) Day() string   { return r.Fields[FieldDay].Value }
func (r *Record) Guild() string { return r.Fields[FieldGuild].Value }
func (r *Record) Name() string  { return r.Fields[FieldName].Value }

// ServerID returns the parsed server number, false when absent.
func (r *Record) ServerID() (int, bool) {
	f, ok := r.Fields[FieldServer]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(f.Value)
	if err != nil {
		return 0, false
	}
	return v, true
}
