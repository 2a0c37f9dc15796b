package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"livingroom/internal/casecache"
	"livingroom/internal/logging"
	"livingroom/internal/services/vision"
	"livingroom/internal/table"
	"livingroom/internal/units"
	"livingroom/internal/xcorr"
)

// OffsetFunc estimates how many seconds later recording b started than
// recording a.
type OffsetFunc func(ctx context.Context, a, b string) (float64, error)

// FileOffset cross-correlates the first limit of two WAV files.
func FileOffset(limit time.Duration) OffsetFunc {
	return func(ctx context.Context, a, b string) (float64, error) {
		return xcorr.EstimateFileOffset(ctx, a, b, limit)
	}
}

type session struct {
	name    string
	members []Identity
}

// sessions groups ids by session in first-encountered order. IDs that do not
// split are skipped.
func (o *Orchestrator) sessions(ids []string) []*session {
	var order []*session
	byName := map[string]*session{}
	for _, id := range ids {
		ident, err := o.layout.Identify(id)
		if err != nil {
			continue
		}
		s, ok := byName[ident.Session]
		if !ok {
			s = &session{name: ident.Session}
			byName[ident.Session] = s
			order = append(order, s)
		}
		s.members = append(s.members, ident)
	}
	return order
}

// partners maps each case ID to its interlocutor's case ID for sessions with
// exactly two speakers.
func (o *Orchestrator) partners(ids []string) map[string]string {
	out := map[string]string{}
	for _, s := range o.sessions(ids) {
		if len(s.members) != 2 {
			o.logger.Debug("session has no unique interlocutor pairing",
				logging.String("session", s.name),
				logging.Int("speakers", len(s.members)))
			continue
		}
		a, b := s.members[0].CaseID, s.members[1].CaseID
		out[a], out[b] = b, a
	}
	return out
}

// AddInterlocutors adds interlocutor_id, the partner's speaker ID, unless the
// column is already present.
func (o *Orchestrator) AddInterlocutors(corpus *table.Table, ids []string) error {
	if corpus.Has(units.ColInterlocutorID) {
		return nil
	}
	partners := o.partners(ids)
	cases, ok := corpus.Strings(units.ColSpeakerSessionID)
	if !ok {
		return fmt.Errorf("add interlocutors: missing %s", units.ColSpeakerSessionID)
	}
	values := make([]table.Value, corpus.Len())
	for i, caseID := range cases {
		partner, ok := partners[caseID]
		if !ok {
			continue
		}
		if ident, err := o.layout.Identify(partner); err == nil {
			values[i] = table.Str(ident.Speaker)
		}
	}
	return corpus.SetColumn(units.ColInterlocutorID, values)
}

// AddOffsets estimates, for every session, each speaker's offset from the
// session's first speaker and adds offset_secs, chunk_timestamp_with_offset
// and offset_to_interlocutor_native. A speaker whose offset cannot be
// estimated gets nulls. The returned map holds offsets by case ID.
func (o *Orchestrator) AddOffsets(ctx context.Context, corpus *table.Table, ids []string) (map[string]float64, error) {
	if !corpus.Has(units.ColSpeakerSessionID) {
		return nil, fmt.Errorf("add offsets: missing %s", units.ColSpeakerSessionID)
	}
	logger := logging.WithContext(ctx, o.logger)
	offsets := map[string]float64{}
	for _, s := range o.sessions(ids) {
		ref := s.members[0]
		offsets[ref.CaseID] = 0
		if len(s.members) == 1 {
			continue
		}
		refAudio, err := o.layout.ResolvePath(ref.CaseID, o.layout.paths.AudioDir, o.layout.ext.Audio)
		if err != nil || refAudio == "" {
			logging.WarnWithContext(logger, "reference audio missing", "offset_unavailable",
				logging.String(logging.FieldCaseID, ref.CaseID),
				logging.String(logging.FieldImpact, "session speakers have no offsets"))
			continue
		}
		for _, member := range s.members[1:] {
			audio, err := o.layout.ResolvePath(member.CaseID, o.layout.paths.AudioDir, o.layout.ext.Audio)
			if err != nil || audio == "" {
				logging.WarnWithContext(logger, "speaker audio missing", "offset_unavailable",
					logging.String(logging.FieldCaseID, member.CaseID),
					logging.String(logging.FieldImpact, "speaker has no offset"))
				continue
			}
			offset, err := o.offsets(ctx, refAudio, audio)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if errors.Is(err, context.Canceled) {
					return nil, err
				}
				logging.WarnWithContext(logger, "offset estimation failed", "offset_failed",
					logging.String(logging.FieldCaseID, member.CaseID),
					logging.Error(err),
					logging.String(logging.FieldImpact, "speaker has no offset"))
				continue
			}
			offsets[member.CaseID] = offset
			logger.Info("session offset estimated",
				logging.String("reference", ref.CaseID),
				logging.String(logging.FieldCaseID, member.CaseID),
				logging.Float64("offset_secs", offset))
		}
	}

	partners := o.partners(ids)
	cases, _ := corpus.Strings(units.ColSpeakerSessionID)
	timestamps, _ := corpus.Floats(units.ColChunkTimestamp)
	n := corpus.Len()
	own := make([]float64, n)
	shifted := make([]float64, n)
	toPartner := make([]float64, n)
	for i := 0; i < n; i++ {
		own[i], shifted[i], toPartner[i] = math.NaN(), math.NaN(), math.NaN()
		off, ok := offsets[cases[i]]
		if !ok {
			continue
		}
		own[i] = off
		if timestamps != nil {
			shifted[i] = timestamps[i] + off
		}
		if partnerOff, ok := offsets[partners[cases[i]]]; ok {
			toPartner[i] = off - partnerOff
		}
	}
	if err := corpus.SetFloats(units.ColOffsetSecs, own); err != nil {
		return nil, err
	}
	if err := corpus.SetFloats(units.ColChunkTimestampOffset, shifted); err != nil {
		return nil, err
	}
	if err := corpus.SetFloats(units.ColOffsetToInterlocutor, toPartner); err != nil {
		return nil, err
	}
	return offsets, nil
}

// AddInterlocutorCV samples each speaker's interlocutor's cached CV series at
// the speaker's chunk timestamps translated to the interlocutor's clock.
// Missing series or offsets yield nulls.
func (o *Orchestrator) AddInterlocutorCV(ctx context.Context, corpus *table.Table, ids []string) error {
	if !corpus.HasAll(units.ColSpeakerSessionID, units.ColOffsetToInterlocutor, units.ColChunkTimestamp) {
		return nil
	}
	logger := logging.WithContext(ctx, o.logger)
	partners := o.partners(ids)

	series := map[string]*vision.Series{}
	lookup := func(caseID string) *vision.Series {
		if s, ok := series[caseID]; ok {
			return s
		}
		var s *vision.Series
		cached, ok, err := o.cache.Get(ctx, casecache.NamespaceCV, caseID)
		if err == nil && ok {
			s, err = vision.SeriesFromTable(cached)
		}
		if err != nil {
			logging.WarnWithContext(logger, "interlocutor cv unreadable", "cv_cache_unreadable",
				logging.String(logging.FieldCaseID, caseID), logging.Error(err))
			s = nil
		}
		if s == nil {
			logger.Debug("no cached cv for interlocutor", logging.String(logging.FieldCaseID, caseID))
		}
		series[caseID] = s
		return s
	}

	cases, _ := corpus.Strings(units.ColSpeakerSessionID)
	timestamps, _ := corpus.Floats(units.ColChunkTimestamp)
	toPartner, _ := corpus.Floats(units.ColOffsetToInterlocutor)
	movamp := make([]float64, corpus.Len())
	smiles := make([]table.Value, corpus.Len())
	for i := range movamp {
		movamp[i] = math.NaN()
		partner, ok := partners[cases[i]]
		if !ok || math.IsNaN(toPartner[i]) || math.IsNaN(timestamps[i]) {
			continue
		}
		s := lookup(partner)
		if s.Len() == 0 {
			continue
		}
		at := timestamps[i] + toPartner[i]
		movamp[i] = s.MovAmpAt(at)
		smiles[i] = table.Bool(s.SmileAt(at, o.smileThreshold))
	}
	if err := corpus.SetFloats(units.ColInterlocutorMovAmp, movamp); err != nil {
		return err
	}
	return corpus.SetColumn(units.ColInterlocutorSmile, smiles)
}
