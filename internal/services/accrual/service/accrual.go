package service

import (
	"context"
	"math/rand"
	"time"

	"cpoflow/internal/core/certification"
	"cpoflow/internal/core/dedup"
	"cpoflow/internal/core/ledger"
	"cpoflow/internal/core/window"
	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/platform/logger"
	"cpoflow/internal/services/accrual/domain"
	auditdom "cpoflow/internal/services/audit/domain"
)

// Config for the accrual service
type Config struct {
	ThresholdMinutes int
	MinutesPerNote   int
	BatchSize        int
	SnippetTokens    int
	NoteType         string
	Commit           bool
}

// Service implements domain.RunnerPort: the measure/generate/validate/accept
// loop that accrues oversight minutes until the billing threshold is met
type Service struct {
	Records domain.RecordsPort
	Gen     domain.GeneratorPort
	Val     domain.ValidatorPort
	Audit   auditdom.RecorderPort
	Cfg     Config

	rng *rand.Rand
	now func() time.Time
}

// New constructs the accrual service with defaults applied
func New(records domain.RecordsPort, backend domain.CompleterPort, audit auditdom.RecorderPort, cfg Config) *Service {
	if cfg.ThresholdMinutes <= 0 {
		cfg.ThresholdMinutes = 30
	}
	if cfg.MinutesPerNote <= 0 {
		cfg.MinutesPerNote = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.NoteType == "" {
		cfg.NoteType = "CPO"
	}
	return &Service{
		Records: records,
		Gen:     NewGenerator(backend),
		Val:     NewValidator(backend),
		Audit:   audit,
		Cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// Run executes one accrual invocation for a patient and month
func (s *Service) Run(ctx context.Context, in domain.RunInput) (domain.RunResult, error) {
	log := logger.C(ctx)
	startedAt := s.now()

	monthStart, monthEnd, err := window.ResolveMonth(in.MonthLabel)
	if err != nil {
		return domain.RunResult{}, err
	}
	monthWin := window.Window{Start: monthStart, End: monthEnd}

	notes, err := s.Records.CareNotes(ctx, in.PatientID)
	if err != nil {
		return domain.RunResult{}, err
	}
	existing := ledger.Sum(ledgerRecords(notes), monthWin)
	log.Info().Int("existing_minutes", existing).Int("threshold", s.Cfg.ThresholdMinutes).Msg("measured existing minutes")

	res := domain.RunResult{ExistingMinutes: existing}
	if existing >= s.Cfg.ThresholdMinutes {
		res.Outcome = domain.OutcomeDone
		s.recordRun(ctx, in, res, startedAt)
		return res, nil
	}

	orders, err := s.Records.Orders(ctx, in.PatientID)
	if err != nil {
		return domain.RunResult{}, err
	}
	cert, ok := certification.FindOrder(orders)
	if !ok {
		log.Warn().Msg("no certification order found, nothing is billable")
		res.Outcome = domain.OutcomeNoCertification
		s.recordRun(ctx, in, res, startedAt)
		return res, nil
	}

	soc, err := cert.Care()
	if err != nil {
		return domain.RunResult{}, err
	}
	_, epe, err := cert.Episode()
	if err != nil {
		return domain.RunResult{}, err
	}
	// episode end gets the full final day
	win := window.Clip(soc, epe.Add(24*time.Hour-time.Second), monthStart, monthEnd)
	if !win.Valid() {
		return domain.RunResult{}, perr.Validationf(
			"certification episode %s..%s does not overlap %s",
			cert.EpisodeStartDate, cert.EpisodeEndDate, in.MonthLabel)
	}

	summary, err := s.Records.CertificationSummary(ctx, in.PatientID)
	if err != nil {
		return domain.RunResult{}, err
	}

	idx := dedup.New(s.Cfg.SnippetTokens)
	for _, n := range notes {
		idx.Seed(n.NoteTitle, n.NoteText)
	}

	res = s.accrue(ctx, in, cert, win, summary, idx, existing)
	s.recordRun(ctx, in, res, startedAt)
	return res, nil
}

// accrue runs generate/dedup/validate/accept iterations until the threshold
// is met or an iteration makes no progress
func (s *Service) accrue(
	ctx context.Context,
	in domain.RunInput,
	cert certification.Order,
	win window.Window,
	summary domain.CertSummary,
	idx *dedup.Index,
	existing int,
) domain.RunResult {
	log := logger.C(ctx)
	res := domain.RunResult{ExistingMinutes: existing}

	for existing+res.AcceptedMinutes < s.Cfg.ThresholdMinutes {
		deficit := s.Cfg.ThresholdMinutes - existing - res.AcceptedMinutes
		needed := (deficit + s.Cfg.MinutesPerNote - 1) / s.Cfg.MinutesPerNote
		batch := min(s.Cfg.BatchSize, needed)

		cands := s.Gen.Generate(ctx, domain.GenerateInput{
			Diagnoses:              summary.Diagnoses,
			CertificationStatement: summary.CertificationStatement,
			Count:                  batch,
		})
		if len(cands) == 0 {
			log.Warn().Msg("generation produced nothing, stopping")
			res.Outcome = domain.OutcomeExhausted
			return res
		}

		unique := s.filterDuplicates(ctx, in.RunID, idx, cands)
		if len(unique) == 0 {
			log.Warn().Int("generated", len(cands)).Msg("entire batch was duplicates, stopping")
			res.Outcome = domain.OutcomeExhausted
			return res
		}
		if len(unique) > needed {
			unique = unique[:needed]
		}

		acceptedThisIter := 0
		for _, c := range unique {
			verdict := s.Val.Validate(ctx, domain.ValidateInput{
				Category:               s.Cfg.NoteType,
				Title:                  c.Title,
				Text:                   c.Text,
				Diagnoses:              summary.Diagnoses,
				CertificationStatement: summary.CertificationStatement,
			})
			if !verdict.Accepted() {
				log.Info().Str("title", c.Title).Str("reason", verdict.Reason()).Msg("candidate rejected")
				s.recordDecision(ctx, in.RunID, c.Title, auditdom.FateInvalid, verdict.Reason())
				continue
			}

			sentAt := win.RandomTime(s.rng)
			if s.Cfg.Commit {
				if err := s.Records.CreateCareNote(ctx, in.PatientID, s.payload(in.PatientID, cert, c, sentAt)); err != nil {
					log.Warn().Err(err).Str("title", c.Title).Msg("note post failed, not counting")
					s.recordDecision(ctx, in.RunID, c.Title, auditdom.FatePostFailed, err.Error())
					continue
				}
			}

			idx.Add(c.Title, c.Text)
			res.Accepted = append(res.Accepted, domain.Accepted{
				Candidate: c,
				Minutes:   s.Cfg.MinutesPerNote,
				SentAt:    sentAt,
			})
			res.AcceptedMinutes += s.Cfg.MinutesPerNote
			acceptedThisIter++
			log.Info().
				Str("title", c.Title).
				Time("sent_at", sentAt).
				Int("total_minutes", existing+res.AcceptedMinutes).
				Msg("candidate accepted")
			s.recordDecision(ctx, in.RunID, c.Title, auditdom.FateAccepted, "")

			if existing+res.AcceptedMinutes >= s.Cfg.ThresholdMinutes {
				break
			}
		}
		if acceptedThisIter == 0 {
			log.Warn().Msg("iteration accepted nothing, stopping")
			res.Outcome = domain.OutcomeExhausted
			return res
		}
	}

	res.Outcome = domain.OutcomeDone
	return res
}

// filterDuplicates drops candidates already known to the index or repeated
// within the batch; the index itself only grows on acceptance
func (s *Service) filterDuplicates(ctx context.Context, runID string, idx *dedup.Index, cands []domain.Candidate) []domain.Candidate {
	log := logger.C(ctx)
	local := make(map[string]struct{}, len(cands)*2)
	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		tk, sk := idx.TitleKey(c.Title), idx.SnippetKey(c.Text)
		_, localTitle := local[tk]
		_, localSnip := local[sk]
		if idx.Seen(c.Title, c.Text) || localTitle || localSnip {
			log.Info().Str("title", c.Title).Msg("duplicate candidate dropped")
			s.recordDecision(ctx, runID, c.Title, auditdom.FateDuplicate, "")
			continue
		}
		local[tk] = struct{}{}
		local[sk] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *Service) payload(patientID string, cert certification.Order, c domain.Candidate, sentAt time.Time) domain.NotePayload {
	return domain.NotePayload{
		PatientID:             patientID,
		StartOfCare:           cert.StartOfCare,
		StartOfEpisode:        cert.EpisodeStartDate,
		EndOfEpisode:          cert.EpisodeEndDate,
		NoteType:              s.Cfg.NoteType,
		NoteTitle:             c.Title,
		NoteText:              c.Text,
		CPOMin:                s.Cfg.MinutesPerNote,
		SentToPhysicianDate:   sentAt.Format("01/02/2006"),
		SentToPhysicianStatus: false,
	}
}

func (s *Service) recordRun(ctx context.Context, in domain.RunInput, res domain.RunResult, startedAt time.Time) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.RecordRun(ctx, auditdom.Run{
		RunID:           in.RunID,
		PatientID:       in.PatientID,
		MonthLabel:      in.MonthLabel,
		Outcome:         string(res.Outcome),
		ExistingMinutes: res.ExistingMinutes,
		AcceptedMinutes: res.AcceptedMinutes,
		CommitMode:      s.Cfg.Commit,
		StartedAt:       startedAt,
		FinishedAt:      s.now(),
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("audit run write failed")
	}
}

func (s *Service) recordDecision(ctx context.Context, runID, title string, fate auditdom.Fate, reason string) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.RecordDecision(ctx, auditdom.Decision{
		RunID:  runID,
		Title:  title,
		Fate:   fate,
		Reason: reason,
		At:     s.now(),
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("audit decision write failed")
	}
}

func ledgerRecords(notes []domain.CareNote) []ledger.Record {
	out := make([]ledger.Record, 0, len(notes))
	for _, n := range notes {
		out = append(out, ledger.Record{
			UpdatedOn: n.UpdatedOn,
			CreatedAt: n.CreatedAt,
			Minutes:   n.Minutes,
		})
	}
	return out
}
