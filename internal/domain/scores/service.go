package scores

import (
	"context"
	"errors"
	"strings"

	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/scoring"
)

type Service struct {
	store  StoreAPI
	people People
}

func NewService(store StoreAPI, people People) *Service {
	return &Service{store: store, people: people}
}

func (s *Service) Create(ctx context.Context, user auth.UserContext, input EntryInput) (scoring.ScoreEntry, error) {
	input = normalize(input)
	if err := ValidateEntry(input); err != nil {
		return scoring.ScoreEntry{}, err
	}
	if err := s.requireSubject(ctx, user.TenantID, input.SubjectID); err != nil {
		return scoring.ScoreEntry{}, err
	}
	category, _ := scoring.CategoryByCode(input.CategoryID)
	return s.store.CreateEntry(ctx, user.TenantID, user.UserID, input, category.Group)
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]scoring.ScoreEntry, int, error) {
	filter = ScopeFilter(user, filter)
	total, err := s.store.CountEntries(ctx, user.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.store.ListEntries(ctx, user.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, entryID string) (scoring.ScoreEntry, error) {
	entry, err := s.getEntry(ctx, user.TenantID, entryID)
	if err != nil {
		return scoring.ScoreEntry{}, err
	}
	if !user.Can(auth.CapScoresWrite) && entry.SubjectID != user.UserID {
		return scoring.ScoreEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (s *Service) Update(ctx context.Context, user auth.UserContext, entryID string, input EntryInput) (scoring.ScoreEntry, error) {
	existing, err := s.getEntry(ctx, user.TenantID, entryID)
	if err != nil {
		return scoring.ScoreEntry{}, err
	}
	if !CanModify(user, existing) {
		return scoring.ScoreEntry{}, ErrNotEntryOwner
	}
	input = normalize(input)
	if err := ValidateEntry(input); err != nil {
		return scoring.ScoreEntry{}, err
	}
	if input.SubjectID != existing.SubjectID {
		if err := s.requireSubject(ctx, user.TenantID, input.SubjectID); err != nil {
			return scoring.ScoreEntry{}, err
		}
	}
	category, _ := scoring.CategoryByCode(input.CategoryID)
	return s.store.UpdateEntry(ctx, user.TenantID, entryID, input, category.Group)
}

func (s *Service) Delete(ctx context.Context, user auth.UserContext, entryID string) error {
	existing, err := s.getEntry(ctx, user.TenantID, entryID)
	if err != nil {
		return err
	}
	if !CanModify(user, existing) {
		return ErrNotEntryOwner
	}
	return s.store.DeleteEntry(ctx, user.TenantID, entryID)
}

// Subtotal sums one subject's entries in a category group for a period.
func (s *Service) Subtotal(ctx context.Context, user auth.UserContext, subjectID, period, group string) (scoring.Subtotal, error) {
	if !scoring.IsGroup(group) {
		return scoring.Subtotal{}, ErrUnknownGroup
	}
	entries, err := s.subjectEntries(ctx, user, subjectID, period, group)
	if err != nil {
		return scoring.Subtotal{}, err
	}
	subtotal, err := scoring.ComputeCategorySubtotal(entries, group)
	if err != nil {
		return scoring.Subtotal{}, err
	}
	subtotal.SubjectID = ScopeFilter(user, Filter{SubjectID: subjectID}).SubjectID
	return subtotal, nil
}

// Summary returns a subtotal for every category group plus their net sum.
func (s *Service) Summary(ctx context.Context, user auth.UserContext, subjectID, period string) (Summary, error) {
	entries, err := s.subjectEntries(ctx, user, subjectID, period, "")
	if err != nil {
		return Summary{}, err
	}
	subject := ScopeFilter(user, Filter{SubjectID: subjectID}).SubjectID
	summary := Summary{SubjectID: subject, Period: period}
	groupTotals := make([]float64, 0, len(scoring.Groups()))
	for _, group := range scoring.Groups() {
		subtotal, err := scoring.ComputeCategorySubtotal(entries, group)
		if err != nil {
			return Summary{}, err
		}
		subtotal.SubjectID = subject
		summary.Groups = append(summary.Groups, subtotal)
		groupTotals = append(groupTotals, subtotal.Subtotal)
	}
	summary.Net = scoring.Sum(groupTotals...)
	return summary, nil
}

func (s *Service) subjectEntries(ctx context.Context, user auth.UserContext, subjectID, period, group string) ([]scoring.ScoreEntry, error) {
	if strings.TrimSpace(subjectID) == "" && user.Can(auth.CapScoresWrite) {
		return nil, ErrSubjectRequired
	}
	if period != "" && !scoring.ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	filter := ScopeFilter(user, Filter{SubjectID: subjectID, Period: period, Group: group})
	return s.store.ListEntries(ctx, user.TenantID, filter)
}

func (s *Service) getEntry(ctx context.Context, tenantID, entryID string) (scoring.ScoreEntry, error) {
	if !directory.ValidID(entryID) {
		return scoring.ScoreEntry{}, ErrEntryNotFound
	}
	return s.store.GetEntry(ctx, tenantID, entryID)
}

func (s *Service) requireSubject(ctx context.Context, tenantID, subjectID string) error {
	_, err := s.people.Get(ctx, tenantID, subjectID)
	if errors.Is(err, directory.ErrPersonNotFound) {
		return ErrSubjectNotFound
	}
	return err
}

func normalize(input EntryInput) EntryInput {
	input.SubjectID = strings.TrimSpace(input.SubjectID)
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	input.Reason = strings.TrimSpace(input.Reason)
	input.Period = strings.TrimSpace(input.Period)
	return input
}
