package finalscores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/scoring"
)

type fakeStore struct {
	approved map[string][]scoring.Evaluation
	scores   map[string]scoring.FinalScore
	failFor  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{approved: map[string][]scoring.Evaluation{}, scores: map[string]scoring.FinalScore{}}
}

func key(subjectID, period string) string { return subjectID + "|" + period }

func (f *fakeStore) ApprovedEvaluations(_ context.Context, _, subjectID, period string) ([]scoring.Evaluation, error) {
	if subjectID == f.failFor {
		return nil, errors.New("boom")
	}
	return f.approved[key(subjectID, period)], nil
}

func (f *fakeStore) UpsertFinalScore(_ context.Context, _ string, score scoring.FinalScore) (scoring.FinalScore, error) {
	k := key(score.SubjectID, score.Period)
	if existing, ok := f.scores[k]; ok && existing.IsFinal {
		return scoring.FinalScore{}, ErrLocked
	}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	score.CalculatedAt = &now
	f.scores[k] = score
	return score, nil
}

func (f *fakeStore) GetFinalScore(_ context.Context, _, subjectID, period string) (scoring.FinalScore, error) {
	score, ok := f.scores[key(subjectID, period)]
	if !ok {
		return scoring.FinalScore{}, ErrFinalScoreNotFound
	}
	return score, nil
}

func (f *fakeStore) ListFinalScores(_ context.Context, _, period string) ([]scoring.FinalScore, error) {
	var out []scoring.FinalScore
	for _, score := range f.scores {
		if score.Period == period {
			out = append(out, score)
		}
	}
	return out, nil
}

func (f *fakeStore) SubjectsForPeriod(_ context.Context, _, period string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for k := range f.approved {
		parts := strings.Split(k, "|")
		if parts[1] == period && !seen[parts[0]] {
			seen[parts[0]] = true
			out = append(out, parts[0])
		}
	}
	for _, score := range f.scores {
		if score.Period == period && !seen[score.SubjectID] {
			seen[score.SubjectID] = true
			out = append(out, score.SubjectID)
		}
	}
	return out, nil
}

func (f *fakeStore) SetFinal(_ context.Context, _, subjectID, period string, final bool, _ string) (scoring.FinalScore, error) {
	k := key(subjectID, period)
	score, ok := f.scores[k]
	if !ok {
		return scoring.FinalScore{}, ErrFinalScoreNotFound
	}
	score.IsFinal = final
	f.scores[k] = score
	return score, nil
}

// fakeDirectory knows every person except the ones listed as missing.
type fakeDirectory struct {
	missing map[string]bool
}

func (d fakeDirectory) Get(_ context.Context, _, personID string) (directory.Person, error) {
	if d.missing[personID] {
		return directory.Person{}, directory.ErrPersonNotFound
	}
	return directory.Person{ID: personID}, nil
}

func (fakeDirectory) Lookup(_ context.Context, _ string, ids []string) (map[string]directory.DisplayInfo, error) {
	out := map[string]directory.DisplayInfo{}
	for _, id := range ids {
		out[id] = directory.DisplayInfo{Name: "Person " + id, Department: "Ops"}
	}
	return out, nil
}

type memoryCache struct {
	items   map[string][]byte
	hits    int
	deletes int
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.items[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.items, k)
	}
	c.deletes++
	return nil
}

type countingObserver map[string]int

func (o countingObserver) ObserveRecompute(outcome string) { o[outcome]++ }

type recordingNotifier struct{ userIDs []string }

func (n *recordingNotifier) Create(_ context.Context, _, userID, _, _, _ string) error {
	n.userIDs = append(n.userIDs, userID)
	return nil
}

var admin = auth.UserContext{UserID: "admin", TenantID: "t1", RoleName: auth.RoleAdmin}

func eval(subject, kind string, volume, quality, keyWork float64) scoring.Evaluation {
	return scoring.Evaluation{SubjectID: subject, Period: "2024", Kind: kind, WorkVolumeScore: volume, WorkQualityScore: quality, KeyWorkScore: keyWork, Status: scoring.StatusApproved}
}

func TestRecomputeUpsertsEngineResult(t *testing.T) {
	store := newFakeStore()
	store.approved[key("s1", "2024")] = []scoring.Evaluation{
		eval("s1", scoring.KindDaily, 25, 15, 0),
		eval("s1", scoring.KindDaily, 30, 20, 0),
		eval("s1", scoring.KindAnnual, 20, 10, 10),
	}
	observer := countingObserver{}
	svc := NewService(store, fakeDirectory{}, WithObserver(observer))

	got, err := svc.Recompute(context.Background(), "t1", "s1", "2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// daily avg 45, annual avg 40 -> 45*0.8 + 40*0.2 = 44
	if got.DailyAverage != 45 || got.AnnualAverage != 40 || got.FinalScore.FinalScore != 44 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.DailyCount != 2 || got.AnnualCount != 1 || got.Grade != scoring.GradePoor {
		t.Fatalf("unexpected counts or grade: %+v", got)
	}

	again, err := svc.Recompute(context.Background(), "t1", "s1", "2024")
	if err != nil || again.FinalScore.FinalScore != got.FinalScore.FinalScore {
		t.Fatalf("expected idempotent recompute, got %+v (%v)", again, err)
	}
	if observer[OutcomeComputed] != 2 {
		t.Fatalf("expected two computed observations, got %v", observer)
	}
}

func TestRecomputeWithoutEvaluationsStoresZeros(t *testing.T) {
	svc := NewService(newFakeStore(), fakeDirectory{})

	got, err := svc.Recompute(context.Background(), "t1", "s9", "2024-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SubjectID != "s9" || got.Period != "2024-02" || got.FinalScore.FinalScore != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRecomputeRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeStore(), fakeDirectory{})

	if _, err := svc.Recompute(context.Background(), "t1", "s1", "2024/01"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := svc.Recompute(context.Background(), "t1", " ", "2024"); !errors.Is(err, ErrSubjectRequired) {
		t.Fatalf("expected ErrSubjectRequired, got %v", err)
	}
}

func TestFinalizedScoresAreNotRecomputed(t *testing.T) {
	store := newFakeStore()
	store.scores[key("s1", "2024")] = scoring.FinalScore{SubjectID: "s1", Period: "2024", FinalScore: 91, IsFinal: true}
	store.approved[key("s1", "2024")] = []scoring.Evaluation{eval("s1", scoring.KindDaily, 10, 10, 0)}
	observer := countingObserver{}
	svc := NewService(store, fakeDirectory{}, WithObserver(observer))

	if _, err := svc.Recompute(context.Background(), "t1", "s1", "2024"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if store.scores[key("s1", "2024")].FinalScore != 91 {
		t.Fatalf("locked score was overwritten")
	}
	if observer[OutcomeLocked] != 1 {
		t.Fatalf("expected locked observation, got %v", observer)
	}

	if _, err := svc.Unlock(context.Background(), admin, "s1", "2024"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	got, err := svc.Recompute(context.Background(), "t1", "s1", "2024")
	if err != nil {
		t.Fatalf("recompute after unlock failed: %v", err)
	}
	if got.FinalScore.FinalScore != 16 {
		t.Fatalf("expected 16 after unlock, got %v", got.FinalScore.FinalScore)
	}
}

func TestRecomputePeriodCountsOutcomes(t *testing.T) {
	store := newFakeStore()
	store.approved[key("a", "2024")] = []scoring.Evaluation{eval("a", scoring.KindDaily, 30, 20, 0)}
	store.approved[key("b", "2024")] = []scoring.Evaluation{eval("b", scoring.KindDaily, 20, 20, 0)}
	store.approved[key("c", "2024")] = []scoring.Evaluation{eval("c", scoring.KindDaily, 10, 20, 0)}
	store.scores[key("d", "2024")] = scoring.FinalScore{SubjectID: "d", Period: "2024", IsFinal: true}
	store.failFor = "c"
	svc := NewService(store, fakeDirectory{})

	result, err := svc.RecomputePeriod(context.Background(), "t1", "2024")
	if err == nil || !strings.Contains(err.Error(), "subject c") {
		t.Fatalf("expected joined error for subject c, got %v", err)
	}
	if result.Subjects != 4 || result.Computed != 2 || result.Locked != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRankingIsOrderedGradedAndCached(t *testing.T) {
	store := newFakeStore()
	store.scores[key("A", "2024")] = scoring.FinalScore{SubjectID: "A", Period: "2024", FinalScore: 85}
	store.scores[key("B", "2024")] = scoring.FinalScore{SubjectID: "B", Period: "2024", FinalScore: 92}
	store.scores[key("C", "2024")] = scoring.FinalScore{SubjectID: "C", Period: "2024", FinalScore: 85}
	store.scores[key("Z", "2023")] = scoring.FinalScore{SubjectID: "Z", Period: "2023", FinalScore: 99}
	cache := &memoryCache{items: map[string][]byte{}}
	svc := NewService(store, fakeDirectory{}, WithCache(cache))

	ranking, err := svc.Ranking(context.Background(), "t1", "2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		id    string
		rank  int
		grade string
	}{{"B", 1, scoring.GradeExcellent}, {"A", 2, scoring.GradeGood}, {"C", 3, scoring.GradeGood}}
	if len(ranking.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), ranking.Entries)
	}
	for i, w := range want {
		got := ranking.Entries[i]
		if got.SubjectID != w.id || got.Rank != w.rank || got.Grade != w.grade || got.Name != "Person "+w.id {
			t.Fatalf("entry %d: expected %+v, got %+v", i, w, got)
		}
	}

	if _, err := svc.Ranking(context.Background(), "t1", "2024"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("expected second ranking served from cache, hits=%d", cache.hits)
	}

	if _, err := svc.Recompute(context.Background(), "t1", "A", "2024"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.items[rankingKey("t1", "2024")]; ok {
		t.Fatalf("expected recompute to invalidate cached ranking")
	}
}

func TestFinalizeNotifiesSubject(t *testing.T) {
	store := newFakeStore()
	store.scores[key("s1", "2024")] = scoring.FinalScore{SubjectID: "s1", Period: "2024", FinalScore: 75}
	notifier := &recordingNotifier{}
	svc := NewService(store, fakeDirectory{}, WithNotifier(notifier))

	got, err := svc.Finalize(context.Background(), admin, "s1", "2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsFinal || got.Grade != scoring.GradeAverage {
		t.Fatalf("unexpected standing: %+v", got)
	}
	if len(notifier.userIDs) != 1 || notifier.userIDs[0] != "s1" {
		t.Fatalf("expected subject notified, got %v", notifier.userIDs)
	}
	if _, err := svc.Finalize(context.Background(), admin, "missing", "2024"); !errors.Is(err, ErrFinalScoreNotFound) {
		t.Fatalf("expected ErrFinalScoreNotFound, got %v", err)
	}
}

func TestGetHidesOtherSubjectsFromEmployees(t *testing.T) {
	store := newFakeStore()
	store.scores[key("s1", "2024")] = scoring.FinalScore{SubjectID: "s1", Period: "2024", FinalScore: 80}
	svc := NewService(store, fakeDirectory{})
	employee := auth.UserContext{UserID: "s2", TenantID: "t1", RoleName: auth.RoleEmployee}

	if _, err := svc.Get(context.Background(), employee, "s1", "2024"); !errors.Is(err, ErrFinalScoreNotFound) {
		t.Fatalf("expected ErrFinalScoreNotFound, got %v", err)
	}
	got, err := svc.Get(context.Background(), admin, "s1", "2024")
	if err != nil || got.Grade != scoring.GradeGood {
		t.Fatalf("unexpected standing %+v (%v)", got, err)
	}

	ranking, err := svc.Ranking(context.Background(), employee.TenantID, "2024")
	if err != nil || len(ranking.Entries) != 1 {
		t.Fatalf("expected published ranking, got %+v (%v)", ranking, err)
	}
	if ranking.Entries[0].FinalScore != 80 || ranking.Entries[0].Grade != scoring.GradeGood {
		t.Fatalf("unexpected ranking entry %+v", ranking.Entries[0])
	}
	payload, _ := json.Marshal(ranking.Entries[0])
	for _, private := range []string{"dailyAverage", "annualAverage", "dailyCount", "annualCount"} {
		if bytes.Contains(payload, []byte(private)) {
			t.Fatalf("ranking entry exposes %s: %s", private, payload)
		}
	}
}

func TestRankingReportRendersPDF(t *testing.T) {
	ranking := Ranking{
		Period:      "2024",
		GeneratedAt: time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC),
		Entries: []RankingEntry{
			{Rank: 1, SubjectID: "B", Name: "Björn", Department: "Ops", FinalScore: 92, Grade: scoring.GradeExcellent, IsFinal: true},
			{Rank: 2, SubjectID: "A", FinalScore: 85, Grade: scoring.GradeGood},
		},
	}

	var buf bytes.Buffer
	if err := WriteRankingReport(&buf, ranking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF output")
	}

	dir := t.TempDir()
	path, err := ArchiveRankingReport(dir, "t1", ranking.Period, buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if path != filepath.Join(dir, "t1", "ranking-2024.pdf") {
		t.Fatalf("unexpected path %s", path)
	}
	plain, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected archived file: %v", err)
	}
	if !bytes.Equal(plain, buf.Bytes()) {
		t.Fatal("expected archive to hold the rendered bytes")
	}

	sealedPath, err := ArchiveRankingReport(dir, "t2", ranking.Period, buf.Bytes(), xorSealer{})
	if err != nil {
		t.Fatalf("sealed archive failed: %v", err)
	}
	if sealedPath != filepath.Join(dir, "t2", "ranking-2024.pdf.enc") {
		t.Fatalf("unexpected sealed path %s", sealedPath)
	}
	raw, err := os.ReadFile(sealedPath)
	if err != nil {
		t.Fatalf("read sealed: %v", err)
	}
	if bytes.HasPrefix(raw, []byte("%PDF-")) {
		t.Fatal("expected sealed archive not to be plain PDF")
	}
}

type xorSealer struct{}

func (xorSealer) Configured() bool { return true }

func (xorSealer) Seal(plain []byte) ([]byte, error) {
	out := make([]byte, len(plain))
	for i, b := range plain {
		out[i] = b ^ 0x5a
	}
	return out, nil
}

func TestRecomputeRejectsSubjectOutsideDirectory(t *testing.T) {
	store := newFakeStore()
	observer := countingObserver{}
	svc := NewService(store, fakeDirectory{missing: map[string]bool{"ghost": true}}, WithObserver(observer))

	if _, err := svc.Recompute(context.Background(), "t1", "ghost", "2024"); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
	if len(store.scores) != 0 {
		t.Fatalf("expected no final score stored, got %+v", store.scores)
	}
	if observer[OutcomeComputed] != 0 {
		t.Fatalf("expected no computed outcome, got %v", observer)
	}
}
