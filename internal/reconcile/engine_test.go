package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fieldcrew/crewsync/internal/credstore"
	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/remote"
)

// fakeBackend implementa remote.Client para los tests del engine.
type fakeBackend struct {
	mu          sync.Mutex
	syncCalls   int
	lastSubmit  []model.EnrollmentSnapshot
	syncErr     error
	teamErrs    map[string]error // por código de equipo
	teamCalls   int
	syncResult  model.ReconciliationResult
	tokensByTen map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		teamErrs:    make(map[string]error),
		syncResult:  model.ReconciliationResult{Synced: true, RevokedCount: 1, TeamsRemovedCount: 2},
		tokensByTen: make(map[string]string),
	}
}

func (f *fakeBackend) FetchShiftList(ctx context.Context, tok remote.TenantToken, win remote.FetchWindow) ([]model.ShiftRecord, error) {
	return nil, nil
}
func (f *fakeBackend) AddVolunteer(ctx context.Context, tok remote.TenantToken, recordID, name string) (*model.ShiftRecord, error) {
	return nil, nil
}
func (f *fakeBackend) RemoveVolunteer(ctx context.Context, tok remote.TenantToken, recordID, name string) (*model.ShiftRecord, error) {
	return nil, nil
}
func (f *fakeBackend) FetchLeaderboard(ctx context.Context, tok remote.TenantToken, period model.Period, teamID string) (*model.LeaderboardPayload, error) {
	return nil, nil
}
func (f *fakeBackend) FetchGlobalLeaderboard(ctx context.Context, tok remote.TenantToken, period model.Period, teamID string) (*model.GlobalLeaderboardPayload, error) {
	return nil, nil
}

func (f *fakeBackend) FetchTeamMeta(ctx context.Context, tok remote.TenantToken, code string) (*model.TeamMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teamCalls++
	f.tokensByTen[tok.TenantID] = tok.Value
	if err := f.teamErrs[code]; err != nil {
		return nil, err
	}
	return &model.TeamMeta{Code: code, Name: "Equipo " + code, TenantID: tok.TenantID}, nil
}

func (f *fakeBackend) SubmitEnrollmentSync(ctx context.Context, hardwareID string, snapshots []model.EnrollmentSnapshot) (*model.ReconciliationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	f.lastSubmit = snapshots
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	r := f.syncResult
	return &r, nil
}

var _ remote.Client = (*fakeBackend)(nil)

func engineWith(t *testing.T, backend *fakeBackend, tenants ...model.TenantCredential) (*Engine, *credstore.Store) {
	t.Helper()
	creds, err := credstore.New()
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range tenants {
		if err := creds.Upsert(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}
	return New(creds, backend, NewTeamDirectory(backend), time.Hour), creds
}

func enrolled(tenant string, status model.CredentialStatus, teams ...string) model.TenantCredential {
	return model.TenantCredential{
		TenantID:  tenant,
		Role:      model.RoleMember,
		TeamCodes: teams,
		AuthToken: "tok-" + tenant,
		Status:    status,
	}
}

func TestSync_SubmitsActiveSnapshotsOnly(t *testing.T) {
	backend := newFakeBackend()
	e, _ := engineWith(t, backend,
		enrolled("demo", model.StatusActive, "F1", "F2"),
		enrolled("viejo", model.StatusSeasonEnded, "X1"),
	)

	rep := e.Sync(context.Background(), "hw-abc")
	if rep.Outcome != OutcomeSynced {
		t.Fatalf("outcome = %s (%v)", rep.Outcome, rep.Err)
	}
	if backend.syncCalls != 1 {
		t.Fatalf("syncCalls = %d", backend.syncCalls)
	}
	if len(backend.lastSubmit) != 1 || backend.lastSubmit[0].TenantID != "demo" {
		t.Fatalf("submitted snapshots: %+v", backend.lastSubmit)
	}
	if backend.lastSubmit[0].HardwareID != "hw-abc" {
		t.Fatalf("snapshot hardware id: %q", backend.lastSubmit[0].HardwareID)
	}
	if rep.Result.RevokedCount != 1 || rep.Result.TeamsRemovedCount != 2 {
		t.Fatalf("cleanup summary lost: %+v", rep.Result)
	}
}

func TestSync_ThrottleIsPerHardwareAndReturnsPrevious(t *testing.T) {
	backend := newFakeBackend()
	e, _ := engineWith(t, backend, enrolled("demo", model.StatusActive, "F1"))

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	e.nowFunc = func() time.Time { return now }

	first := e.Sync(context.Background(), "hw-abc")
	if first.Outcome != OutcomeSynced {
		t.Fatalf("first: %s", first.Outcome)
	}

	// 10 minutos después: no-op con el resultado anterior, sin red
	now = now.Add(10 * time.Minute)
	second := e.Sync(context.Background(), "hw-abc")
	if second.Outcome != OutcomeThrottled {
		t.Fatalf("second: %s", second.Outcome)
	}
	if second.Result != first.Result {
		t.Fatalf("throttled result changed: %+v vs %+v", second.Result, first.Result)
	}
	if backend.syncCalls != 1 {
		t.Fatalf("network exchanges = %d, want exactly 1", backend.syncCalls)
	}

	// otro hardware id no comparte el throttle
	third := e.Sync(context.Background(), "hw-otra")
	if third.Outcome != OutcomeSynced || backend.syncCalls != 2 {
		t.Fatalf("per-hardware throttle leaked: %s calls=%d", third.Outcome, backend.syncCalls)
	}

	// pasada la ventana se vuelve a sincronizar
	now = now.Add(time.Hour)
	fourth := e.Sync(context.Background(), "hw-abc")
	if fourth.Outcome != OutcomeSynced || backend.syncCalls != 3 {
		t.Fatalf("throttle never expired: %s calls=%d", fourth.Outcome, backend.syncCalls)
	}
}

func TestSync_SkippedWhenTeamMappingFails(t *testing.T) {
	backend := newFakeBackend()
	backend.teamErrs["F2"] = &remote.APIError{Kind: remote.ErrServerError, Status: 500}
	e, _ := engineWith(t, backend, enrolled("demo", model.StatusActive, "F1", "F2"))

	rep := e.Sync(context.Background(), "hw-abc")
	if rep.Outcome != OutcomeSkipped {
		t.Fatalf("outcome = %s, want skipped (not failed)", rep.Outcome)
	}
	if rep.Err == nil {
		t.Fatal("skipped report should carry the mapping error")
	}
	// todo-o-nada: no se mandó nada, ni siquiera el tenant sano
	if backend.syncCalls != 0 {
		t.Fatalf("partial sync was sent: %d calls", backend.syncCalls)
	}
}

func TestSync_FailureDoesNotAdvanceThrottle(t *testing.T) {
	backend := newFakeBackend()
	backend.syncErr = &remote.APIError{Kind: remote.ErrNetworkUnavailable}
	e, creds := engineWith(t, backend, enrolled("demo", model.StatusActive, "F1"))

	rep := e.Sync(context.Background(), "hw-abc")
	if rep.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s", rep.Outcome)
	}

	// ningún estado local mutado
	c, _ := creds.Get("demo")
	if c.Status != model.StatusActive {
		t.Fatalf("credential mutated on failure: %q", c.Status)
	}

	// el próximo trigger reintenta de inmediato (el timer no avanzó)
	backend.syncErr = nil
	rep = e.Sync(context.Background(), "hw-abc")
	if rep.Outcome != OutcomeSynced {
		t.Fatalf("retry after failure: %s", rep.Outcome)
	}
	if backend.syncCalls != 2 {
		t.Fatalf("syncCalls = %d", backend.syncCalls)
	}
}

func TestSync_SuccessDoesNotMutateCredentialsFromCleanup(t *testing.T) {
	backend := newFakeBackend()
	backend.syncResult = model.ReconciliationResult{Synced: true, RevokedCount: 1}
	e, creds := engineWith(t, backend, enrolled("demo", model.StatusActive, "F1"))

	rep := e.Sync(context.Background(), "hw-abc")
	if rep.Outcome != OutcomeSynced {
		t.Fatalf("outcome = %s", rep.Outcome)
	}
	// el cleanup summary es señal del server; el estado local lo cambian
	// los 401 de las llamadas comunes, no esta respuesta
	c, _ := creds.Get("demo")
	if c.Status != model.StatusActive {
		t.Fatalf("cleanup summary mutated local state: %q", c.Status)
	}
}

func TestTeamDirectory_CachesPerSession(t *testing.T) {
	backend := newFakeBackend()
	e, _ := engineWith(t, backend, enrolled("demo", model.StatusActive, "F1"))

	_ = e.Sync(context.Background(), "hw-abc")
	calls := backend.teamCalls

	// segunda reconciliación (otro hardware para esquivar el throttle):
	// el mapeo ya está resuelto en la sesión, no se repite el fetch
	_ = e.Sync(context.Background(), "hw-otra")
	if backend.teamCalls != calls {
		t.Fatalf("team metadata refetched: %d -> %d", calls, backend.teamCalls)
	}
}

func TestTeamDirectory_UsesTenantBoundToken(t *testing.T) {
	backend := newFakeBackend()
	e, _ := engineWith(t, backend,
		enrolled("a", model.StatusActive, "A1"),
		enrolled("b", model.StatusActive, "B1"),
	)

	_ = e.Sync(context.Background(), "hw-abc")
	if backend.tokensByTen["a"] != "tok-a" || backend.tokensByTen["b"] != "tok-b" {
		t.Fatalf("foreign tokens used: %+v", backend.tokensByTen)
	}
}
