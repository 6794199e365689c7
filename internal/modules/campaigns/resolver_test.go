package campaigns

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/testutil"
)

func newTestResolver(t *testing.T) (*Resolver, *Repo) {
	t.Helper()
	db := testutil.OpenDB(t, &Campaign{})
	repo := NewRepo(db, 5*time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(repo, logger), repo
}

func countBySlug(t *testing.T, repo *Repo, s string) int64 {
	t.Helper()
	var n int64
	if err := repo.db.Model(&Campaign{}).Where("slug = ?", s).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestResolve_ReservedSlugCreatedOnce(t *testing.T) {
	ctx := context.Background()
	r, repo := newTestResolver(t)

	for slugName := range systemCampaigns {
		first, err := r.Resolve(ctx, ResolveInput{Slug: slugName})
		if err != nil || first == nil {
			t.Fatalf("Resolve(%s) = %v, %v", slugName, first, err)
		}
		if !first.IsSystem() || first.Status != StatusPublished || first.TargetAmount != 0 || first.CurrentAmount != 0 {
			t.Errorf("system campaign %s has unexpected fields: %+v", slugName, first)
		}

		second, err := r.Resolve(ctx, ResolveInput{Slug: slugName})
		if err != nil || second == nil {
			t.Fatalf("second Resolve(%s) = %v, %v", slugName, second, err)
		}
		if second.ID != first.ID {
			t.Errorf("second resolve returned %s, want %s", second.ID, first.ID)
		}
		if n := countBySlug(t, repo, slugName); n != 1 {
			t.Errorf("slug %s has %d rows, want 1", slugName, n)
		}
	}
}

func TestResolve_UnknownSlugYieldsNil(t *testing.T) {
	r, repo := newTestResolver(t)

	c, err := r.Resolve(context.Background(), ResolveInput{Slug: "totally-unknown"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c != nil {
		t.Fatalf("Resolve() = %+v, want nil", c)
	}
	if n := countBySlug(t, repo, "totally-unknown"); n != 0 {
		t.Errorf("unknown slug created %d rows", n)
	}
}

func TestResolve_RequireTurnsNilIntoError(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.Resolve(context.Background(), ResolveInput{Slug: "totally-unknown", Require: true})
	if !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrCampaignNotFound", err)
	}
}

func TestResolve_IDWinsOverSlug(t *testing.T) {
	ctx := context.Background()
	r, repo := newTestResolver(t)

	owner := "user-1"
	c := Campaign{Slug: "sumur-wakaf", Title: "Sumur Wakaf", Category: "wakaf", Status: StatusPublished, UserID: &owner}
	if err := repo.Create(ctx, &c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := r.Resolve(ctx, ResolveInput{ID: c.ID, Slug: "infaq"})
	if err != nil || got == nil || got.ID != c.ID {
		t.Fatalf("Resolve() = %+v, %v; want campaign %s", got, err, c.ID)
	}
	if n := countBySlug(t, repo, "infaq"); n != 0 {
		t.Error("slug fallback should not run when the id matches")
	}
}

func TestResolve_MissingIDFallsThroughToSlug(t *testing.T) {
	r, _ := newTestResolver(t)

	got, err := r.Resolve(context.Background(), ResolveInput{ID: "does-not-exist", Slug: "Fidyah"})
	if err != nil || got == nil {
		t.Fatalf("Resolve() = %+v, %v", got, err)
	}
	if got.Slug != "fidyah" || got.Title != "Fidyah" {
		t.Errorf("got %+v, want the fidyah system campaign", got)
	}
}

func TestResolve_NothingGiven(t *testing.T) {
	r, _ := newTestResolver(t)

	got, err := r.Resolve(context.Background(), ResolveInput{})
	if err != nil || got != nil {
		t.Fatalf("Resolve() = %+v, %v; want nil, nil", got, err)
	}
}

type failingStore struct {
	created int
	rows    map[string]Campaign
	err     error
}

func (f *failingStore) FindByID(ctx context.Context, id string) (Campaign, error) {
	return Campaign{}, ErrNotFound
}

func (f *failingStore) FindBySlug(ctx context.Context, s string) (Campaign, error) {
	if c, ok := f.rows[s]; ok {
		return c, nil
	}
	return Campaign{}, ErrNotFound
}

func (f *failingStore) Create(ctx context.Context, c *Campaign) error {
	f.created++
	return f.err
}

func TestResolve_InsertFailureDegradesToNil(t *testing.T) {
	fs := &failingStore{err: errors.New("db down")}
	r := NewResolver(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := r.Resolve(context.Background(), ResolveInput{Slug: "zakat"})
	if err != nil || got != nil {
		t.Fatalf("Resolve() = %+v, %v; want nil, nil", got, err)
	}
	if fs.created != 1 {
		t.Errorf("Create called %d times, want 1", fs.created)
	}
}

func TestResolve_DuplicateInsertReReads(t *testing.T) {
	fs := &failingStore{err: ErrDuplicateSlug, rows: map[string]Campaign{}}
	rs := &raceStore{failingStore: fs, after: Campaign{ID: "winner", Slug: "wakaf"}}
	r := NewResolver(rs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := r.Resolve(context.Background(), ResolveInput{Slug: "wakaf"})
	if err != nil || got == nil || got.ID != "winner" {
		t.Fatalf("Resolve() = %+v, %v; want the winner row", got, err)
	}
}

// raceStore makes a concurrent winner's row visible just as our insert fails.
type raceStore struct {
	*failingStore
	after Campaign
}

func (r *raceStore) Create(ctx context.Context, c *Campaign) error {
	r.rows[r.after.Slug] = r.after
	return r.failingStore.Create(ctx, c)
}

func TestIsReserved(t *testing.T) {
	for _, s := range []string{"infaq", "FIDYAH", "sedekah subuh", "zakat", "wakaf"} {
		if !IsReserved(s) {
			t.Errorf("IsReserved(%q) = false", s)
		}
	}
	if IsReserved("totally-unknown") {
		t.Error("IsReserved(totally-unknown) = true")
	}
}

func TestRepo_StatementsCarryDeadline(t *testing.T) {
	db := testutil.OpenDB(t, &Campaign{})

	var total, bounded int
	record := func(tx *gorm.DB) {
		total++
		if _, ok := tx.Statement.Context.Deadline(); ok {
			bounded++
		}
	}
	if err := db.Callback().Query().Before("gorm:query").Register("test:deadline_query", record); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Create().Before("gorm:create").Register("test:deadline_create", record); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(NewRepo(db, time.Second), slog.New(slog.NewTextHandler(io.Discard, nil)))
	got, err := r.Resolve(context.Background(), ResolveInput{ID: "nope", Slug: "infaq"})
	if err != nil || got == nil {
		t.Fatalf("Resolve() = %+v, %v", got, err)
	}
	if total != 3 || bounded != total {
		t.Errorf("%d of %d campaign statements had a deadline, want 3 of 3", bounded, total)
	}
}
