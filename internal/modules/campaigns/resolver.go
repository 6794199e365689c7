package campaigns

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anggiadiputra/donasiku-sub000/internal/shared/slug"
)

// ErrCampaignNotFound is only returned when the caller demands a linked campaign.
var ErrCampaignNotFound = errors.New("campaign could not be resolved")

type systemCampaign struct {
	Title    string
	Category string
}

// Reserved slugs map to ownerless campaigns created on first use.
var systemCampaigns = map[string]systemCampaign{
	"infaq":         {Title: "Infaq", Category: "infaq"},
	"fidyah":        {Title: "Fidyah", Category: "fidyah"},
	"zakat":         {Title: "Zakat", Category: "zakat"},
	"wakaf":         {Title: "Wakaf", Category: "wakaf"},
	"sedekah-subuh": {Title: "Sedekah Subuh", Category: "sedekah"},
}

// IsReserved reports whether slug names a system campaign.
func IsReserved(s string) bool {
	_, ok := systemCampaigns[slug.Normalize(s)]
	return ok
}

type store interface {
	FindByID(ctx context.Context, id string) (Campaign, error)
	FindBySlug(ctx context.Context, slug string) (Campaign, error)
	Create(ctx context.Context, c *Campaign) error
}

type Resolver struct {
	repo   store
	logger *slog.Logger
}

func NewResolver(repo store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

type ResolveInput struct {
	ID      string
	Slug    string
	Require bool // true => a nil result becomes ErrCampaignNotFound
}

// Resolve maps a client campaign reference to a row. Lookup problems never block a
// payment: they degrade to a nil campaign unless Require is set.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*Campaign, error) {
	c := r.resolve(ctx, strings.TrimSpace(in.ID), slug.Normalize(in.Slug))
	if c == nil && in.Require {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (r *Resolver) resolve(ctx context.Context, id, s string) *Campaign {
	if id != "" {
		c, err := r.repo.FindByID(ctx, id)
		if err == nil {
			return &c
		}
		if !errors.Is(err, ErrNotFound) {
			r.logger.WarnContext(ctx, "campaign lookup by id failed", "campaign_id", id, "err", err)
		}
	}

	if s == "" {
		return nil
	}

	c, err := r.repo.FindBySlug(ctx, s)
	if err == nil {
		return &c
	}
	if !errors.Is(err, ErrNotFound) {
		r.logger.WarnContext(ctx, "campaign lookup by slug failed", "slug", s, "err", err)
		return nil
	}

	def, ok := systemCampaigns[s]
	if !ok {
		return nil
	}
	return r.createSystem(ctx, s, def)
}

func (r *Resolver) createSystem(ctx context.Context, s string, def systemCampaign) *Campaign {
	c := Campaign{
		Slug:          s,
		Title:         def.Title,
		Category:      def.Category,
		TargetAmount:  0,
		CurrentAmount: 0,
		Status:        StatusPublished,
		UserID:        nil,
	}
	err := r.repo.Create(ctx, &c)
	if err == nil {
		r.logger.InfoContext(ctx, "system campaign created", "slug", s, "campaign_id", c.ID)
		return &c
	}

	// lost a race with a concurrent first use: the winner's row is the campaign
	if errors.Is(err, ErrDuplicateSlug) {
		existing, ferr := r.repo.FindBySlug(ctx, s)
		if ferr == nil {
			return &existing
		}
		err = ferr
	}

	r.logger.ErrorContext(ctx, "system campaign insert failed", "slug", s, "err", err)
	return nil
}
