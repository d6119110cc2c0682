package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/domain/business"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

// Businesses exposes the store as a business.Repository. Method names clash
// with the reservation repository, hence the separate type.
type Businesses struct{ s *Store }

func (s *Store) Businesses() *Businesses { return &Businesses{s: s} }

func (r *Businesses) Create(ctx context.Context, b *models.Business) error {
	return r.s.view(func(st *state) error {
		if err := ctx.Err(); err != nil {
			return httperr.Persistence("create business", err)
		}
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		for _, o := range st.businesses {
			if o.Slug == b.Slug {
				return httperr.Conflict("slug_taken", "Slug already in use.")
			}
		}
		now := r.s.now()
		b.CreatedAt, b.UpdatedAt = now, now
		st.businesses[b.ID] = copyBusiness(*b)
		return nil
	})
}

func (r *Businesses) Get(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return r.s.GetBusiness(ctx, id)
}

func (r *Businesses) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Business, error) {
	var out *models.Business
	err := r.s.view(func(st *state) error {
		for _, b := range st.businesses {
			if b.OwnerID == ownerID {
				c := copyBusiness(b)
				out = &c
				return nil
			}
		}
		return httperr.NotFound("business")
	})
	return out, err
}

func (r *Businesses) Search(ctx context.Context, f business.SearchFilter) ([]models.Business, error) {
	out := []models.Business{}
	err := r.s.view(func(st *state) error {
		if err := ctx.Err(); err != nil {
			return httperr.Persistence("search businesses", err)
		}
		q := strings.ToLower(strings.TrimSpace(f.Query))
		for _, b := range st.businesses {
			if f.Type != "" && string(b.Type) != f.Type {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.Address), q) {
				continue
			}
			c := copyBusiness(b)
			c.WorkingHours, c.SpecialDates = nil, nil
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

func (r *Businesses) UpdateProfile(ctx context.Context, b *models.Business) error {
	return r.s.view(func(st *state) error {
		cur, ok := st.businesses[b.ID]
		if !ok {
			return httperr.NotFound("business")
		}
		for id, o := range st.businesses {
			if id != b.ID && o.Slug == b.Slug {
				return httperr.Conflict("slug_taken", "Slug already in use.")
			}
		}
		next := copyBusiness(*b)
		next.WorkingHours, next.SpecialDates = cur.WorkingHours, cur.SpecialDates
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.s.now()
		st.businesses[b.ID] = next
		return nil
	})
}

func (r *Businesses) ReplaceWorkingHours(ctx context.Context, businessID uuid.UUID, hours []models.WorkingHours) error {
	return r.s.view(func(st *state) error {
		b, ok := st.businesses[businessID]
		if !ok {
			return httperr.NotFound("business")
		}
		b.WorkingHours = make([]models.WorkingHours, 0, len(hours))
		for _, h := range hours {
			h.ID = st.nextID()
			h.BusinessID = businessID
			b.WorkingHours = append(b.WorkingHours, h)
		}
		st.businesses[businessID] = b
		return nil
	})
}

func (r *Businesses) ReplaceSpecialDates(ctx context.Context, businessID uuid.UUID, dates []models.SpecialDate) error {
	return r.s.view(func(st *state) error {
		b, ok := st.businesses[businessID]
		if !ok {
			return httperr.NotFound("business")
		}
		b.SpecialDates = make([]models.SpecialDate, 0, len(dates))
		for _, d := range dates {
			d.ID = st.nextID()
			d.BusinessID = businessID
			b.SpecialDates = append(b.SpecialDates, d)
		}
		st.businesses[businessID] = b
		return nil
	})
}

var _ business.Repository = (*Businesses)(nil)
