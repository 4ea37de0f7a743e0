package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/internal/notify"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory doubles for the repository and dispatcher interfaces. They
// hold just enough behavior for the service flows under test.

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	users     map[uuid.UUID]*model.User
	approvers map[approval.Role][]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     map[uuid.UUID]*model.User{},
		approvers: map[approval.Role][]model.User{},
	}
}

func (f *fakeUserRepo) add(u *model.User) {
	f.users[u.ID] = u
	if u.Role.IsApprover() {
		f.approvers[u.Role] = append(f.approvers[u.Role], *u)
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.add(user)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, id)
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, email)
}

func (f *fakeUserRepo) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for _, u := range f.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeUserRepo) WithRole(ctx context.Context, role approval.Role, divisionID *uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range f.approvers[role] {
		if divisionID != nil && (u.DivisionID == nil || *u.DivisionID != *divisionID) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeRequestRepo struct {
	requests map[uuid.UUID]*model.Request
	actions  []model.ApprovalAction
	users    *fakeUserRepo // when set, FindByIDFull resolves Agent like the real preload
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[uuid.UUID]*model.Request{}}
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *model.Request, items []model.RequestItem) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	for i := range items {
		items[i].RequestID = req.ID
	}
	req.Items = items
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) find(id uuid.UUID) (*model.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: request %s", apperror.ErrNotFound, id)
	}
	return r, nil
}

func (f *fakeRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return f.find(id)
}

func (f *fakeRequestRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return f.find(id)
}

func (f *fakeRequestRepo) FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	r, err := f.find(id)
	if err != nil {
		return nil, err
	}
	full := *r
	if full.Agent == nil && f.users != nil {
		if u, ok := f.users.users[full.AgentID]; ok {
			full.Agent = u
		}
	}
	full.Approvals = nil
	for _, a := range f.actions {
		if a.RequestID == id {
			full.Approvals = append(full.Approvals, a)
		}
	}
	return &full, nil
}

func (f *fakeRequestRepo) UpdateState(ctx context.Context, id uuid.UUID, status approval.Status, requiredRole approval.Role) error {
	r, err := f.find(id)
	if err != nil {
		return err
	}
	r.Status = status
	r.RequiredRole = requiredRole
	return nil
}

func (f *fakeRequestRepo) AppendAction(ctx context.Context, action *model.ApprovalAction) error {
	action.ID = uuid.New()
	action.ActedAt = time.Now()
	f.actions = append(f.actions, *action)
	return nil
}

func (f *fakeRequestRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]model.Request, error) {
	var out []model.Request
	for _, r := range f.requests {
		if r.AgentID == agentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListPending(ctx context.Context, role approval.Role, divisionID *uuid.UUID) ([]model.Request, error) {
	var out []model.Request
	for _, r := range f.requests {
		if r.Status != approval.StatusPending || r.RequiredRole != role {
			continue
		}
		if divisionID != nil && (r.DivisionID == nil || *r.DivisionID != *divisionID) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRequestRepo) History(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalAction, error) {
	var out []model.ApprovalAction
	for _, a := range f.actions {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ActionsByApprover(ctx context.Context, approverID uuid.UUID) ([]model.ApprovalAction, error) {
	var out []model.ApprovalAction
	for _, a := range f.actions {
		if a.ApproverID == approverID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCatalogRepo struct {
	buyers map[uuid.UUID]bool
	sites  map[uuid.UUID]*model.BuyerSite
	prices map[uuid.UUID]decimal.Decimal
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		buyers: map[uuid.UUID]bool{},
		sites:  map[uuid.UUID]*model.BuyerSite{},
		prices: map[uuid.UUID]decimal.Decimal{},
	}
}

func (f *fakeCatalogRepo) CreateDivision(ctx context.Context, division *model.Division) error {
	return nil
}

func (f *fakeCatalogRepo) ListDivisions(ctx context.Context) ([]model.Division, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) CreateBuyer(ctx context.Context, buyer *model.Buyer) error {
	if buyer.ID == uuid.Nil {
		buyer.ID = uuid.New()
	}
	f.buyers[buyer.ID] = true
	return nil
}

func (f *fakeCatalogRepo) ListBuyers(ctx context.Context) ([]model.Buyer, error) { return nil, nil }

func (f *fakeCatalogRepo) BuyerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.buyers[id], nil
}

func (f *fakeCatalogRepo) CreateSite(ctx context.Context, site *model.BuyerSite) error {
	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}
	f.sites[site.ID] = site
	return nil
}

func (f *fakeCatalogRepo) ListSites(ctx context.Context, buyerID *uuid.UUID) ([]model.BuyerSite, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) FindSite(ctx context.Context, id uuid.UUID) (*model.BuyerSite, error) {
	s, ok := f.sites[id]
	if !ok {
		return nil, fmt.Errorf("%w: site %s", apperror.ErrNotFound, id)
	}
	return s, nil
}

func (f *fakeCatalogRepo) CreateArticle(ctx context.Context, article *model.Article) error {
	return nil
}

func (f *fakeCatalogRepo) ListArticles(ctx context.Context) ([]model.Article, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) PricesForArticles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := map[uuid.UUID]decimal.Decimal{}
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	sent []notify.Message
	err  error
}

func (f *fakeDispatcher) Send(ctx context.Context, msg notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}
