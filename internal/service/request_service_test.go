package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestFixture struct {
	svc      RequestService
	requests *fakeRequestRepo
	users    *fakeUserRepo
	catalog  *fakeCatalogRepo
	mail     *fakeDispatcher
	division uuid.UUID
	agent    *model.User
	buyerID  uuid.UUID
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	division := uuid.New()
	users := newFakeUserRepo()

	agent := &model.User{ID: uuid.New(), FirstName: "Ann", LastName: "Agent", Email: "agent@example.com", Role: approval.RoleAgent, DivisionID: &division}
	lead := &model.User{ID: uuid.New(), FirstName: "Tom", LastName: "Lead", Email: "lead@example.com", Role: approval.RoleTeamLead, DivisionID: &division}
	director := &model.User{ID: uuid.New(), FirstName: "Dan", LastName: "Director", Email: "director@example.com", Role: approval.RoleSalesDirector}
	for _, u := range []*model.User{agent, lead, director} {
		users.add(u)
	}

	catalog := newFakeCatalogRepo()
	buyer := &model.Buyer{Code: "B001", Name: "Acme"}
	require.NoError(t, catalog.CreateBuyer(context.Background(), buyer))

	requests := newFakeRequestRepo()
	requests.users = users
	mail := &fakeDispatcher{}
	svc := NewRequestService(fakeTx{}, requests, users, catalog, mail, nil)

	return &requestFixture{
		svc:      svc,
		requests: requests,
		users:    users,
		catalog:  catalog,
		mail:     mail,
		division: division,
		agent:    agent,
		buyerID:  buyer.ID,
	}
}

func (fx *requestFixture) priceArticle(t *testing.T, price string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	fx.catalog.prices[id] = decimal.RequireFromString(price)
	return id
}

func strPtr(s string) *string { return &s }

func TestCreateItemsRequest(t *testing.T) {
	fx := newRequestFixture(t)
	a := fx.priceArticle(t, "10.00")
	b := fx.priceArticle(t, "27.25")

	resp, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
		BuyerID: fx.buyerID.String(),
		Reason:  "quarterly volume discount",
		Items: []RequestItemDTO{
			{ArticleID: a.String(), Quantity: 4},
			{ArticleID: b.String(), Quantity: 2, LineAmount: strPtr("50.00")},
		},
	})
	require.NoError(t, err)

	// 4 * 10.00 plus the verbatim discounted 50.00
	assert.Equal(t, "90.00", resp.Amount)
	assert.Equal(t, "team_lead", resp.RequiredRole)
	assert.Equal(t, "pending", resp.Status)
	assert.Len(t, resp.Items, 2)

	stored := fx.requests.requests[uuid.MustParse(resp.ID)]
	require.NotNil(t, stored)
	require.NotNil(t, stored.DivisionID)
	assert.Equal(t, fx.division, *stored.DivisionID)
}

func TestCreateRoutesByAmount(t *testing.T) {
	fx := newRequestFixture(t)

	testCases := []struct {
		amount string
		role   string
	}{
		{"99.00", "team_lead"},
		{"99.01", "division_manager"},
		{"199.00", "division_manager"},
		{"250.00", "sales_director"},
	}

	for _, tc := range testCases {
		t.Run(tc.amount, func(t *testing.T) {
			a := fx.priceArticle(t, tc.amount)
			resp, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
				BuyerID: fx.buyerID.String(),
				Items:   []RequestItemDTO{{ArticleID: a.String(), Quantity: 1}},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.role, resp.RequiredRole)
		})
	}
}

func TestCreateLegacyShape(t *testing.T) {
	fx := newRequestFixture(t)
	articleID := uuid.New()

	resp, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
		BuyerID:   fx.buyerID.String(),
		ArticleID: articleID.String(),
		Quantity:  3,
		Amount:    strPtr("42.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "42.00", resp.Amount)
	assert.Empty(t, resp.Items)

	stored := fx.requests.requests[uuid.MustParse(resp.ID)]
	require.NotNil(t, stored.ArticleID)
	assert.Equal(t, articleID, *stored.ArticleID)
	require.NotNil(t, stored.Quantity)
	assert.Equal(t, 3, *stored.Quantity)
}

func TestCreateValidation(t *testing.T) {
	fx := newRequestFixture(t)
	priced := fx.priceArticle(t, "10.00")
	unpriced := uuid.New()

	otherBuyer := &model.Buyer{Code: "B002", Name: "Other"}
	require.NoError(t, fx.catalog.CreateBuyer(context.Background(), otherBuyer))
	foreignSite := &model.BuyerSite{BuyerID: otherBuyer.ID, SiteCode: "S09", SiteName: "Elsewhere"}
	require.NoError(t, fx.catalog.CreateSite(context.Background(), foreignSite))

	testCases := []struct {
		name     string
		dto      CreateRequestDTO
		sentinel error
	}{
		{
			name:     "invalid buyer id",
			dto:      CreateRequestDTO{BuyerID: "not-a-uuid"},
			sentinel: apperror.ErrValidation,
		},
		{
			name:     "unknown buyer",
			dto:      CreateRequestDTO{BuyerID: uuid.New().String(), Amount: strPtr("10.00")},
			sentinel: apperror.ErrNotFound,
		},
		{
			name: "site belongs to another buyer",
			dto: CreateRequestDTO{
				BuyerID: fx.buyerID.String(),
				SiteID:  foreignSite.ID.String(),
				Amount:  strPtr("10.00"),
			},
			sentinel: apperror.ErrValidation,
		},
		{
			name: "unpriced article without line amount",
			dto: CreateRequestDTO{
				BuyerID: fx.buyerID.String(),
				Items:   []RequestItemDTO{{ArticleID: unpriced.String(), Quantity: 1}},
			},
			sentinel: apperror.ErrValidation,
		},
		{
			name: "negative quantity item",
			dto: CreateRequestDTO{
				BuyerID: fx.buyerID.String(),
				Items:   []RequestItemDTO{{ArticleID: priced.String(), Quantity: -1}},
			},
			sentinel: apperror.ErrValidation,
		},
		{
			name: "negative legacy amount",
			dto: CreateRequestDTO{
				BuyerID: fx.buyerID.String(),
				Amount:  strPtr("-5.00"),
			},
			sentinel: apperror.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), fx.agent.ID, tc.dto)
			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
	assert.Empty(t, fx.requests.requests)
}

func TestCreateNotifiesFirstTier(t *testing.T) {
	fx := newRequestFixture(t)
	a := fx.priceArticle(t, "50.00")

	_, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
		BuyerID: fx.buyerID.String(),
		Items:   []RequestItemDTO{{ArticleID: a.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	require.Len(t, fx.mail.sent, 1)
	msg := fx.mail.sent[0]
	assert.Equal(t, []string{"lead@example.com"}, msg.To)
	assert.Contains(t, msg.CC, fx.agent.Email)
	assert.Contains(t, msg.Subject, "EUR 50.00")
	assert.NotEmpty(t, msg.Attachment)
}

func TestCreateSurvivesMailFailure(t *testing.T) {
	fx := newRequestFixture(t)
	fx.mail.err = errors.New("smtp down")
	a := fx.priceArticle(t, "50.00")

	resp, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
		BuyerID: fx.buyerID.String(),
		Items:   []RequestItemDTO{{ArticleID: a.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Len(t, fx.requests.requests, 1)
	assert.Equal(t, "pending", resp.Status)
}

func TestListMineReturnsOnlyOwnRequests(t *testing.T) {
	fx := newRequestFixture(t)
	a := fx.priceArticle(t, "10.00")

	_, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
		BuyerID: fx.buyerID.String(),
		Items:   []RequestItemDTO{{ArticleID: a.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	other := &model.User{ID: uuid.New(), Email: "other@example.com", Role: approval.RoleAgent, DivisionID: &fx.division}
	fx.users.add(other)
	_, err = fx.svc.Create(context.Background(), other.ID, CreateRequestDTO{
		BuyerID: fx.buyerID.String(),
		Items:   []RequestItemDTO{{ArticleID: a.String(), Quantity: 2}},
	})
	require.NoError(t, err)

	mine, err := fx.svc.ListMine(context.Background(), fx.agent.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, fx.agent.ID.String(), mine[0].AgentID)
}

func TestRenderPDF(t *testing.T) {
	fx := newRequestFixture(t)
	a := fx.priceArticle(t, "10.00")

	resp, err := fx.svc.Create(context.Background(), fx.agent.ID, CreateRequestDTO{
		BuyerID: fx.buyerID.String(),
		Items:   []RequestItemDTO{{ArticleID: a.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	out, err := fx.svc.RenderPDF(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))

	_, err = fx.svc.RenderPDF(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
