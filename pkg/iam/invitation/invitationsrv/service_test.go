package invitationsrv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/access"
	"github.com/Abraxas-365/propcore/pkg/iam/auth"
	"github.com/Abraxas-365/propcore/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/propcore/pkg/iam/iammemory"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "Sup3r-secret"

var device = session.Device{UserAgent: "test", IPAddress: "127.0.0.1"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []invitation.Event
	err    error
}

func (p *recordingPublisher) PublishInviteCreated(_ context.Context, ev invitation.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	store     *iammemory.Store
	svc       *invitationsrv.Service
	deps      invitationsrv.Deps
	publisher *recordingPublisher
	issuer    *token.Issuer
	acme      *org.Organization
	elm       *org.Property
	admin     *user.User
	actor     *kernel.AuthContext
}

func setup(t *testing.T) *fixture {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.NoError(t, err)

	store := iammemory.New()
	ids := identity.NewResolver(store.Lookup())
	pub := &recordingPublisher{}
	deps := invitationsrv.Deps{
		Invites:     store.Invites(),
		Users:       store.Users(),
		Orgs:        store.Organizations(),
		Properties:  store.Properties(),
		Memberships: store.Memberships(),
		IDs:         ids,
		Access:      access.NewResolver(ids, store.Properties(), store.Memberships()),
		Tx:          store,
		Passwords:   authinfra.NewBcryptPasswordService(bcrypt.MinCost),
		Sessions:    session.NewManager(issuer, ids, store.Sessions(), session.NewHasher("s")),
		Publisher:   pub,
		Audit:       authinfra.NewLogxAuditService(),
	}

	sd := store.Seed()
	f := &fixture{store: store, deps: deps, publisher: pub, issuer: issuer}
	f.acme = sd.Organization("Acme")
	f.elm = sd.Property(f.acme, "Elm")
	f.admin = sd.User(kernel.UserTypeOrgAdmin, "admin@acme.io", "x")
	sd.OrgAdmin(f.admin, f.acme)
	f.actor = &kernel.AuthContext{UserID: f.admin.ID, UserType: f.admin.UserType, OrganizationID: &f.acme.ID}
	f.svc = invitationsrv.NewService(deps)
	return f
}

func (f *fixture) staffInvite(email string) invitation.CreateRequest {
	return invitation.CreateRequest{
		Role:            kernel.UserTypeStaff,
		Email:           email,
		PropertyID:      &f.elm.ID,
		MaintenanceRole: ptrx.To(kernel.MaintenanceManager),
	}
}

func TestCreateInvite(t *testing.T) {
	f := setup(t)
	created, err := f.svc.CreateInvite(context.Background(), f.actor, f.staffInvite("Bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	assert.Len(t, created.Token, 43)
	assert.Equal(t, "bob@acme.io", *created.Email)
	require.NotNil(t, created.Property)
	assert.Equal(t, f.elm.ID, created.Property.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), created.ExpiresAt, time.Minute)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, created.Token, ev.Token)
	assert.True(t, ev.SendEmail)
	assert.False(t, ev.SendSMS)
	assert.Equal(t, f.admin.Name, ev.InviterName)
	assert.Equal(t, "Elm", ev.PropertyName)
}

func TestCreateInvite_TenantWithoutProperty(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateInvite(context.Background(), f.actor,
		invitation.CreateRequest{Role: kernel.UserTypeTenant, Email: "t@acme.io"}, invitation.DefaultDelivery())
	assert.True(t, errx.IsCode(err, invitation.ErrPropertyRequired))
	assert.Empty(t, f.publisher.events)
}

func TestCreateInvite_Conflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	_, err = f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	assert.True(t, errx.IsCode(err, invitation.ErrPendingExists))

	_, err = f.svc.CreateInvite(ctx, f.actor, f.staffInvite("admin@acme.io"), invitation.DefaultDelivery())
	assert.True(t, errx.IsCode(err, invitation.ErrContactTaken))
}

func TestCreateInvite_ConcurrentSameContact(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errx.IsCode(err, invitation.ErrPendingExists), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created)

	pending, err := f.store.Invites().ListPending(ctx, f.acme.PK, time.Now())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCreateInvite_ForeignProperty(t *testing.T) {
	f := setup(t)
	sd := f.store.Seed()
	other := sd.Property(sd.Organization("Globex"), "Oak")

	req := f.staffInvite("bob@acme.io")
	req.PropertyID = &other.ID
	_, err := f.svc.CreateInvite(context.Background(), f.actor, req, invitation.DefaultDelivery())
	assert.True(t, errx.IsCode(err, identity.ErrNotFound))
}

func TestCreateInvite_OnlyOrgAdmins(t *testing.T) {
	f := setup(t)
	sd := f.store.Seed()
	staff := sd.User(kernel.UserTypeStaff, "staff@acme.io", "x")
	sd.Staff(staff, f.elm, kernel.MaintenanceManager)
	actor := &kernel.AuthContext{UserID: staff.ID, UserType: staff.UserType, OrganizationID: &f.acme.ID}

	_, err := f.svc.CreateInvite(context.Background(), actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	assert.True(t, errx.IsCode(err, access.ErrForbidden))

	_, err = f.svc.CreateInvite(context.Background(),
		&kernel.AuthContext{UserID: f.admin.ID, UserType: f.admin.UserType}, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	assert.True(t, errx.IsCode(err, invitation.ErrOrganizationScope))
}

func TestCreateInvite_PublishFailureDoesNotFail(t *testing.T) {
	f := setup(t)
	f.publisher.err = errors.New("queue down")

	_, err := f.svc.CreateInvite(context.Background(), f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)
}

func TestCreateInvite_SuppressedDelivery(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateInvite(context.Background(), f.actor, f.staffInvite("bob@acme.io"), invitation.Delivery{})
	require.NoError(t, err)
	assert.Empty(t, f.publisher.events)
}

func TestAcceptInvite_StaffEndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	details, err := f.svc.GetInviteDetails(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, details.ID)

	res, err := f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	require.NoError(t, err)
	assert.Equal(t, kernel.UserTypeStaff, res.Profile.User.UserType)
	require.NotNil(t, res.Tokens.Claims.PropertyID)
	assert.Equal(t, f.elm.ID, *res.Tokens.Claims.PropertyID)
	assert.Equal(t, f.acme.ID, *res.Tokens.Claims.OrganizationID)

	link, err := f.store.Memberships().FindStaff(ctx, res.Profile.User.PK, f.elm.PK)
	require.NoError(t, err)
	assert.Equal(t, kernel.MaintenanceManager, link.Role)

	claims, err := f.issuer.Verify(res.Tokens.AccessToken, token.Access)
	require.NoError(t, err)
	assert.Equal(t, f.elm.ID, *claims.PropertyID)
	assert.Equal(t, 1, f.store.SessionCount(res.Profile.User.PK))
}

func TestAcceptInvite_Twice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	assert.True(t, errx.IsCode(err, invitation.ErrAlreadyAccepted))
	_, err = f.svc.GetInviteDetails(ctx, created.Token)
	assert.True(t, errx.IsCode(err, invitation.ErrAlreadyAccepted))
}

func TestAcceptInvite_ConcurrentOnlyOneWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	const n = 8
	results := make([]*auth.Result, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
		}(i)
	}
	wg.Wait()

	var winner *auth.Result
	for i := 0; i < n; i++ {
		if errs[i] == nil {
			require.Nil(t, winner, "more than one accept succeeded")
			winner = results[i]
			continue
		}
		assert.True(t, errx.IsCode(errs[i], invitation.ErrAlreadyAccepted), "unexpected error: %v", errs[i])
	}
	require.NotNil(t, winner)

	u, err := f.store.Users().FindByContact(ctx, user.NormalizeContact("bob@acme.io", ""))
	require.NoError(t, err)
	assert.Equal(t, winner.Profile.User.PK, u.PK)
	links, err := f.store.Memberships().ListStaff(ctx, u.PK)
	require.NoError(t, err)
	assert.Len(t, links, 1)
	assert.Equal(t, 1, f.store.SessionCount(u.PK))
}

func TestAcceptInvite_ContactRegisteredMeanwhile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)
	f.store.Seed().User(kernel.UserTypeTenant, "bob@acme.io", "x")

	_, err = f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	assert.True(t, errx.IsCode(err, invitation.ErrContactTaken))
}

func TestAcceptInvite_AfterSevenDays(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	later := invitationsrv.NewService(f.deps, invitationsrv.WithClock(func() time.Time {
		return time.Now().Add(7*24*time.Hour + time.Minute)
	}))
	_, err = later.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	assert.True(t, errx.IsCode(err, invitation.ErrExpired))
	assert.Equal(t, 410, errx.ToResponse(err).Status)
}

func TestAcceptInvite_UnknownToken(t *testing.T) {
	f := setup(t)
	_, err := f.svc.AcceptInvite(context.Background(), "nope", invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	assert.True(t, errx.IsCode(err, invitation.ErrNotFound))
}

func TestAcceptInvite_WeakPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: "short"}, device)
	assert.True(t, errx.IsCode(err, auth.ErrWeakPassword))
}

func TestAcceptInvite_TenantUnitFromPayload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, invitation.CreateRequest{
		Role:       kernel.UserTypeTenant,
		Phone:      "+15550001",
		PropertyID: &f.elm.ID,
		UnitNumber: ptrx.To("1A"),
	}, invitation.DefaultDelivery())
	require.NoError(t, err)
	assert.True(t, f.publisher.events[0].SendSMS)

	res, err := f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Tia", Password: password, UnitNumber: ptrx.To("2B")}, device)
	require.NoError(t, err)

	link, err := f.store.Memberships().FindTenancy(ctx, res.Profile.User.PK, f.elm.PK)
	require.NoError(t, err)
	assert.Equal(t, "2B", *link.UnitNumber)
}

type failingMemberships struct {
	org.MembershipRepository
}

func (failingMemberships) CreateStaff(context.Context, *org.PropertyStaff) error {
	return errors.New("boom")
}

func TestAcceptInvite_RollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)

	deps := f.deps
	deps.Memberships = failingMemberships{f.store.Memberships()}
	broken := invitationsrv.NewService(deps)
	_, err = broken.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	require.Error(t, err)

	exists, err := f.store.Users().ExistsByContact(ctx, user.NormalizeContact("bob@acme.io", ""))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.AcceptInvite(ctx, created.Token, invitation.AcceptRequest{Name: "Bob", Password: password}, device)
	require.NoError(t, err)
}

func TestListAndRevoke(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first, err := f.svc.CreateInvite(ctx, f.actor, f.staffInvite("bob@acme.io"), invitation.DefaultDelivery())
	require.NoError(t, err)
	_, err = f.svc.CreateInvite(ctx, f.actor, invitation.CreateRequest{Role: kernel.UserTypeOrgAdmin, Email: "ann@acme.io"}, invitation.DefaultDelivery())
	require.NoError(t, err)

	pending, err := f.svc.ListPending(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	require.NoError(t, f.svc.RevokeInvite(ctx, f.actor, first.ID))
	err = f.svc.RevokeInvite(ctx, f.actor, first.ID)
	assert.True(t, errx.IsCode(err, invitation.ErrNotFound))

	pending, err = f.svc.ListPending(ctx, f.actor)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.svc.GetInviteDetails(ctx, first.Token)
	assert.True(t, errx.IsCode(err, invitation.ErrNotFound))
}
