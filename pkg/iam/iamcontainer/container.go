package iamcontainer

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/asyncx"
	"github.com/Abraxas-365/propcore/pkg/config"
	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/access"
	"github.com/Abraxas-365/propcore/pkg/iam/access/accessapi"
	"github.com/Abraxas-365/propcore/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/propcore/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/propcore/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/propcore/pkg/iam/iammemory"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/identity/identityinfra"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation/invitationapi"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation/invitationinfra"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/org/orginfra"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/propcore/pkg/jobx"
	"github.com/Abraxas-365/propcore/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/Abraxas-365/propcore/pkg/notifx"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Deps are the external resources the IAM module needs. DB is nil when the
// memory store is selected and Redis is nil when it is not configured.
type Deps struct {
	Cfg      *config.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notifx.Client
}

type repositories struct {
	users       user.Repository
	orgs        org.OrganizationRepository
	properties  org.PropertyRepository
	memberships org.MembershipRepository
	sessions    session.Repository
	invites     invitation.Repository
	lookup      identity.Lookup
	tx          dbx.Transactor
}

// Container is the public surface of the IAM module.
type Container struct {
	Issuer   *token.Issuer
	Resolver *access.Resolver
	Sessions *session.Manager

	AuthService   *authsrv.Service
	InviteService *invitationsrv.Service

	Middleware     *accessapi.Middleware
	AuthHandlers   *authapi.Handlers
	InviteHandlers *invitationapi.Handlers
	AccessHandlers *accessapi.Handlers

	worker  *jobx.Worker
	sweeper *sessioninfra.Sweeper
	tasks   *asyncx.Group
	done    chan struct{}
}

// New builds the IAM dependency graph: repositories, services, handlers.
func New(ctx context.Context, deps Deps) (*Container, error) {
	logx.Info("Initializing IAM container...")
	cfg := deps.Cfg
	c := &Container{done: make(chan struct{})}

	repos, err := newRepositories(deps)
	if err != nil {
		return nil, err
	}
	ids := identity.NewResolver(repos.lookup)

	c.Issuer, err = token.NewIssuer(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, err
	}

	c.Resolver = access.NewResolver(ids, repos.properties, repos.memberships)
	c.Sessions = session.NewManager(c.Issuer, ids, repos.sessions, session.NewHasher(cfg.Auth.SessionSecret))
	passwords := authinfra.NewBcryptPasswordService(cfg.Auth.BcryptCost)
	audit := authinfra.NewLogxAuditService()

	c.AuthService, err = authsrv.NewService(authsrv.Deps{
		Users:       repos.users,
		Orgs:        repos.orgs,
		Properties:  repos.properties,
		Memberships: repos.memberships,
		IDs:         ids,
		Tx:          repos.tx,
		Passwords:   passwords,
		Sessions:    c.Sessions,
		Audit:       audit,
	})
	if err != nil {
		return nil, err
	}

	publisher, err := c.newPublisher(deps)
	if err != nil {
		return nil, err
	}

	c.InviteService = invitationsrv.NewService(invitationsrv.Deps{
		Invites:     repos.invites,
		Users:       repos.users,
		Orgs:        repos.orgs,
		Properties:  repos.properties,
		Memberships: repos.memberships,
		IDs:         ids,
		Access:      c.Resolver,
		Tx:          repos.tx,
		Passwords:   passwords,
		Sessions:    c.Sessions,
		Publisher:   publisher,
		Audit:       audit,
		TTL:         cfg.Invite.TTL,
	})

	c.sweeper, err = sessioninfra.NewSweeper(ctx, cfg.Session.SweepInterval,
		sessioninfra.SweepJob{Name: "expired-sessions", Run: c.Sessions.Sweep},
		sessioninfra.SweepJob{Name: "expired-invites", Run: func(ctx context.Context) (int64, error) {
			return repos.invites.CountExpiredPending(ctx, time.Now())
		}},
	)
	if err != nil {
		return nil, err
	}

	cookie := authapi.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	c.Middleware = accessapi.NewMiddleware(c.Issuer, c.Resolver)
	c.AuthHandlers = authapi.NewHandlers(c.AuthService, c.Middleware, cookie)
	c.InviteHandlers = invitationapi.NewHandlers(c.InviteService, c.Middleware, cookie)
	c.AccessHandlers = accessapi.NewHandlers(c.Middleware)

	logx.Info("IAM container initialized")
	return c, nil
}

func newRepositories(deps Deps) (*repositories, error) {
	switch deps.Cfg.Store.Driver {
	case "memory":
		logx.Warn("Using the in-memory identity store; data is lost on restart")
		store := iammemory.New()
		return &repositories{
			users:       store.Users(),
			orgs:        store.Organizations(),
			properties:  store.Properties(),
			memberships: store.Memberships(),
			sessions:    store.Sessions(),
			invites:     store.Invites(),
			lookup:      store.Lookup(),
			tx:          store,
		}, nil

	case "postgres":
		if deps.DB == nil {
			return nil, errx.Internal("postgres store selected without a database")
		}
		var lookup identity.Lookup = identityinfra.NewPostgresLookup(deps.DB)
		if deps.Redis != nil {
			lookup = identityinfra.NewRedisCache(lookup, deps.Redis, deps.Cfg.Redis.CacheTTL)
			logx.Info("  Identity lookups cached in Redis")
		}
		return &repositories{
			users:       userinfra.NewPostgresUserRepository(deps.DB),
			orgs:        orginfra.NewPostgresOrganizationRepository(deps.DB),
			properties:  orginfra.NewPostgresPropertyRepository(deps.DB),
			memberships: orginfra.NewPostgresMembershipRepository(deps.DB),
			sessions:    sessioninfra.NewPostgresSessionRepository(deps.DB),
			invites:     invitationinfra.NewPostgresInviteRepository(deps.DB),
			lookup:      lookup,
			tx:          dbx.NewSQLTransactor(deps.DB),
		}, nil

	default:
		return nil, errx.Validation("unknown store driver").WithDetail("driver", deps.Cfg.Store.Driver)
	}
}

// newPublisher queues invite deliveries on Redis when it is available and
// falls back to in-process delivery otherwise. No notifier means no
// delivery at all.
func (c *Container) newPublisher(deps Deps) (invitation.Publisher, error) {
	if deps.Notifier == nil {
		logx.Warn("  No notifier configured; invites will not be delivered")
		return nil, nil
	}
	delivery, err := invitationinfra.NewDeliveryHandler(deps.Notifier, deps.Cfg.Invite.AcceptURL)
	if err != nil {
		return nil, err
	}

	if deps.Redis == nil {
		c.tasks = asyncx.NewGroup(time.Minute)
		logx.Warn("  Redis disabled; invites are delivered in-process")
		return invitationinfra.NewAsyncPublisher(c.tasks, delivery), nil
	}

	jc := deps.Cfg.Jobx
	c.worker = jobx.NewWorker(jobxredis.New(deps.Redis),
		jobx.WithQueue(jc.Queue),
		jobx.WithConcurrency(jc.Concurrency),
		jobx.WithPollInterval(jc.PollInterval),
		jobx.WithDequeueTimeout(jc.DequeueTimeout),
		jobx.WithRetryDelay(jc.RetryDelay),
		jobx.WithMaxAttempts(jc.MaxAttempts),
		jobx.WithShutdownTimeout(jc.ShutdownTimeout),
	)
	c.worker.Register(invitation.EventCreated, delivery.Handle)
	logx.Infof("  Invite delivery queued on %q", jc.Queue)
	return invitationinfra.NewJobPublisher(c.worker, jc.Queue), nil
}

// RegisterRoutes mounts every IAM route on app.
func (c *Container) RegisterRoutes(app fiber.Router) {
	c.AuthHandlers.RegisterRoutes(app)
	c.InviteHandlers.RegisterRoutes(app)
	c.AccessHandlers.RegisterRoutes(app)
}

// StartBackgroundServices starts the sweeper and, when configured, the
// delivery worker. Both stop when ctx is cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	c.sweeper.Start()
	logx.Info("  Session sweeper started")

	if c.worker == nil {
		close(c.done)
		return
	}
	go func() {
		defer close(c.done)
		if err := c.worker.Run(ctx); err != nil {
			logx.WithError(err).Error("invite delivery worker stopped")
		}
	}()
	logx.Info("  Invite delivery worker started")
}

// Shutdown stops the sweeper and waits for in-flight deliveries. Cancel the
// context passed to StartBackgroundServices first.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.sweeper.Stop(); err != nil {
		logx.WithError(err).Warn("sweeper shutdown failed")
	}
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.tasks != nil {
		return c.tasks.Wait(ctx)
	}
	return nil
}
