// Root composition root. Owns infrastructure (DB, Redis, notification
// providers) and composes the IAM container.
package main

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/config"
	"github.com/Abraxas-365/propcore/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/Abraxas-365/propcore/pkg/notifx"
	"github.com/Abraxas-365/propcore/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/propcore/pkg/notifx/notifxses"
	"github.com/Abraxas-365/propcore/pkg/notifx/notifxsns"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notifx.Client

	IAM *iamcontainer.Container
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	logx.Info("Initializing application container...")

	c := &Container{Config: cfg}
	c.initInfrastructure(ctx)
	c.initModules(ctx)

	logx.Info("Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) {
	if c.Config.Store.Driver == "postgres" {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			logx.Fatalf("Failed to connect to database: %v", err)
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
		c.DB = db
		logx.Info("  Database connected")
	}

	if c.Config.Redis.Enabled() {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("  Redis connected")
	}

	c.initNotifier(ctx)
}

func (c *Container) initNotifier(ctx context.Context) {
	nc := c.Config.Notifx
	console := notifxconsole.New()

	var (
		email  notifx.EmailSender = console
		sms    notifx.SMSSender   = console
		awsCfg *aws.Config
	)
	loadAWS := func() aws.Config {
		if awsCfg == nil {
			cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(nc.AWSRegion))
			if err != nil {
				logx.Fatalf("Unable to load AWS SDK config: %v", err)
			}
			awsCfg = &cfg
		}
		return *awsCfg
	}

	switch nc.EmailProvider {
	case "ses":
		email = notifxses.New(ses.NewFromConfig(loadAWS()), nc.FromAddress, nc.FromName)
		logx.Infof("  SES e-mail configured (region: %s)", nc.AWSRegion)
	case "console":
		logx.Info("  Console e-mail configured")
	default:
		logx.Fatalf("Unknown NOTIFX_EMAIL_PROVIDER: %s (use 'console' or 'ses')", nc.EmailProvider)
	}

	switch nc.SMSProvider {
	case "sns":
		sms = notifxsns.New(sns.NewFromConfig(loadAWS()), nc.SMSSenderID)
		logx.Infof("  SNS SMS configured (region: %s)", nc.AWSRegion)
	case "console":
		logx.Info("  Console SMS configured")
	default:
		logx.Fatalf("Unknown NOTIFX_SMS_PROVIDER: %s (use 'console' or 'sns')", nc.SMSProvider)
	}

	c.Notifier = notifx.NewClient(email, sms, nil)
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

func (c *Container) initModules(ctx context.Context) {
	iam, err := iamcontainer.New(ctx, iamcontainer.Deps{
		Cfg:      c.Config,
		DB:       c.DB,
		Redis:    c.Redis,
		Notifier: c.Notifier,
	})
	if err != nil {
		logx.Fatalf("Failed to initialize IAM: %v", err)
	}
	c.IAM = iam
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("Starting background services...")
	c.IAM.StartBackgroundServices(ctx)
}

// Health reports the state of each configured backend.
func (c *Container) Health(ctx context.Context) map[string]string {
	out := map[string]string{"store": c.Config.Store.Driver}
	if c.DB != nil {
		out["db"] = "healthy"
		if err := c.DB.PingContext(ctx); err != nil {
			out["db"] = "unhealthy"
		}
	}
	if c.Redis != nil {
		out["redis"] = "healthy"
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			out["redis"] = "unhealthy"
		}
	}
	return out
}

func (c *Container) Cleanup(ctx context.Context) {
	logx.Info("Cleaning up resources...")

	if err := c.IAM.Shutdown(ctx); err != nil {
		logx.Errorf("Error stopping IAM background services: %v", err)
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  Redis connection closed")
		}
	}

	logx.Info("Cleanup complete")
}
