// Command seed fills the database with fake users and one notification for
// each of them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/cache"
	"github.com/yeremiapane/notification-hub/config"
	"github.com/yeremiapane/notification-hub/database"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type options struct {
	total         int
	configPath    string
	adminPassword string
}

func main() {
	var opts options
	pflag.IntVar(&opts.total, "total", 1000, "number of users to create")
	pflag.StringVarP(&opts.configPath, "config", "c", "", "path to a config file")
	pflag.StringVar(&opts.adminPassword, "admin-password", "123456", "password for the admin user if it has to be created")
	pflag.Parse()

	if err := run(context.Background(), opts); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.total < 0 {
		return fmt.Errorf("--total must not be negative")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := config.InitDB(&cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	var pages cache.PageCache = cache.NopPageCache{}
	if cfg.Notifications.CacheEnabled {
		rdb, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			utils.ErrorLogger.Errorf("Snapshot cache unavailable, cached pages are left to expire: %v", err)
		} else {
			defer rdb.Close()
			pages = cache.NewRedisPageCache(rdb)
		}
	}

	return seed(ctx, cfg, db, pages, opts)
}

// seed creates the admin, opts.total users and one notification each.
// Cached pages of the seeded users are invalidated; nothing is pushed since
// no live hub runs here.
func seed(ctx context.Context, cfg *config.Config, db *gorm.DB, pages cache.PageCache, opts options) error {
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	settings := services.NewSettingsService(db)
	users := services.NewUserService(db, tokens)
	users.OnUserCreated(settings.CreateDefault)
	snapshots := services.NewSnapshotService(db, settings, pages, cfg.Notifications.CacheTTL(), cfg.Notifications.PageSize)
	notifications := services.NewNotificationService(db, services.NewChangePropagator(snapshots, pages, nil, false))

	admin, err := users.GetByUsername(ctx, "admin")
	if errors.Is(err, utils.ErrNotFound) {
		admin, err = users.Register(ctx, services.RegisterInput{
			Username: "admin",
			Email:    "admin@gmail.com",
			Password: opts.adminPassword,
			Role:     models.RoleAdmin,
		})
	}
	if err != nil {
		return fmt.Errorf("admin user: %w", err)
	}

	users.SetPasswordCost(bcrypt.MinCost)
	faker := gofakeit.New(uint64(time.Now().UnixNano()))
	bar := progressbar.NewOptions(opts.total,
		progressbar.OptionSetDescription("Creating users and user notifications"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	ids := make([]uint, 0, opts.total)
	for i := 0; i < opts.total; i++ {
		user, err := users.Register(ctx, services.RegisterInput{
			Username:  fmt.Sprintf("%s_%d", faker.Username(), i),
			Email:     faker.Email(),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Password:  "password",
		})
		if err != nil {
			return fmt.Errorf("create user %d: %w", i, err)
		}
		ids = append(ids, user.ID)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	res, err := notifications.BulkCreate(ctx, services.BulkCreateInput{
		UserIDs: ids,
		Payload: models.NotificationPayload{
			Message: "New Incomming Notification",
			Object:  map[string]interface{}{"uid": uuid.NewString()},
			Method:  models.MethodUndefined,
		},
		CreatedByID: &admin.ID,
	})
	if err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}

	utils.InfoLogger.Printf("Successfully created %d notifications for %d users", len(res.Created), opts.total)
	return nil
}
