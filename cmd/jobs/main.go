package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/infra"
	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/logger"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
)

// jobs is the operational CLI: run it from cron or by hand for the
// maintenance work that doesn't belong in the HTTP server.
func main() {
	_ = godotenv.Load()
	logger.InitLogger(logger.LogConfig{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENVIRONMENT"),
		ServiceName: "belvieu-jobs",
	})

	root := &cobra.Command{
		Use:   "jobs",
		Short: "Operational commands for the Belvieu Digital back office",
	}
	root.AddCommand(migrateCmd(), seedAdminCmd(), verifyPricesCmd(), sendRemindersCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() *gorm.DB {
	return infra.InitPostgresql()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run schema auto-migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer infra.ClosePostgresql(db)

			err := db.AutoMigrate(
				&db_models.User{},
				&db_models.Workspace{},
				&db_models.WorkspaceMember{},
				&db_models.WorkspaceSettings{},
				&db_models.Site{},
				&db_models.WorkspaceInvite{},
				&db_models.BillingCustomer{},
				&db_models.BillingSubscription{},
				&db_models.StripeEvent{},
				&db_models.Ticket{},
				&db_models.TicketMessage{},
				&db_models.TicketAttachment{},
				&db_models.Prospect{},
				&db_models.ProspectActivity{},
				&db_models.AuditEvent{},
				&db_models.ContactFormConfig{},
			)
			if err != nil {
				return err
			}
			zap.L().Info("migration complete")
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var email, password, fullName string
	var withDemo bool

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create (or repair) the agency admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			db := openDB()
			defer infra.ClosePostgresql(db)

			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}

			var admin db_models.User
			err = db.Where("email = ?", email).First(&admin).Error
			switch {
			case err == nil:
				if err := db.Model(&admin).Updates(map[string]any{
					"password_hash": hash,
					"is_admin":      true,
					"is_active":     true,
				}).Error; err != nil {
					return err
				}
				zap.L().Info("admin account updated", zap.String("email", email))
			case errors.Is(err, gorm.ErrRecordNotFound):
				admin = db_models.User{
					Email:        email,
					PasswordHash: hash,
					FullName:     fullName,
					IsAdmin:      true,
					IsActive:     true,
				}
				if err := db.Create(&admin).Error; err != nil {
					return err
				}
				zap.L().Info("admin account created", zap.String("email", email))
			default:
				return err
			}

			if !withDemo {
				return nil
			}
			return seedDemoData(db, &admin)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&fullName, "name", "Agency Admin", "display name")
	cmd.Flags().BoolVar(&withDemo, "demo", false, "also seed a demo prospect, workspace, site and invite")
	return cmd
}

// seedDemoData provisions a converted demo prospect with the full
// workspace, site, settings, membership and invite chain so a fresh
// environment has something to click through.
func seedDemoData(db *gorm.DB, admin *db_models.User) error {
	token, err := utils.GenerateSecureToken(48)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		prospect := &db_models.Prospect{
			BusinessName: "Demo Pizza Shop",
			ContactName:  "Joe Demo",
			ContactEmail: "joe@demopizza.test",
			ContactPhone: "555-0100",
			Source:       "google_maps",
			Notes:        "Demo prospect for testing. Great reviews, no website.",
			DemoURL:      "https://demo-pizza.belvieu.site",
			Status:       db_models.ProspectStatusConverted,
		}
		if err := tx.Create(prospect).Error; err != nil {
			return err
		}

		workspace := &db_models.Workspace{
			Name:       "Demo Pizza Shop",
			ProspectID: &prospect.ID,
		}
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		if err := tx.Model(prospect).Update("workspace_id", workspace.ID).Error; err != nil {
			return err
		}
		if err := tx.Create(&db_models.WorkspaceSettings{WorkspaceID: workspace.ID}).Error; err != nil {
			return err
		}
		if err := tx.Create(&db_models.WorkspaceMember{
			UserID:      admin.ID,
			WorkspaceID: workspace.ID,
			Role:        db_models.RoleOwner,
		}).Error; err != nil {
			return err
		}

		site := &db_models.Site{
			WorkspaceID:  workspace.ID,
			Slug:         "demo-pizza",
			DisplayName:  "Demo Pizza Shop",
			PublishedURL: "https://demo-pizza.belvieu.site",
			Status:       db_models.SiteStatusDemo,
		}
		if err := tx.Create(site).Error; err != nil {
			return err
		}

		inviteEmail := "joe@demopizza.test"
		invite := &db_models.WorkspaceInvite{
			WorkspaceID: workspace.ID,
			SiteID:      site.ID,
			Email:       &inviteEmail,
			Token:       token,
			ExpiresAt:   time.Now().AddDate(0, 0, 30).Unix(),
		}
		if err := tx.Create(invite).Error; err != nil {
			return err
		}

		fmt.Printf("demo workspace seeded: slug=%s invite=%s/register?invite=%s\n",
			site.Slug, os.Getenv("APP_BASE_URL"), token)
		return nil
	})
}

func stripeConfigFromEnv() services.StripeConfig {
	return services.StripeConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BasicPriceID:  os.Getenv("STRIPE_PRICE_BASIC"),
		SetupPriceID:  os.Getenv("STRIPE_PRICE_SETUP"),
		ProPriceID:    os.Getenv("STRIPE_PRICE_PRO"),
		AppBaseURL:    os.Getenv("APP_BASE_URL"),
	}
}

func verifyPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-prices",
		Short: "Check that the configured Stripe price ids exist and are active",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer infra.ClosePostgresql(db)

			cfg := stripeConfigFromEnv()
			client := services.NewStripeProcessorClient(cfg)
			svc := services.NewStripeService(db, cfg, client, nil)

			if err := svc.VerifyPrices(context.Background()); err != nil {
				return err
			}
			fmt.Println("all configured prices verified")
			return nil
		},
	}
}

func sendRemindersCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send-reminders",
		Short: "Send follow-up reminders for stale pitched prospects",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer infra.ClosePostgresql(db)

			mail, err := mailServiceFromEnv()
			if err != nil {
				return err
			}
			invites := services.NewInviteService(db, repositories.NewInviteRepository(db))
			svc := services.NewReminderService(db, services.ReminderConfig{
				AppBaseURL: os.Getenv("APP_BASE_URL"),
				ReplyTo:    os.Getenv("MAIL_REPLY_TO"),
			}, mail, invites)

			sent, err := svc.Run(context.Background(), dryRun)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Printf("%d reminder(s) due (dry run, nothing sent)\n", sent)
			} else {
				fmt.Printf("%d reminder(s) sent\n", sent)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be sent without sending")
	return cmd
}

func mailServiceFromEnv() (services.IMailService, error) {
	port := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &port); err != nil {
			return nil, fmt.Errorf("bad SMTP_PORT %q", raw)
		}
	}
	return services.NewSMTPMailService(services.SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       port,
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       os.Getenv("SMTP_FROM"),
		FromName:   "Belvieu Digital",
		UseSSL:     port == 465,
		RequireTLS: true,
		AppName:    "Belvieu Digital",
		AppBaseURL: os.Getenv("APP_BASE_URL"),
	})
}
