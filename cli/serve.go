package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/junaidrashid-git/storefront/auth"
	"github.com/junaidrashid-git/storefront/media"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/junaidrashid-git/storefront/routes"
	"github.com/spf13/cobra"
)

type ServeOptions struct {
	*RootOptions
	NoBackups       bool
	BackupRetention time.Duration
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoBackups, "no-backups", false, "disable the daily upload backup")
	cmd.Flags().DurationVar(&opts.BackupRetention, "backup-retention", 4*24*time.Hour, "how long upload backups are kept")

	return cmd
}

func serve(ctx context.Context, opts *ServeOptions) error {
	log.Println("✅ Starting application...")
	cfg := opts.Config

	s, err := opts.openStore()
	if err != nil {
		return err
	}

	var verifier auth.TokenVerifier
	if cfg.FirebaseCredentialsJSON != "" || cfg.FirebaseProjectID != "" {
		v, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsJSON, cfg.FirebaseProjectID)
		if err != nil {
			return err
		}
		verifier = v
	} else {
		log.Println("⚠️ Firebase is not configured; Google sign-in is disabled")
	}
	if cfg.Paystack.SecretKey == "" {
		log.Println("⚠️ PAYSTACK_SECRET_KEY is empty; every webhook will be rejected")
	}

	gateway := payment.NewPaystack(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL)
	r := routes.NewRouter(routes.NewDeps(cfg, s, verifier, gateway))

	if !opts.NoBackups && cfg.BackupDir != "" {
		// 2 AM daily
		go media.StartBackups(ctx, cfg.UploadDir, cfg.BackupDir, opts.BackupRetention, 2, 0)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("❌ shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Server running on port %s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("👋 Server stopped")
	return nil
}
