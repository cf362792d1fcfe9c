package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipsync/clipsync-trust-backend/acmemgr"
	"github.com/clipsync/clipsync-trust-backend/cmd/flags"
	"github.com/clipsync/clipsync-trust-backend/common"
	"github.com/clipsync/clipsync-trust-backend/httpserver"
	"github.com/clipsync/clipsync-trust-backend/metrics"
	"github.com/clipsync/clipsync-trust-backend/storage"
	"github.com/urfave/cli/v2"
)

var daemonFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "0.0.0.0:80",
		Usage: "address to listen on for ACME challenges and health checks",
	},
	&cli.StringFlag{
		Name:  "domain",
		Value: "",
		Usage: "domain to obtain and renew a certificate for; empty disables ACME provisioning",
	},
	&cli.StringFlag{
		Name:  "acme-email",
		Value: "",
		Usage: "contact email for ACME account registration",
	},
	&cli.BoolFlag{
		Name:  "acme-staging",
		Value: false,
		Usage: "use the Let's Encrypt staging directory",
	},
	&cli.IntFlag{
		Name:  "renew-before-days",
		Value: 30,
		Usage: "renew when fewer than this many days of certificate lifetime remain",
	},
	flags.StorageURIFlag,
	flags.LogServiceFlagFn("trustd"),
}, flags.CommonFlags...)

// validateProvisioningFlags rejects configurations that would only
// fail once the first certificate order runs.
func validateProvisioningFlags(domain, email string) error {
	if domain != "" && email == "" {
		return errors.New("acme-email is required when a domain is configured")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "trustd",
		Usage: "Certificate lifecycle daemon for clipboard sync endpoints",
		Flags: daemonFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			domain := cCtx.String("domain")
			email := cCtx.String("acme-email")
			staging := cCtx.Bool("acme-staging")
			renewBefore := time.Duration(cCtx.Int("renew-before-days")) * 24 * time.Hour
			storageURIs := cCtx.StringSlice("storage-uri")

			if err := validateProvisioningFlags(domain, email); err != nil {
				logger.Error("Invalid provisioning configuration", "err", err)
				return err
			}

			storageFactory := storage.NewFactory(logger)
			store, err := storageFactory.CreateMultiStore(storageURIs)
			if err != nil {
				logger.Error("Failed to initialize certificate storage", "err", err)
				return err
			}
			logger.Info("Certificate storage ready", "backend", store.Name())

			m := metrics.New(common.MetricsNamespace)

			swapper, err := httpserver.NewCertSwapper(nil, nil)
			if err != nil {
				logger.Error("Failed to create certificate holder", "err", err)
				return err
			}

			provisioning := acmemgr.Disabled()
			if domain != "" {
				provisioning = acmemgr.NewManager(acmemgr.ManagerConfig{
					Domain:      domain,
					Email:       email,
					Staging:     staging,
					RenewBefore: renewBefore,
					Store:       store,
					OnRenew: func(certPEM, keyPEM []byte) {
						if err := swapper.Swap(certPEM, keyPEM); err != nil {
							logger.Error("Failed to swap renewed certificate", "err", err)
							m.Renewals.WithLabelValues("failed").Inc()
							return
						}
						m.Renewals.WithLabelValues("renewed").Inc()
						logger.Info("Serving certificate updated", "domain", domain)
					},
					Log: logger,
				})
			}
			logger.Info("Certificate provisioning configured", "mode", provisioning.Mode.String())

			var challenges httpserver.ChallengeSource = acmemgr.NewChallengeSet()
			if provisioning.Mode == acmemgr.ModeACME {
				challenges = provisioning.Manager.Challenges
			}

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
			server := httpserver.New(cfg, challenges, m)
			server.RunInBackground()

			ctx, stopRenewals := context.WithCancel(cCtx.Context)
			if provisioning.Mode == acmemgr.ModeACME {
				go provisioning.Manager.Renewals.Run(ctx)
			}

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			stopRenewals()
			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
