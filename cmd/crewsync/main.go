// crewsync es la CLI del motor de sincronización: inscribe tenants,
// refresca turnos, corre la reconciliación y expone un server de debug.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldcrew/crewsync/internal/cache"
	"github.com/fieldcrew/crewsync/internal/config"
	"github.com/fieldcrew/crewsync/internal/coordinator"
	"github.com/fieldcrew/crewsync/internal/credstore"
	"github.com/fieldcrew/crewsync/internal/device"
	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/reconcile"
	"github.com/fieldcrew/crewsync/internal/remote"
	"github.com/fieldcrew/crewsync/internal/util"
)

type app struct {
	cfg    *config.Config
	store  cache.Store
	creds  *credstore.Store
	coord  *coordinator.Coordinator
	engine *reconcile.Engine
	hwID   string
}

func buildApp(cfgPath string) (*app, error) {
	// .env primero: puede traer CREWSYNC_MASTER_KEY y overrides
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "crewsync",
	})

	store, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		MaxEntries: cfg.Cache.MaxEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	creds, err := credstore.New(
		credstore.WithPersister(credstore.NewFilePersister(cfg.CredentialsPath())),
		credstore.WithInvalidator(store),
	)
	if err != nil {
		return nil, err
	}

	client := remote.NewHTTPClient(cfg.Remote.BaseURL, config.Dur(cfg.Remote.Timeout))

	coord := coordinator.New(creds, store, client, coordinator.Config{
		ShiftTTL:       config.Dur(cfg.Sync.ShiftTTL),
		LeaderboardTTL: config.Dur(cfg.Sync.LeaderboardTTL),
		Window:         remote.FetchWindow{PastDays: cfg.Sync.PastDays, FutureDays: cfg.Sync.FutureDays},
	})

	engine := reconcile.New(creds, client, reconcile.NewTeamDirectory(client), config.Dur(cfg.Sync.ReconcileWindow))

	hwID, err := device.LoadOrCreateHardwareID(cfg.HardwareIDPath())
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, store: store, creds: creds, coord: coord, engine: engine, hwID: hwID}, nil
}

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "crewsync",
		Short:         "Motor de sincronización offline-first de turnos multi-tenant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CREWSYNC_CONFIG"), "ruta al config YAML (opcional)")

	// enroll
	var enTenant, enRole, enToken string
	var enTeams []string
	enrollCmd := &cobra.Command{
		Use:   "enroll",
		Short: "Inscribir este dispositivo en un tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			err = a.creds.Upsert(cmd.Context(), model.TenantCredential{
				TenantID:  enTenant,
				Role:      model.Role(enRole),
				TeamCodes: enTeams,
				AuthToken: enToken,
				Status:    model.StatusActive,
			})
			if err != nil {
				return err
			}
			fmt.Printf("enrolled %s (%s, teams %s)\n", enTenant, enRole, strings.Join(enTeams, ","))
			return nil
		},
	}
	enrollCmd.Flags().StringVar(&enTenant, "tenant", "", "slug del tenant")
	enrollCmd.Flags().StringVar(&enRole, "role", "member", "rol: manager|member")
	enrollCmd.Flags().StringSliceVar(&enTeams, "teams", nil, "códigos de equipo")
	enrollCmd.Flags().StringVar(&enToken, "token", "", "token de autorización del tenant")
	_ = enrollCmd.MarkFlagRequired("tenant")
	_ = enrollCmd.MarkFlagRequired("token")

	// unenroll
	var unTenant string
	unenrollCmd := &cobra.Command{
		Use:   "unenroll",
		Short: "Borrar la inscripción de un tenant (invalida su cache)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if err := a.creds.Remove(cmd.Context(), unTenant); err != nil {
				return err
			}
			fmt.Printf("unenrolled %s\n", unTenant)
			return nil
		},
	}
	unenrollCmd.Flags().StringVar(&unTenant, "tenant", "", "slug del tenant")
	_ = unenrollCmd.MarkFlagRequired("tenant")

	// refresh
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refrescar turnos: entrega lo cacheado y después lo fresco",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var failure error
			done := a.coord.RefreshShifts(ctx, func(d coordinator.ShiftDelivery) {
				if d.Err != nil {
					failure = d.Err
					return
				}
				printShifts(d)
			})
			<-done
			return failure
		},
	}

	// leaderboard
	var lbTenant, lbPeriod, lbTeam string
	var lbGlobal bool
	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Mostrar el leaderboard de un tenant (cached y después fresco)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			period := model.Period(lbPeriod)
			var failure error
			var done <-chan struct{}
			if lbGlobal {
				done = a.coord.FetchGlobalLeaderboard(ctx, lbTenant, period, lbTeam,
					func(d coordinator.Delivery[*model.GlobalLeaderboardPayload]) {
						if d.Err != nil {
							failure = d.Err
							return
						}
						fmt.Printf("-- %s\n", d.Phase)
						for i, e := range d.Value.Entries {
							fmt.Printf("%3d. %-24s %d\n", i+1, e.Name, e.Points)
						}
					})
			} else {
				done = a.coord.FetchLeaderboard(ctx, lbTenant, period, lbTeam,
					func(d coordinator.Delivery[*model.LeaderboardPayload]) {
						if d.Err != nil {
							failure = d.Err
							return
						}
						fmt.Printf("-- %s\n", d.Phase)
						for i, e := range d.Value.Entries {
							fmt.Printf("%3d. %-24s %d\n", i+1, e.Name, e.Points)
						}
					})
			}
			<-done
			return failure
		},
	}
	leaderboardCmd.Flags().StringVar(&lbTenant, "tenant", "", "slug del tenant")
	leaderboardCmd.Flags().StringVar(&lbPeriod, "period", "month", "período: month|season|all")
	leaderboardCmd.Flags().StringVar(&lbTeam, "team", "", "filtrar por código de equipo")
	leaderboardCmd.Flags().BoolVar(&lbGlobal, "global", false, "leaderboard global entre tenants")
	_ = leaderboardCmd.MarkFlagRequired("tenant")

	// volunteer add/remove
	var volTenant, volShift, volName string
	volunteerCmd := &cobra.Command{
		Use:   "volunteer",
		Short: "Anotarse o bajarse de un turno",
	}
	volunteerAdd := &cobra.Command{
		Use:   "add",
		Short: "Anotar un voluntario en un turno",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			rec, err := a.coord.AddVolunteer(cmd.Context(), volTenant, volShift, volName)
			if err != nil {
				return err
			}
			fmt.Printf("added %s to %s (%d volunteers)\n", volName, rec.ID, len(rec.Volunteers))
			return nil
		},
	}
	volunteerRemove := &cobra.Command{
		Use:   "remove",
		Short: "Bajar un voluntario de un turno",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			rec, err := a.coord.RemoveVolunteer(cmd.Context(), volTenant, volShift, volName)
			if err != nil {
				return err
			}
			fmt.Printf("removed %s from %s (%d volunteers)\n", volName, rec.ID, len(rec.Volunteers))
			return nil
		},
	}
	volunteerCmd.PersistentFlags().StringVar(&volTenant, "tenant", "", "slug del tenant")
	volunteerCmd.PersistentFlags().StringVar(&volShift, "shift", "", "id del turno")
	volunteerCmd.PersistentFlags().StringVar(&volName, "name", "", "nombre del voluntario")
	_ = volunteerCmd.MarkPersistentFlagRequired("tenant")
	_ = volunteerCmd.MarkPersistentFlagRequired("shift")
	_ = volunteerCmd.MarkPersistentFlagRequired("name")
	volunteerCmd.AddCommand(volunteerAdd, volunteerRemove)

	// sync
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconciliar las inscripciones declaradas con el backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			rep := a.engine.Sync(ctx, a.hwID)
			switch rep.Outcome {
			case reconcile.OutcomeSynced, reconcile.OutcomeThrottled:
				fmt.Printf("%s: revoked=%d teams_removed=%d last_sync=%s\n",
					rep.Outcome, rep.Result.RevokedCount, rep.Result.TeamsRemovedCount,
					rep.Result.LastSyncAt.Format(time.RFC3339))
				return nil
			case reconcile.OutcomeSkipped:
				fmt.Printf("skipped: %v\n", rep.Err)
				return nil
			default:
				return rep.Err
			}
		},
	}

	// status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Mostrar inscripciones y vencimientos próximos",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			for _, c := range a.creds.All() {
				fmt.Printf("%-16s %-8s %-12s token=%-12s teams=%s\n",
					c.TenantID, c.Role, c.Status, util.MaskToken(c.AuthToken),
					strings.Join(c.TeamCodes, ","))
			}
			for _, c := range a.creds.ExpiringSoon(72 * time.Hour) {
				fmt.Printf("warning: token for %s expires within 72h, re-enroll soon\n", c.TenantID)
			}
			fmt.Printf("hardware_id: %s\n", a.hwID)
			return nil
		},
	}

	// serve-debug
	var debugAddr string
	serveCmd := &cobra.Command{
		Use:   "serve-debug",
		Short: "Servir /healthz, /metrics y /status para diagnóstico",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			addr := debugAddr
			if addr == "" {
				addr = a.cfg.Debug.Addr
			}
			if addr == "" {
				addr = "127.0.0.1:6060"
			}
			return serveDebug(cmd.Context(), addr, a)
		},
	}
	serveCmd.Flags().StringVar(&debugAddr, "addr", "", "addr de escucha (default del config)")

	root.AddCommand(enrollCmd, unenrollCmd, refreshCmd, leaderboardCmd, volunteerCmd, syncCmd, statusCmd, serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printShifts(d coordinator.ShiftDelivery) {
	tag := string(d.Phase)
	if d.Phase == coordinator.PhaseCached && d.Stale {
		tag += " (stale)"
	}
	fmt.Printf("-- %s: %d shifts\n", tag, len(d.Records))
	for _, r := range d.Records {
		fmt.Printf("%s  %-20s %-10s %d volunteers\n",
			r.StartTime.Format("2006-01-02 15:04"), r.Location, r.Status, len(r.Volunteers))
	}
}
