package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/slot-booking/internal/model"
)

var (
	resTenant uint64
	resUser   uint64
	resName   string
	resKind   string
	resOwner  bool

	svcTenant   uint64
	svcName     string
	svcDuration int
)

var addResourceCmd = &cobra.Command{
	Use:   "add-resource",
	Short: "Register a professional or space for a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resTenant == 0 || resName == "" {
			return errors.New("--tenant and --name are required")
		}
		kind := model.ResourceKind(resKind)
		if kind != model.ResourceProfessional && kind != model.ResourceSpace {
			return fmt.Errorf("unknown kind %q", resKind)
		}
		store, db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		res := model.Resource{TenantID: resTenant, Name: resName, Kind: kind, IsOwner: resOwner}
		if resUser != 0 {
			uid := resUser
			res.UserID = &uid
		}
		if err := store.CreateResource(cmd.Context(), &res); err != nil {
			return fmt.Errorf("create resource: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.ID)
		return nil
	},
}

var addServiceCmd = &cobra.Command{
	Use:   "add-service",
	Short: "Register a bookable service with its duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if svcTenant == 0 || svcName == "" || svcDuration <= 0 {
			return errors.New("--tenant, --name and a positive --duration are required")
		}
		store, db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		s := model.Service{TenantID: svcTenant, Name: svcName, DurationMin: svcDuration}
		if err := store.CreateService(cmd.Context(), &s); err != nil {
			return fmt.Errorf("create service: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.ID)
		return nil
	},
}

func init() {
	f := addResourceCmd.Flags()
	f.Uint64Var(&resTenant, "tenant", 0, "tenant (business) id")
	f.Uint64Var(&resUser, "user", 0, "login user id; omit for spaces")
	f.StringVar(&resName, "name", "", "display name")
	f.StringVar(&resKind, "kind", string(model.ResourceProfessional), "professional or space")
	f.BoolVar(&resOwner, "owner", false, "the user owns the tenant")

	g := addServiceCmd.Flags()
	g.Uint64Var(&svcTenant, "tenant", 0, "tenant (business) id")
	g.StringVar(&svcName, "name", "", "service name")
	g.IntVar(&svcDuration, "duration", 30, "duration in minutes")
}
