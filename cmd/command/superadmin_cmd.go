package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/superadmin/services"
	tenancyservices "github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/configuration"
)

func newSuperadminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Manage platform operators",
	}
	cmd.AddCommand(newSuperadminCreateCmd(), newSuperadminSetActiveCmd("disable", false), newSuperadminSetActiveCmd("enable", true))
	return cmd
}

func withAdministrators(ctx context.Context, fn func(ctx context.Context, svc *services.AdministratorService) error) error {
	conf, err := configuration.Parse()
	if err != nil {
		return err
	}
	pool, err := connectDB(ctx, conf)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := services.NewAdministratorService(
		persistence.NewAdministratorRepository(),
		tenancyservices.NewBcryptHasher(conf.Provisioning.BcryptCost, 1),
	)
	return composables.InTx(composables.WithPool(ctx, pool), func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func newSuperadminCreateCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active superadmin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdministrators(cmd.Context(), func(ctx context.Context, svc *services.AdministratorService) error {
				a, err := svc.Create(ctx, email, name, password)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created superadmin %s (%s)\n", a.Email(), a.ID())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password, at least 12 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSuperadminSetActiveCmd(use string, active bool) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s a superadmin; takes effect on the next request", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdministrators(cmd.Context(), func(ctx context.Context, svc *services.AdministratorService) error {
				return svc.SetActive(ctx, email, active)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Superadmin email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
