package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"libraryhub/internal/domain"
	"libraryhub/internal/membership"
	"libraryhub/internal/web"
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	admin.AddCommand(newAdminCreateCmd())
	return admin
}

func newAdminCreateCmd() *cobra.Command {
	var in domain.PersonInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an ADMIN account, prompting for its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := environment()

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			in.Password = password
			in.Role = domain.RoleAdmin
			if err := web.Validate(&in); err != nil {
				return err
			}

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				log.Error().Err(err).Msg("failed to open database")
				return err
			}
			defer s.Close()

			p, err := membership.NewRegistry(s, cfg.Auth.BcryptCost, log).CreatePerson(cmd.Context(), in, "cli")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name: surname, name and patronymic")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number, +7XXXXXXXXXX")
	f.IntVar(&in.Age, "age", 0, "age in years")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("phone")
	cmd.MarkFlagRequired("age")
	return cmd
}
