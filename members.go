package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"library-ledger/library"
)

type memberFlags struct {
	name, birthYear, gender, phone, address string
}

func (f *memberFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&f.birthYear, "birth-year", "", "birth year")
	cmd.Flags().StringVar(&f.gender, "gender", "", "gender marker, e.g. L or P")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.address, "address", "", "address")
}

func (f *memberFlags) input() (library.MemberInput, error) {
	in := library.MemberInput{
		Name:    strings.TrimSpace(f.name),
		Gender:  strings.TrimSpace(f.gender),
		Phone:   strings.TrimSpace(f.phone),
		Address: strings.TrimSpace(f.address),
	}
	if in.Name == "" {
		return in, errors.New("name is required")
	}
	y, err := parseYear("birth year", f.birthYear, false)
	if err != nil {
		return in, err
	}
	in.BirthYear = y
	return in, nil
}

func newMemberCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "member", Short: "Member commands"}
	cmd.AddCommand(
		newMemberAddCommand(a),
		newMemberListCommand(a),
		newMemberSearchCommand(a),
		newMemberShowCommand(a),
		newMemberUpdateCommand(a),
		newMemberPickCommand(a),
	)
	return cmd
}

func newMemberAddCommand(a *app) *cobra.Command {
	var f memberFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			id, err := a.mgr.AddMember(in)
			if err != nil {
				return fmt.Errorf("adding member: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member '%s' with ID %d\n", in.Name, id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

const memberSortUsage = "newest, name, birth-asc or birth-desc"

func newMemberListCommand(a *app) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			members, err := a.mgr.ListMembers(library.ParseMemberSort(sort))
			if err != nil {
				return err
			}
			return a.renderMembers(cmd.OutOrStdout(), members)
		},
	}
	cmd.Flags().StringVar(&sort, "sort", library.MemberNewest.String(), memberSortUsage)
	return cmd
}

func newMemberSearchCommand(a *app) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search members by name, phone, address or ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var term string
			if len(args) == 1 {
				term = strings.TrimSpace(args[0])
			}
			members, err := a.mgr.SearchMembers(term, library.ParseMemberSort(sort))
			if err != nil {
				return err
			}
			return a.renderMembers(cmd.OutOrStdout(), members)
		},
	}
	cmd.Flags().StringVar(&sort, "sort", library.MemberNewest.String(), memberSortUsage)
	return cmd
}

func newMemberShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <member-id>",
		Short: "Show one member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member", args[0])
			if err != nil {
				return err
			}
			m, err := a.mgr.GetMember(id)
			if err != nil {
				return err
			}
			return a.renderMembers(cmd.OutOrStdout(), []*library.Member{m})
		},
	}
}

func newMemberUpdateCommand(a *app) *cobra.Command {
	var f memberFlags
	cmd := &cobra.Command{
		Use:   "update <member-id>",
		Short: "Replace a member's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member", args[0])
			if err != nil {
				return err
			}
			in, err := f.input()
			if err != nil {
				return err
			}
			if err := a.mgr.UpdateMember(id, in); err != nil {
				return fmt.Errorf("updating member: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Member %d updated.\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newMemberPickCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pick [term]",
		Short: "Find a borrower by name or ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var term string
			if len(args) == 1 {
				term = strings.TrimSpace(args[0])
			}
			options, err := a.mgr.SearchBorrowers(term)
			if err != nil {
				return err
			}
			return a.renderBorrowers(cmd.OutOrStdout(), options)
		},
	}
}
