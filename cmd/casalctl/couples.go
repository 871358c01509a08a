package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"casal/internal/core"
)

func couplesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "couples",
		Short: "Create and inspect couples",
	}
	cmd.AddCommand(couplesCreateCmd(st), couplesShowCmd(st))
	return cmd
}

func couplesCreateCmd(st *state) *cobra.Command {
	var (
		nameA, nameB, currency string
		categories             []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a couple and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := st.app.couples.CreateCouple(cmd.Context(), core.Couple{
				NameA:      nameA,
				NameB:      nameB,
				Currency:   currency,
				Categories: categories,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nameA, "name-a", "", "first partner's name")
	cmd.Flags().StringVar(&nameB, "name-b", "", "second partner's name")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "ISO 4217 currency code")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "expense category (repeatable; default: seed list)")
	_ = cmd.MarkFlagRequired("name-a")
	_ = cmd.MarkFlagRequired("name-b")
	return cmd
}

func couplesShowCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the selected couple and its categories, most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := st.session(cmd)
			if err != nil {
				return err
			}
			c := sess.Couple
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Couple:     %s\n", c.ID)
			fmt.Fprintf(out, "Partners:   %s (A), %s (B)\n", c.NameA, c.NameB)
			fmt.Fprintf(out, "Currency:   %s\n", c.Currency)
			fmt.Fprintf(out, "Categories: %s\n", strings.Join(st.app.couples.Categories(cmd.Context(), c), ", "))
			return nil
		},
	}
}
