package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johnwards/repoquery/internal/domain"
	"github.com/johnwards/repoquery/internal/jsonv"
	"github.com/johnwards/repoquery/internal/store"
	"github.com/johnwards/repoquery/internal/where"
)

func newCompileCmd() *cobra.Command {
	var (
		entity          string
		whereDoc        string
		orderDoc        string
		literalFallback bool
	)

	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a filter and order against an entity and print the resulting SQL",
		Example: `  repoquery compile --entity places --where '{"user": {"name": "Ann Lee"}}' --order '{"rating": "DESC"}'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var q domain.Query
			var err error
			if whereDoc != "" {
				if q.Where, err = jsonv.Decode([]byte(whereDoc)); err != nil {
					return errors.Wrap(err, "--where")
				}
			}
			if orderDoc != "" {
				if q.Order, err = jsonv.Decode([]byte(orderDoc)); err != nil {
					return errors.Wrap(err, "--order")
				}
			}

			var opts []store.RepositoryOption
			if literalFallback {
				opts = append(opts, store.WithCompileOptions(where.WithLiteralFallback()))
			}
			// Planning needs no database.
			repo := store.NewSQLiteRepository(nil, store.DefaultRegistry(), opts...)
			plan, err := repo.Explain(entity, q)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encode plan")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity to query (users, places)")
	cmd.Flags().StringVar(&whereDoc, "where", "", "filter expression as JSON")
	cmd.Flags().StringVar(&orderDoc, "order", "", "order specification as JSON")
	cmd.Flags().BoolVar(&literalFallback, "literal-fallback", false, "treat unknown operators as literal equality")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}
