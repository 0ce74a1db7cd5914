package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/varcache"
)

func newChainCmd(f *rootFlags, op openers) *cobra.Command {
	return &cobra.Command{
		Use:   "chain KEY...",
		Short: "Show the redirect path the given contexts resolve to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd.Context(), op)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			links, err := s.cache.Chain(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, l := range links {
				line := fmt.Sprintf("%d %-8s %s", i, l.Kind, l.Key)
				if len(l.Contexts) > 0 {
					line += " [" + strings.Join(l.Contexts, ", ") + "]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newGetCmd(f *rootFlags, op openers) *cobra.Command {
	var stale bool
	cmd := &cobra.Command{
		Use:   "get KEY...",
		Short: "Print the entry the given contexts resolve to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd.Context(), op)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			var opts []varcache.GetOption
			if stale {
				opts = append(opts, varcache.AllowInvalid())
			}
			e, ok, err := s.cache.GetEntry(cmd.Context(), args, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "miss")
				return nil
			}
			fmt.Fprintf(out, "key:      %s\n", e.Key)
			fmt.Fprintf(out, "valid:    %t\n", e.Valid)
			fmt.Fprintf(out, "contexts: %s\n", strings.Join(e.Contexts, ", "))
			fmt.Fprintf(out, "tags:     %s\n", strings.Join(e.Tags, ", "))
			if e.Expire.IsZero() {
				fmt.Fprintln(out, "expires:  never")
			} else {
				fmt.Fprintf(out, "expires:  %s\n", e.Expire.UTC().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "value:    %s\n", e.Value)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stale, "stale", false, "return invalidated or expired entries too")
	return cmd
}

func newSetCmd(f *rootFlags, op openers) *cobra.Command {
	var (
		value  string
		vary   []string
		tags   []string
		maxAge time.Duration
	)
	cmd := &cobra.Command{
		Use:   "set KEY...",
		Short: "Store a value varying by the given contexts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd.Context(), op)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			return s.cache.Set(cmd.Context(), args, []byte(value), varcache.Cacheability{
				Contexts: vary,
				Tags:     tags,
				MaxAge:   maxAge,
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&value, "value", "", "payload to store")
	fl.StringSliceVar(&vary, "vary", nil, "cache contexts the value varies by")
	fl.StringSliceVar(&tags, "tag", nil, "invalidation tags")
	fl.DurationVar(&maxAge, "max-age", varcache.Permanent, "lifetime; -1ns is permanent, 0 skips the write")
	return cmd
}

func newDeleteCmd(f *rootFlags, op openers) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY...",
		Short: "Delete the resolved leaf only; sibling variations stay",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd.Context(), op)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())
			return s.cache.Delete(cmd.Context(), args)
		},
	}
}

func newInvalidateCmd(f *rootFlags, op openers) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate KEY...",
		Short: "Mark the resolved leaf invalid, keeping it for stale reads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd.Context(), op)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())
			return s.cache.Invalidate(cmd.Context(), args)
		},
	}
}

func newInvalidateTagsCmd(f *rootFlags, op openers) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate-tags TAG...",
		Short: "Invalidate every entry carrying any of the tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd.Context(), op)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())
			return s.cache.InvalidateTags(cmd.Context(), args...)
		},
	}
}
