package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"xdao.co/pset/cidutil"
	"xdao.co/pset/psettext"
	"xdao.co/pset/storage"
	"xdao.co/pset/storage/bundle"
	"xdao.co/pset/storage/grpcstore"
	"xdao.co/pset/storage/localfs"
)

// openStore opens every configured backend in a fixed order: the local
// directory first, then servers as given. With several backends,
// write policy "first" writes to the first and reads fall back in order,
// while "all" writes to every backend and requires equal CIDs.
func openStore(opts *options) (storage.Store, func() error, error) {
	switch opts.writePolicy {
	case "first", "all":
	default:
		return nil, nil, usageError("invalid --write-policy %q (want first|all)", opts.writePolicy)
	}

	var (
		named   []storage.NamedStore
		closers []func() error
	)
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	if opts.storeDir != "" {
		st, err := localfs.New(opts.storeDir)
		if err != nil {
			return nil, nil, err
		}
		named = append(named, storage.NamedStore{Name: "localfs:" + opts.storeDir, Store: st})
	}
	for _, target := range opts.servers {
		target = strings.TrimSpace(target)
		if target == "" {
			_ = closeAll()
			return nil, nil, usageError("empty --server")
		}
		client, err := grpcstore.Dial(target, grpcstore.DialOptions{Timeout: opts.dialTimeout, MaxMsgBytes: opts.maxMsgBytes})
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("dial %s: %w", target, err)
		}
		client.Timeout = opts.timeout
		named = append(named, storage.NamedStore{Name: target, Store: client})
		closers = append(closers, client.Close)
	}

	switch {
	case len(named) == 0:
		return nil, nil, usageError("no store configured: set --store-dir or --server")
	case len(named) == 1:
		return named[0].Store, closeAll, nil
	case opts.writePolicy == "all":
		return storage.ReplicatingStore{Backends: named}, closeAll, nil
	default:
		stores := make([]storage.Store, 0, len(named))
		for _, n := range named {
			stores = append(stores, n.Store)
		}
		return storage.MultiStore{Stores: stores}, closeAll, nil
	}
}

func parseCID(s string) (cid.Cid, error) {
	id, err := cidutil.Parse(strings.TrimSpace(s))
	if err != nil {
		return cid.Undef, usageError("invalid CID %q: %v", s, err)
	}
	return id, nil
}

func newPutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "put [file|-]",
		Short: "Store a PSET and print its CID",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseText(cmd, args)
			if err != nil {
				return err
			}
			st, closeFn, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeFn()

			if r, ok := st.(storage.ReplicatingStore); ok {
				id, per, err := r.PutAll(p)
				for _, b := range r.Backends {
					if got, ok := per[b.Name]; ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s\t%s\n", b.Name, got)
					}
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			}

			id, err := st.Put(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <cid>",
		Short: "Print the canonical text of a stored PSET",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCID(args[0])
			if err != nil {
				return err
			}
			st, closeFn, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := st.Get(id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), psettext.Render(p))
			return err
		},
	}
}

func newHasCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "has <cid>",
		Short: "Exit 0 when a PSET is stored, 1 otherwise",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCID(args[0])
			if err != nil {
				return err
			}
			st, closeFn, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeFn()

			if !st.Has(id) {
				return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "true")
			return err
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		output string
		labels []string
		index  bool
	)
	cmd := &cobra.Command{
		Use:   "export <cid>...",
		Short: "Write stored PSETs to a deterministic TAR bundle",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]cid.Cid, 0, len(args))
			for _, a := range args {
				id, err := parseCID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			labelMap := make(map[string]cid.Cid, len(labels))
			for _, kv := range labels {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return usageError("invalid --label %q (want name=cid)", kv)
				}
				id, err := parseCID(v)
				if err != nil {
					return err
				}
				labelMap[strings.TrimSpace(k)] = id
			}

			st, closeFn, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeFn()

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return bundle.Export(w, st, ids, bundle.ExportOptions{Labels: labelMap, IncludeIndex: index || len(labelMap) > 0})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "bundle file (- for stdout)")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "name=cid label recorded in index.json (repeatable)")
	cmd.Flags().BoolVar(&index, "index", true, "include index.json")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var ignoreUnknown bool
	cmd := &cobra.Command{
		Use:   "import [bundle|-]",
		Short: "Store every PSET of a bundle and print their CIDs",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			st, closeFn, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeFn()

			ids, err := bundle.ImportWithOptions(r, st, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "skip entries that are not PSETs")
	return cmd
}
