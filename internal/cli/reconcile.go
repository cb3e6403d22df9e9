package cli

import (
	"fmt"

	uuid "github.com/gofrs/uuid"
	engagementRepository "github.com/qolzam/telar/apps/social/engagement/repository"
	"github.com/qolzam/telar/apps/social/engagement/services"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/platform"
	postsRepository "github.com/qolzam/telar/apps/social/posts/repository"
	postsServices "github.com/qolzam/telar/apps/social/posts/services"
	"github.com/spf13/cobra"
)

// ReconcileOptions holds the reconcile command flags.
type ReconcileOptions struct {
	BatchSize   int
	Concurrency int
	Posts       []string
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recount likes, comments and shares of every post",
		Long: `Recount the denormalized counters of posts from their interaction and comment rows.

Posts are walked in id order in batches. Drifted counters are overwritten and
listed in the report. Exits with 1 when any post could not be reconciled.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "posts per page (default RECONCILE_BATCH_SIZE)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "posts recounted in parallel (default RECONCILE_CONCURRENCY)")
	cmd.Flags().StringSliceVar(&opts.Posts, "post", nil, "reconcile only these post ids (repeatable)")

	return cmd
}

func runReconcile(cmd *cobra.Command, rootOpts *RootOptions, opts *ReconcileOptions) error {
	cfg, err := rootOpts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	batchSize, concurrency := opts.BatchSize, opts.Concurrency
	if batchSize <= 0 {
		batchSize = cfg.Reconcile.BatchSize
	}
	if concurrency <= 0 {
		concurrency = cfg.Reconcile.Concurrency
	}

	ctx := cmd.Context()
	// only a shared redis cache holds the server's snapshots
	p, err := platform.New(ctx, cfg, platform.Options{SkipMigrate: true, DisableCache: cfg.Cache.Backend != "redis"})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open platform", err)
	}
	defer p.Close()

	postIDs, err := decodePosts(p.Codec, opts.Posts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --post", err)
	}

	if rootOpts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "reconciling with driver=%s batch-size=%d concurrency=%d\n", cfg.Database.Driver, batchSize, concurrency)
	}

	posts := postsRepository.NewSQLRepository(p.DB)
	store := engagementRepository.NewSQLInteractionStore(p.DB)
	reconciler := services.NewReconciler(posts, services.NewCounterProjector(store, posts), postsServices.NewPostService(posts, p.Codec, p.Cache))

	report, err := reconciler.Reconcile(ctx, services.ReconcileOptions{
		BatchSize:   batchSize,
		Concurrency: concurrency,
		PostIDs:     postIDs,
	})
	if report != nil {
		if writeErr := WriteReport(cmd.OutOrStdout(), rootOpts.Format, report, p.Codec); writeErr != nil {
			return writeErr
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "reconciliation aborted", err)
	}
	if report.Failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d posts could not be reconciled", report.Failed)}
	}
	return nil
}

func decodePosts(codec globalid.Codec, refs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := codec.Decode(globalid.TypePost, ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
