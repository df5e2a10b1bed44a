package cmds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pandodao/generic"
	"github.com/pandodao/tag-wallet/core"
	"github.com/spf13/cobra"
)

type Cmd struct {
	Jobs       core.JobStore
	Wallets    core.WalletStore
	JobOptions core.JobOptions
}

func (c *Cmd) Run(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:   "tag-wallet-worker",
		Short: "operator commands of the tag wallet worker",
	}

	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "inspect and retry background jobs",
	}
	jobs.AddCommand(c.listJobsCmd())
	jobs.AddCommand(c.retryJobCmd())

	wallet := &cobra.Command{
		Use:   "wallet",
		Short: "inspect wallets",
	}
	wallet.AddCommand(c.showWalletCmd())

	root.AddCommand(jobs, wallet, c.migrateCmd())

	root.SetArgs(args)
	root.SetOut(os.Stdout)

	return root.ExecuteContext(ctx)
}

type jobView struct {
	ID        string         `json:"id"`
	Queue     string         `json:"queue"`
	Status    core.JobStatus `json:"status"`
	Attempts  string         `json:"attempts"`
	RunAt     string         `json:"run_at"`
	LastError string         `json:"last_error,omitempty"`
}

func viewJob(job *core.Job) jobView {
	return jobView{
		ID:        job.ID,
		Queue:     job.Queue,
		Status:    job.Status,
		Attempts:  fmt.Sprintf("%d/%d", job.Attempts, job.MaxAttempts),
		RunAt:     job.RunAt.Format("2006-01-02 15:04:05"),
		LastError: job.LastError,
	}
}

func (c *Cmd) listJobsCmd() *cobra.Command {
	var (
		queue  string
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list jobs, optionally by queue and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := c.Jobs.List(cmd.Context(), queue, core.JobStatus(status), limit)
			if err != nil {
				return err
			}

			return jsonPrint(cmd, generic.MapSlice(jobs, viewJob))
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "", "queue name")
	cmd.Flags().StringVar(&status, "status", "", "waiting, active, completed or failed")
	cmd.Flags().IntVar(&limit, "limit", 100, "max jobs")
	return cmd
}

func (c *Cmd) retryJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job_id>",
		Short: "requeue a failed job for another round of attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			job, err := c.Jobs.Find(ctx, args[0])
			if err != nil {
				return err
			}

			if err := c.Jobs.Requeue(ctx, job); err != nil {
				return err
			}

			return jsonPrint(cmd, viewJob(job))
		},
	}
}

func (c *Cmd) showWalletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user_id>",
		Short: "show the wallet of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := c.Wallets.FindUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return jsonPrint(cmd, wallet)
		},
	}
}

func (c *Cmd) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <customer_id>",
		Short: "enqueue an import of a customer's rail history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := core.Enqueue(cmd.Context(), c.Jobs, core.QueueMigrateTransaction, &core.MigrateTransaction{CustomerID: args[0]}, c.JobOptions)
			if err != nil {
				return err
			}

			return jsonPrint(cmd, viewJob(job))
		},
	}
}

func jsonPrint(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
