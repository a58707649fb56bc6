// Copyright 2026 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/spf13/cobra"
)

var (
	instanceIds   []string
	watch         bool
	watchInterval time.Duration
	listStatus    string
	listPage      int
	listPageSize  int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start a retry run over process instances",
	Example: `  arcentra-retry-cli start -i pi-1 -i pi-2
  arcentra-retry-cli start -i pi-1,pi-2 --watch`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(instanceIds) == 0 {
			return errors.New("at least one --instance is required")
		}
		client := newAPIClient(serverAddr, timeout)
		runId, err := client.startRun(instanceIds)
		if err != nil {
			return err
		}
		cmd.Println(runId)
		if !watch {
			return nil
		}
		return watchRun(cmd.OutOrStdout(), client, runId, watchInterval)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <runId>",
	Short: "show the progress of a retry run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(serverAddr, timeout)
		if watch {
			return watchRun(cmd.OutOrStdout(), client, args[0], watchInterval)
		}
		run, err := client.getRun(args[0])
		if err != nil {
			return err
		}
		printRun(cmd.OutOrStdout(), run)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list retry runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, err := newAPIClient(serverAddr, timeout).listRuns(listStatus, listPage, listPageSize)
		if err != nil {
			return err
		}
		printRuns(cmd.OutOrStdout(), page)
		return nil
	},
}

func init() {
	startCmd.Flags().StringSliceVarP(&instanceIds, "instance", "i", nil, "process instance id, repeatable or comma separated")
	for _, c := range []*cobra.Command{startCmd, statusCmd} {
		c.Flags().BoolVarP(&watch, "watch", "w", false, "poll until the run finishes")
		c.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "poll interval used with --watch")
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status: pending, running, completed, failed")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 20, "page size, at most 100")
}

// watchRun prints a progress line per poll until the run is terminal.
func watchRun(w io.Writer, client *apiClient, runId string, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	for {
		run, err := client.getRun(runId)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, progressLine(run))
		if run.Status.IsTerminal() {
			printRun(w, run)
			if run.Status == model.RunStatusFailed {
				return fmt.Errorf("run %s failed: %s", run.RunId, run.LastError)
			}
			return nil
		}
		time.Sleep(interval)
	}
}

func progressLine(run *model.RetryRun) string {
	return fmt.Sprintf("%s %3d%% jobs %d/%d/%d external tasks %d/%d/%d",
		run.Status, run.OverallProgress,
		run.Counts.Jobs.Completed, run.Counts.Jobs.Failed, run.Counts.Jobs.Total,
		run.Counts.ExternalTasks.Completed, run.Counts.ExternalTasks.Failed, run.Counts.ExternalTasks.Total)
}

func printRun(w io.Writer, run *model.RetryRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k string, v any) { _, _ = fmt.Fprintf(tw, "%s\t%v\n", k, v) }
	row("Run", run.RunId)
	row("Status", run.Status)
	row("Progress", fmt.Sprintf("%d%%", run.OverallProgress))
	row("Instances", strings.Join(run.InstanceIds, ","))
	if run.SkippedInstanceCount > 0 {
		row("Skipped", strings.Join(run.SkippedInstances, ","))
	}
	row("Jobs", countsText(run.Counts.Jobs))
	row("External tasks", countsText(run.Counts.ExternalTasks))
	if run.RemoteBatchId != "" {
		row("Batch", run.RemoteBatchId)
	}
	if run.LastError != "" {
		row("Error", fmt.Sprintf("[%s] %s", run.ErrorKind, run.LastError))
	}
	_ = tw.Flush()
}

func printRuns(w io.Writer, page *runPage) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTATUS\tPROGRESS\tINSTANCES\tCREATED")
	for _, run := range page.List {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d%%\t%d\t%s\n",
			run.RunId, run.Status, run.OverallProgress, len(run.InstanceIds), run.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "page %d, %d of %d runs\n", page.Page, len(page.List), page.Total)
}

func countsText(c model.ItemCounts) string {
	return fmt.Sprintf("total %d, completed %d, failed %d, remaining %d", c.Total, c.Completed, c.Failed, c.Remaining)
}
