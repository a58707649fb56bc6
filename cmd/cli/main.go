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
	"os"
	"time"

	"github.com/arcentrix/arcentra-retry/pkg/env"
	"github.com/arcentrix/arcentra-retry/pkg/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "arcentra-retry-cli",
	Short:         "arcentra-retry-cli starts and inspects retry runs",
	Long:          "arcentra-retry-cli talks to the arcentra-retry HTTP API to start retry runs over failed process instances and follow their progress.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	// a .env in the working directory may carry ARCENTRA_RETRY_*; real env wins
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		env.GetEnvString("ARCENTRA_RETRY_SERVER", "http://127.0.0.1:8080"), "arcentra-retry base url")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout",
		env.GetEnvDuration("ARCENTRA_RETRY_TIMEOUT", 30*time.Second), "request timeout")

	rootCmd.AddCommand(startCmd, statusCmd, listCmd)
	rootCmd.AddCommand(version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
