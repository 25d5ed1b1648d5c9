// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/bobbin/pkg/backends/redshift"
)

const probeTimeout = 10 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose warehouse connectivity and credentials",
	Long:  `Doctor checks each prerequisite for running queries: required environment variables, network reachability of the Redshift endpoint, AWS credential validity, and a database-level ping. Checks run in order and all results are reported.`,
	Run:   runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	failed := false
	check := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Printf("  [FAIL] %s: %v\n", name, err)
			return
		}
		fmt.Printf("  [ OK ] %s\n", name)
	}

	fmt.Println("Checking configuration...")
	rcfg, err := redshift.LoadConfigFromEnv()
	check("warehouse environment variables", err)
	if err != nil {
		// Remaining checks need the connection parameters
		os.Exit(1)
	}

	fmt.Println("Checking network...")
	check(fmt.Sprintf("TCP %s:%d", rcfg.Host, rcfg.Port),
		redshift.CheckNetwork(ctx, rcfg.Host, rcfg.Port, probeTimeout))

	fmt.Println("Checking AWS credentials...")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		check("AWS configuration", err)
	} else {
		identity, err := redshift.CheckAWSCredentials(ctx, sts.NewFromConfig(awsCfg))
		check("STS caller identity", err)
		if err == nil {
			fmt.Printf("         account %s, arn %s\n", identity.Account, identity.Arn)
		}
	}

	fmt.Println("Checking database...")
	backend, err := redshift.NewBackend(rcfg)
	if err != nil {
		check("backend construction", err)
	} else {
		defer backend.Close()
		check("database ping", backend.Ping(ctx))
	}

	if failed {
		fmt.Println("\nSome checks failed.")
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed.")
}
