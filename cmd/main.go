/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jerry-enebeli/banklink"
	"github.com/jerry-enebeli/banklink/adapters/xs2a"
	"github.com/jerry-enebeli/banklink/config"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Banklink represents the CLI application, encapsulating the root Cobra command.
type Banklink struct {
	cmd *cobra.Command
}

// banklinkInstance holds the service instance and its configuration, shared by
// the subcommands.
type banklinkInstance struct {
	banklink *banklink.Banklink
	cnf      *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service instance before
// running any command.
func preRun(app *banklinkInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		app.banklink = setupBanklink(cnf)
		app.cnf = cnf

		return nil
	}
}

// setupBanklink builds the service from the configuration: the bank catalogue
// becomes the registry's resolver and the XS2A adapter is wired against the
// configured gateway. HBCI and aggregator adapters need external collaborators
// (a terminal-protocol client, an aggregator SDK) and are registered by
// embedders, not by this CLI.
func setupBanklink(cfg *config.Configuration) *banklink.Banklink {
	resolver := banklink.StaticResolver{}
	for _, bank := range cfg.Banks {
		info := &banklink.BankInfo{
			BankCode:     bank.BankCode,
			Name:         bank.Name,
			PreferredAPI: model.BankAPI(bank.PreferredAPI),
		}
		for _, api := range bank.SupportedAPIs {
			info.SupportedAPIs = append(info.SupportedAPIs, model.BankAPI(api))
		}
		resolver[bank.BankCode] = info
	}

	return banklink.NewBanklink(resolver, xs2a.NewAdapter(cfg.XS2A.GatewayURL))
}

// NewCLI creates the command-line interface for the banklink service.
func NewCLI() *Banklink {
	var configFile string
	b := &banklinkInstance{}

	var rootCmd = &cobra.Command{
		Use:   "banklink",
		Short: "Multi-protocol bank aggregation service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./banklink.json", "Configuration file for banklink")

	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))

	return &Banklink{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Banklink) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
