package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List supported chains",
	RunE:  runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}

func runChains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	for _, c := range registry.List() {
		kind := "mainnet"
		if c.Testnet {
			kind = "testnet"
		}
		fmt.Printf("%-12s %-20s chainId=%-8d %s\n", c.ID, c.Name, c.ChainID, kind)
	}

	return nil
}
