// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rpfmpack "github.com/rpfm-go/pack"
	"github.com/rpfm-go/pack/log"
)

var (
	gameKey     string
	allowEditCA bool
	pinGUIDs    bool
	verbose     bool
	logger      = log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelInfo)))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "packtool",
		Short: "Inspect and edit Total War Pack files",
		Long:  "A command-line front end over the Pack container/table/dependency core, built for scripted QA and fuzz-corpus generation.",
	}
	rootCmd.PersistentFlags().StringVarP(&gameKey, "game", "g", "warhammer_3", "target game key")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logger = log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelDebug)))
		}
	}

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("packtool 0.1.0")
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <pack>",
		Short: "List every file inside a Pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, errs := rpfmpack.OpenAndMerge(args, nil)
			defer merged.Close()
			if errs.HasErrors() {
				logger.Warnf("load warnings: %s", errs.Error())
			}
			for _, path := range merged.Files() {
				fmt.Println(path)
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "extract <pack>",
		Short: "Extract every file from a Pack to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, errs := rpfmpack.OpenAndMerge(args, nil)
			defer merged.Close()
			if errs.HasErrors() {
				logger.Warnf("load warnings: %s", errs.Error())
			}
			for _, path := range merged.Files() {
				dest := outDir + "/" + path
				if err := merged.Extract(path, dest, nil); err != nil {
					logger.Errorf("extract %s: %v", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "./extracted", "destination directory")
	return cmd
}

func mergeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "merge <pack...>",
		Short: "Merge one or more Packs and save the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := rpfmpack.NewRegistry()
			game := registry.Get(gameKey)
			if game == nil {
				return fmt.Errorf("unknown game key %q", gameKey)
			}
			merged, errs := rpfmpack.OpenAndMerge(args, nil)
			defer merged.Close()
			if errs.HasErrors() {
				logger.Warnf("load warnings: %s", errs.Error())
			}
			if err := merged.Save(out, game, allowEditCA, pinGUIDs); err != nil {
				return err
			}
			logger.Infof("saved %d files to %s", len(merged.Files()), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "merged.pack", "output path")
	cmd.Flags().BoolVar(&allowEditCA, "allow-edit-ca", false, "allow saving over a non-Mod/Movie subtype")
	cmd.Flags().BoolVar(&pinGUIDs, "pin-guids", false, "keep existing DB table GUIDs instead of regenerating")
	return cmd
}
