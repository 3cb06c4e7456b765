// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/graft/pkg/ux"
)

func runRules(cmd *cobra.Command, args []string) {
	eng, cleanup, err := buildEngine()
	if err != nil {
		ux.Error(fmt.Sprintf("Could not load rules from %s: %v", rulesPath, err))
		os.Exit(1)
	}
	defer cleanup()

	rules := eng.Rules()
	ux.Title(fmt.Sprintf("%d rules loaded from %s", len(rules), rulesPath))
	ux.Muted("fingerprint " + eng.Fingerprint())

	for _, r := range rules {
		detail := string(r.Kind)
		if r.Glob != "" {
			detail += ", glob " + r.Glob
		}
		if ux.Plain() {
			fmt.Printf("%s\t%s\n", r.Name, detail)
			continue
		}
		fmt.Printf("%s %s %s\n", ux.IconBullet.Render(), r.Name, ux.Styles.Muted.Render("("+detail+")"))
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("graft %s\n", version)
}
