// Package update checks GitHub for newer NovaStream releases and installs
// them with "go install".
//
//	checker := update.NewChecker(client, settings.UpdateRepository)
//	rel, newer, err := checker.Check(ctx)
//	if newer {
//	    err = update.Perform(ctx, rel.TagName, os.Stdout, os.Stderr)
//	}
package update
