package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageforge/pageforge/pkg/manifest"
)

// newValidateCmd creates the validate command. It schema-checks manifests
// without resolving inheritance or converting them.
func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Validate manifests without converting them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if !validateOne(path, strict) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d manifests invalid", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat validation warnings as errors")

	return cmd
}

// validateOne validates a single manifest and prints its findings. It
// returns false when the manifest has errors.
func validateOne(path string, strict bool) bool {
	m, err := manifest.ParseFile(path)
	if err != nil {
		printError("%s: %v", path, err)
		return false
	}

	result := manifest.Validate(m)
	if strict {
		result = result.Strict()
	}

	for _, w := range result.Warnings {
		printWarning("%s: %s", path, w)
	}
	for _, e := range result.Errors {
		printError("%s: %s", path, e)
	}
	if !result.OK() {
		return false
	}
	printSuccess("%s is valid", path)
	return true
}
