package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/htmlclean"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [flags] [file...]",
	Short: "Sanitize HTML files, or stdin when no file is given",
	Long: `Normalize runs every input through the parser and tree builder and prints
the balanced result. Files are processed in parallel; output keeps the
order of the arguments.`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().Bool("text", false, "print the text content instead of HTML")
	normalizeCmd.Flags().Int("jobs", 0, "files processed in parallel (0 = GOMAXPROCS)")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	textOnly, err := cmd.Flags().GetBool("text")
	if err != nil {
		return fmt.Errorf("failed to get text flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	p, err := policyFromFlags(cmd)
	if err != nil {
		return err
	}

	var results []string
	if len(args) == 0 {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		out, err := normalize("<stdin>", string(src), p, textOnly)
		if err != nil {
			return err
		}
		results = []string{out}
	} else {
		results, err = normalizeFiles(cmd.Context(), args, p, textOnly, jobs)
		if err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r); err != nil {
			return err
		}
	}
	return nil
}

// normalizeFiles sanitizes every file concurrently. Each file gets its
// own parser and tree builder; p is only read.
func normalizeFiles(ctx context.Context, paths []string, p *htmlclean.Policy, textOnly bool, jobs int) ([]string, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			out, err := normalize(path, string(src), p, textOnly)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func normalize(name, src string, p *htmlclean.Policy, textOnly bool) (string, error) {
	tree, clipped, err := htmlclean.Build(src, p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if clipped {
		logger.Warn("input clipped", zap.String("input", name), zap.Int("clip", p.ClipLength()))
	}
	if textOnly {
		return tree.Text(), nil
	}
	return tree.HTML(), nil
}
