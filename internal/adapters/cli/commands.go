package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/usecase"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/export/xlsx"
)

func newGenerateCommand(flags *Flags, v *viper.Viper, factory DepsFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <word>",
		Short: "Generate a haiku and illustration for a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, v, factory, false, func(deps *Deps) error {
				pipeline := deps.NewPipeline()
				defer func() { usecase.ReleaseImages(cmd.Context(), deps.Blobs, pipeline.Images()) }()
				state, err := pipeline.Submit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), state)
				if !flags.Save {
					return nil
				}
				if _, err := pipeline.Save(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "saved")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&flags.Save, "save", false, "Store the haiku after generating it")
	return cmd
}

func newListCommand(flags *Flags, v *viper.Viper, factory DepsFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored haikus, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, v, factory, false, func(deps *Deps) error {
				items := limitItems(deps.Gateway.List(cmd.Context()), flags.Limit)
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no haikus stored yet")
					return nil
				}
				for _, item := range items {
					printArtifact(cmd.OutOrStdout(), item)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&flags.Limit, "limit", 10, "Maximum number of haikus to show (0 for all)")
	return cmd
}

func newExportCommand(flags *Flags, v *viper.Viper, factory DepsFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored haikus to an xlsx spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, v, factory, false, func(deps *Deps) error {
				items := deps.Gateway.List(cmd.Context())
				file, err := os.Create(flags.Out)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				if err := xlsx.Write(file, items); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close export file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d haikus to %s\n", len(items), flags.Out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&flags.Out, "out", "o", "haikus.xlsx", "Output file")
	return cmd
}

func newBatchCommand(flags *Flags, v *viper.Viper, factory DepsFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Generate haikus for every word in a file (one per line)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := ReadWordsFile(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd, v, factory, !flags.Local, func(deps *Deps) error {
				if !flags.Local {
					accepted, err := deps.Batch.Enqueue(cmd.Context(), words)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "queued %d words\n", accepted)
					return nil
				}
				return runLocalBatch(cmd, deps, words)
			})
		},
	}
	cmd.Flags().BoolVar(&flags.Local, "local", false, "Run the words in this process instead of queueing them")
	return cmd
}

// runLocalBatch processes words one after another. A failed word is reported
// and skipped.
func runLocalBatch(cmd *cobra.Command, deps *Deps, words []string) error {
	failed := 0
	for _, word := range words {
		pipeline := deps.NewPipeline()
		_, err := pipeline.Submit(cmd.Context(), word)
		var saveErr error
		if err == nil {
			_, saveErr = pipeline.Save(cmd.Context())
		}
		usecase.ReleaseImages(cmd.Context(), deps.Blobs, pipeline.Images())
		if err != nil {
			return err
		}
		if saveErr != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", word, saveErr)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: saved\n", word)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d words failed to save", failed, len(words))
	}
	return nil
}

// ReadWordsFile returns the trimmed non-empty lines of filename. Lines
// starting with # are comments.
func ReadWordsFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("batch file %s has no words", filename)
	}
	return words, nil
}

func printState(w io.Writer, state domain.PipelineState) {
	fmt.Fprintf(w, "%s [%s]\n\n", state.Word, state.Language)
	for _, line := range state.Haiku {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
	if state.Image.Empty() {
		fmt.Fprintln(w, "image: none")
	} else {
		fmt.Fprintf(w, "image: %s\n", state.Image)
	}
}

func printArtifact(w io.Writer, item domain.StoredArtifact) {
	fmt.Fprintf(w, "#%d %s [%s] %s\n", item.ID, item.InputWord, item.Language, item.CreatedAt.Format("2006-01-02 15:04"))
	for _, line := range strings.Split(item.HaikuText, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func limitItems(items []domain.StoredArtifact, limit int) []domain.StoredArtifact {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
