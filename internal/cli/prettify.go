package cli

import (
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/beautify"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prettify <file...>",
		Short: "Reformat generated text files in place",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPrettify,
	}

	cmd.Flags().Int("line-max", beautify.DefaultLineMax, "Maximum characters per line")
	cmd.Flags().Int("paragraph-words", beautify.DefaultParagraphWords, "Mean number of words per paragraph")
	cmd.Flags().Int("paragraph-var", beautify.DefaultParagraphVar, "Maximum deviation from the mean paragraph length")
	cmd.Flags().Int64("seed", 0, "Random seed for paragraph lengths (0 uses the clock)")

	RootCmd.AddCommand(cmd)
}

func runPrettify(cmd *cobra.Command, args []string) {
	lineMax, _ := cmd.Flags().GetInt("line-max")
	words, _ := cmd.Flags().GetInt("paragraph-words")
	variance, _ := cmd.Flags().GetInt("paragraph-var")
	seed, _ := cmd.Flags().GetInt64("seed")

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}
	b := beautify.New(beautify.Options{LineMax: lineMax, ParagraphWords: words, ParagraphVar: variance}, rng)

	for _, path := range args {
		if err := b.File(path); err != nil {
			exitErr("prettify "+path, err)
		}
		logger.Debug("prettified", zap.String("file", path))
	}
}
