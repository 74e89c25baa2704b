package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

// Deps is what the commands run against once configuration is resolved.
type Deps struct {
	NewPipeline func() ports.Pipeline
	Gateway     ports.ArtifactGateway
	Batch       ports.BatchEnqueuer
	Blobs       ports.ObjectStorage
}

// DepsFactory builds Deps from the resolved viper settings. The returned
// func releases whatever the factory opened.
type DepsFactory func(ctx context.Context, v *viper.Viper, needQueue bool) (*Deps, func(), error)

type Flags struct {
	CfgFile string
	Save    bool
	Limit   int
	Out     string
	Local   bool
}

func CreateRootCommand(flags *Flags, v *viper.Viper, factory DepsFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "haiku",
		Short: "Haiku generator",
		Long: `haiku writes a haiku for a word, illustrates it and stores it.

Examples:
  haiku generate frog --save      # generate and store one haiku
  haiku list --limit 5            # show the newest stored haikus
  haiku export --out haikus.xlsx  # export stored haikus to a spreadsheet
  haiku batch words.txt           # queue every word in a file`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			InitConfig(v, flags.CfgFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.haiku.yaml)")

	rootCmd.AddCommand(
		newGenerateCommand(flags, v, factory),
		newListCommand(flags, v, factory),
		newExportCommand(flags, v, factory),
		newBatchCommand(flags, v, factory),
	)
	return rootCmd
}

// InitConfig points v at the config file and HAIKU_* environment variables.
func InitConfig(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".haiku")
	}

	v.SetEnvPrefix("HAIKU")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

func withDeps(cmd *cobra.Command, v *viper.Viper, factory DepsFactory, needQueue bool, run func(*Deps) error) error {
	deps, release, err := factory(cmd.Context(), v, needQueue)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return run(deps)
}
