package cmd

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dcook-net/json-everything/jsonschema"
)

type rootOpts struct {
	cfgFile     string
	debugModeOn bool
}

var rootOpt rootOpts

const (
	outputTable = "table"
	outputJSON  = "json"
)

var longRootCmdDescription = `jev evaluates JSON documents against JSON Schema definitions.

Schemas are compiled once and can be applied to any number of documents;
schema and document files may be JSON or YAML, decided by file extension.
Defaults for the shared flags can live in a config file (default
$HOME/.jev.yaml) or in the environment.
`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "jev",
	Short:         "Evaluate JSON documents against JSON Schema definitions.",
	Long:          longRootCmdDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("jev: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(NewValidateCmd(), NewCheckCmd(), NewDraftsCmd())

	rootCmd.PersistentFlags().StringVar(&rootOpt.cfgFile, "config", "", "config file of the jev tool (default is $HOME/.jev.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&rootOpt.debugModeOn, "debug", "d", false, "turn on debug mode, tracing keyword dispatch")
	rootCmd.PersistentFlags().String("draft", "", "dialect to evaluate under (overrides the schema's $schema declaration)")
	rootCmd.PersistentFlags().Bool("fail-fast", false, "let keywords stop scanning once their outcome is a failure")
	rootCmd.PersistentFlags().Int("max-depth", 0, "limit on nested schema applications (0 means the library default)")
	rootCmd.PersistentFlags().StringP("output", "o", outputTable, "output format, table or json")
	rootCmd.DisableAutoGenTag = true

	for _, key := range []string{"draft", "fail-fast", "max-depth", "output"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if rootOpt.cfgFile == "" {
		home, err := homedir.Dir()
		if err == nil {
			rootOpt.cfgFile = filepath.Join(home, ".jev.yaml")
		}
	}
	if rootOpt.cfgFile != "" {
		viper.SetConfigFile(rootOpt.cfgFile)
	}

	viper.AutomaticEnv() // read in environment variables that match

	logrus.SetOutput(os.Stderr)
	if rootOpt.debugModeOn {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("using config file: %s", viper.ConfigFileUsed())
	}
}

// evaluateOptions assembles the per-call evaluation options from the
// effective flag/config/env values.
func evaluateOptions() (jsonschema.EvaluateOpt, error) {
	opt := jsonschema.EvaluateOpt{
		FailFast: viper.GetBool("fail-fast"),
		MaxDepth: viper.GetInt("max-depth"),
	}
	if name := viper.GetString("draft"); name != "" {
		d, err := jsonschema.ParseDraft(name)
		if err != nil {
			return opt, err
		}
		opt.Draft = d
	}
	if rootOpt.debugModeOn {
		opt.Logger = logrus.StandardLogger()
	}
	return opt, nil
}

func outputFormat() (string, error) {
	format := viper.GetString("output")
	switch format {
	case outputTable, outputJSON:
		return format, nil
	default:
		return "", errInvalidOutput(format)
	}
}
