// Command pianist analyzes the musical structure of a MIDI file and
// prints the result as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tylerforesthauser/pianist-sub000/engine"
	"github.com/tylerforesthauser/pianist-sub000/logging"
	"github.com/tylerforesthauser/pianist-sub000/midifile"
)

var (
	flagVerbose       bool
	flagCompact       bool
	flagRestThreshold float64
	flagMinMotifLen   int
	flagMaxMotifLen   int
	flagKeyProfile    string
)

var rootCmd = &cobra.Command{
	Use:   "pianist",
	Short: "Musical structure analysis for note-event compositions",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.mid>",
	Short: "Extract motifs, phrases, harmony and form from a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			logging.SetLevel(logging.DebugLevel)
		}

		comp, err := midifile.Read(args[0])
		if err != nil {
			return err
		}

		config := engine.DefaultConfig()
		config.Phrase.RestThresholdBeats = flagRestThreshold
		config.Motif.MinLen = flagMinMotifLen
		config.Motif.MaxLen = flagMaxMotifLen
		config.Harmony.KeyProfile = flagKeyProfile

		analysis, err := engine.NewAnalyzer(config).Analyze(comp)
		if err != nil {
			return err
		}

		var out []byte
		if flagCompact {
			out, err = json.Marshal(analysis)
		} else {
			out, err = json.MarshalIndent(analysis, "", "  ")
		}
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	defaults := engine.DefaultConfig()
	analyzeCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	analyzeCmd.Flags().BoolVar(&flagCompact, "compact", false, "print compact JSON")
	analyzeCmd.Flags().Float64Var(&flagRestThreshold, "rest-threshold", defaults.Phrase.RestThresholdBeats, "rest length in beats that forces a phrase boundary")
	analyzeCmd.Flags().IntVar(&flagMinMotifLen, "min-motif-len", defaults.Motif.MinLen, "minimum motif length in notes")
	analyzeCmd.Flags().IntVar(&flagMaxMotifLen, "max-motif-len", defaults.Motif.MaxLen, "maximum motif length in notes")
	analyzeCmd.Flags().StringVar(&flagKeyProfile, "key-profile", defaults.Harmony.KeyProfile, "key correlation profile (krumhansl or temperley)")
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
