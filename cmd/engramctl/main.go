package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/synaptic-mem/engram"
	"github.com/synaptic-mem/engram/config"
	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/ingest"
	"github.com/synaptic-mem/engram/pkg/retrieve"
)

var (
	ownerID string
	asJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "engramctl",
	Short: "CLI for the engram memory engine",
	Long:  `A command-line interface for ingesting, searching and inspecting an engram memory store.`,
}

var rememberCmd = &cobra.Command{
	Use:   "ingest <content>",
	Short: "Ingest a piece of content as one or more facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strand, _ := cmd.Flags().GetString("strand")

		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		engrams, err := eng.Remember(cmd.Context(), ingest.Params{
			OwnerID: ownerID,
			Content: args[0],
			Strand:  core.Strand(strand),
		})
		if err != nil {
			return fmt.Errorf("remember: %w", err)
		}
		return printJSONOr(asJSON, engrams, func() {
			fmt.Printf("ingested %d engram(s)\n", len(engrams))
			for _, e := range engrams {
				fmt.Printf("  %s [%s] %s\n", e.ID, e.Strand, e.Content)
			}
		})
	},
}

var recallCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a hybrid search against the memory store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := eng.Recall(cmd.Context(), retrieve.Params{
			OwnerID: ownerID,
			Query:   args[0],
			Limit:   limit,
		})
		if err != nil {
			return fmt.Errorf("recall: %w", err)
		}
		return printJSONOr(asJSON, result, func() {
			for _, h := range result.Hits {
				fmt.Printf("%.3f  %s  %s\n", h.FinalScore, h.Engram.ID, h.Engram.Content)
			}
			for _, cm := range result.Chronicles {
				fmt.Printf("fact  %.2f  %s.%s = %s\n", cm.Relevance, cm.Chronicle.Entity, cm.Chronicle.Attribute, cm.Chronicle.Value)
			}
		})
	},
}

var chronicleCmd = &cobra.Command{
	Use:   "chronicle",
	Short: "Record and query bitemporal facts",
}

var chronicleRecordCmd = &cobra.Command{
	Use:   "record <entity> <attribute> <value>",
	Short: "Record a fact, superseding whatever was current",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		c, err := eng.Temporal.RecordFact(cmd.Context(), ownerID, args[0], args[1], args[2], 1.0, time.Time{}, nil)
		if err != nil {
			return fmt.Errorf("record fact: %w", err)
		}
		return printJSONOr(asJSON, c, func() {
			fmt.Printf("recorded %s.%s = %s (effective %s)\n", c.Entity, c.Attribute, c.Value, c.EffectiveFrom.Format(time.RFC3339))
		})
	},
}

var chronicleQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query chronicles by entity, attribute and/or time range",
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, _ := cmd.Flags().GetString("entity")
		attribute, _ := cmd.Flags().GetString("attribute")

		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		results, err := eng.Temporal.Query(cmd.Context(), ownerID, core.ChronicleQuery{
			Entity:    entity,
			Attribute: attribute,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		return printJSONOr(asJSON, results, func() {
			for _, c := range results {
				until := "now"
				if c.EffectiveUntil != nil {
					until = c.EffectiveUntil.Format(time.RFC3339)
				}
				fmt.Printf("%s.%s = %s  [%s, %s)\n", c.Entity, c.Attribute, c.Value, c.EffectiveFrom.Format(time.RFC3339), until)
			}
		})
	},
}

var chronicleTimelineCmd = &cobra.Command{
	Use:   "timeline <entity>",
	Short: "List every chronicle ever recorded for an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		timeline, err := eng.Temporal.Timeline(cmd.Context(), ownerID, args[0])
		if err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
		return printJSONOr(asJSON, timeline, func() {
			for _, c := range timeline {
				until := "now"
				if c.EffectiveUntil != nil {
					until = c.EffectiveUntil.Format(time.RFC3339)
				}
				fmt.Printf("%s.%s = %s  [%s, %s)\n", c.Entity, c.Attribute, c.Value, c.EffectiveFrom.Format(time.RFC3339), until)
			}
		})
	},
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run signal decay cycles",
}

var decayRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one decay cycle for the owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		n, err := eng.Decay(cmd.Context(), ownerID)
		if err != nil {
			return fmt.Errorf("decay: %w", err)
		}
		fmt.Printf("decayed %d engram(s)\n", n)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engram/synapse/chronicle counts for the owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		stats, err := eng.Store.GetStats(cmd.Context(), ownerID)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		return printJSONOr(asJSON, stats, func() {
			fmt.Printf("engrams: %d  synapses: %d  chronicles: %d  nexuses: %d\n",
				stats.EngramCount, stats.SynapseCount, stats.ChronicleCount, stats.NexusCount)
		})
	},
}

func openEngine(ctx context.Context) (*engram.Engine, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("--owner is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return engram.Open(ctx, cfg, core.NewStdLogger())
}

func printJSONOr(asJSON bool, v any, human func()) error {
	if !asJSON {
		human()
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ownerID, "owner", "o", "", "Owner (tenant) ID")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output as JSON")

	rememberCmd.Flags().String("strand", "", "Override the extractor's strand classification")
	recallCmd.Flags().Int("limit", retrieve.DefaultLimit, "Maximum number of hits to return")

	chronicleQueryCmd.Flags().String("entity", "", "Filter by entity")
	chronicleQueryCmd.Flags().String("attribute", "", "Filter by attribute")
	chronicleCmd.AddCommand(chronicleRecordCmd, chronicleQueryCmd, chronicleTimelineCmd)
	decayCmd.AddCommand(decayRunCmd)

	rootCmd.AddCommand(
		rememberCmd,
		recallCmd,
		chronicleCmd,
		decayCmd,
		statsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
