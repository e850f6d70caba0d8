package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/config"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/database"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/kafka"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/searchindex"
	"github.com/spf13/cobra"
)

var reindexSearchCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Reindex all cases into search. Prefers Kafka; falls back to HTTP if SEARCH_SERVICE_URL set.",
	RunE:  runReindexSearch,
}

func init() {
	rootCmd.AddCommand(reindexSearchCmd)
}

func runReindexSearch(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var cases []model.Case
	if err := conn.Find(&cases).Error; err != nil {
		return fmt.Errorf("list cases: %w", err)
	}
	log.Printf("reindex-search: found %d cases", len(cases))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Prefer Kafka, then HTTP
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopicCase != "" {
		log.Println("reindex-search: using Kafka for reindexing")
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicCase)
		defer producer.Close()
		for i := range cases {
			cs := &cases[i]
			payload := map[string]interface{}{
				"case_id":     cs.ID.String(),
				"public_id":   cs.PublicID,
				"category_id": cs.CategoryID.String(),
				"channel_id":  cs.ChannelID.String(),
				"status":      string(cs.Status),
				"author_id":   cs.AuthorID.String(),
			}
			if cs.ResponsibleID != nil {
				payload["responsible_id"] = cs.ResponsibleID.String()
			}
			producer.ProduceCaseEvent(ctx, "case.updated", payload)
			if (i+1)%50 == 0 || i == len(cases)-1 {
				log.Printf("reindex-search: sent %d/%d events to Kafka", i+1, len(cases))
			}
		}
		log.Printf("reindex-search: done, sent %d events to Kafka (search-service worker will index them)", len(cases))
		return nil
	}
	if cfg.SearchServiceURL != "" {
		log.Println("reindex-search: using HTTP for reindexing")
		client := searchindex.NewClient(cfg.SearchServiceURL)
		for i := range cases {
			client.IndexCase(ctx, &cases[i])
			if (i+1)%50 == 0 || i == len(cases)-1 {
				log.Printf("reindex-search: indexed %d/%d", i+1, len(cases))
			}
		}
		log.Printf("reindex-search: done, indexed %d cases via HTTP", len(cases))
		return nil
	}
	log.Println("reindex-search: neither KAFKA_BROKERS nor SEARCH_SERVICE_URL set")
	log.Printf("reindex-search: found %d cases (not reindexed)", len(cases))
	return nil
}
