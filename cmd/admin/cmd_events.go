package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fekuna/repairshop-service/internal/broker"
	"github.com/fekuna/repairshop-service/internal/order/dto"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsFile string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with the order event stream",
}

var eventsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish order events from a JSON lines file",
	Long: `Publish reads one event per line and writes it to the orders topic. Events
are keyed by order id so that every event of one order lands on the same
partition and is applied in the order it was published.`,
	Args: cobra.NoArgs,
	RunE: runEventsPublish,
}

func init() {
	eventsPublishCmd.Flags().StringVarP(&eventsFile, "file", "f", "", "JSON lines file with one event per line")
	_ = eventsPublishCmd.MarkFlagRequired("file")

	eventsCmd.AddCommand(eventsPublishCmd)
}

func runEventsPublish(cmd *cobra.Command, args []string) error {
	f, err := os.Open(eventsFile)
	if err != nil {
		return err
	}
	defer f.Close()

	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
	})
	defer producer.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	published, line := 0, 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var event dto.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return fmt.Errorf("%s:%d: %w", eventsFile, line, err)
		}
		if event.EventID == "" {
			event.EventID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}
		key, err := eventKey(&event)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", eventsFile, line, err)
		}
		value, err := json.Marshal(&event)
		if err != nil {
			return err
		}
		if err := producer.Publish(cmd.Context(), key, value); err != nil {
			return fmt.Errorf("publish %s after %d events: %w", event.EventID, published, err)
		}
		published++
		appLog.Debug("event published", zap.String("event_id", event.EventID), zap.String("type", event.EventType), zap.String("key", key))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d events published to %s\n", published, cfg.Kafka.OrdersTopic)
	return nil
}

// eventKey is the order id the event belongs to.
func eventKey(event *dto.Event) (string, error) {
	var ids struct {
		ID      string `json:"id"`
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(event.Payload, &ids); err != nil {
		return "", err
	}
	key := ids.ID
	if event.EventType == dto.EventPaymentRecorded {
		key = ids.OrderID
	}
	if key == "" {
		return "", fmt.Errorf("%s event without an order id", event.EventType)
	}
	return key, nil
}
