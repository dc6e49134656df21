// Command setup-pubsub-local creates the chat event topic and its
// subscriptions on the Pub/Sub emulator.
package main

import (
	"context"
	"flag"
	"time"

	"campusportal/internal/config"
	"campusportal/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func main() {
	reset := flag.Bool("reset", false, "delete every topic and subscription on the emulator first")
	flag.Parse()

	envErr := godotenv.Load()
	logger := logger.New()
	if envErr != nil {
		logger.Info().Msg("No .env file found, relying on system environment variables.")
	}
	logger.Info().Msg("Starting Pub/Sub setup for the local environment.")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set in the environment.")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set for local environment.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	if *reset {
		resetLocalEmulator(ctx, client, logger)
	}
	createOrUpdateResources(ctx, client, logger, cfg.ChatEventsTopic)

	logger.Info().Msg("Pub/Sub setup for local environment complete.")
}

// resetLocalEmulator deletes every topic and subscription. Only for the emulator.
func resetLocalEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) {
	logger.Info().Msg("--- Deleting all existing resources for a clean local setup ---")

	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list subscriptions: %v", err)
		}
		logger.Info().Msgf("Deleting subscription: %s", sub.ID())
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Msgf("Failed to delete subscription %s: %v", sub.ID(), err)
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list topics: %v", err)
		}
		logger.Info().Msgf("Deleting topic: %s", topic.ID())
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Msgf("Failed to delete topic %s: %v", topic.ID(), err)
		}
	}
}

// createOrUpdateResources ensures the chat event topic, its dead letter topic
// and a pull subscription for each exist.
func createOrUpdateResources(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string) {
	sevenDays := 7 * 24 * time.Hour
	dlqTopicID := topicID + "-dlq"

	dlqTopic := createTopicIfNotExists(ctx, client, logger, dlqTopicID, sevenDays)
	mainTopic := createTopicIfNotExists(ctx, client, logger, topicID, sevenDays)

	retry := &pubsub.RetryPolicy{
		MinimumBackoff: 10 * time.Second,
		MaximumBackoff: 600 * time.Second,
	}
	createOrUpdateSubscription(ctx, client, logger, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            mainTopic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy:      retry,
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	})
	createOrUpdateSubscription(ctx, client, logger, dlqTopicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            dlqTopic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy:      retry,
	})
}

func createTopicIfNotExists(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string, retention time.Duration) *pubsub.Topic {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if topic %s exists: %v", topicID, err)
	}
	if exists {
		logger.Info().Msgf("Topic %s already exists.", topicID)
		return topic
	}

	logger.Info().Msgf("Creating topic: %s with %v retention", topicID, retention)
	created, err := client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{
		RetentionDuration: retention,
	})
	if err != nil {
		logger.Fatal().Msgf("Failed to create topic %s: %v", topicID, err)
	}
	return created
}

func createOrUpdateSubscription(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, subID string, config pubsub.SubscriptionConfig) {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if subscription %s exists: %v", subID, err)
	}
	if !exists {
		logger.Info().Msgf("Creating subscription %s on topic %s", subID, config.Topic.ID())
		if _, err := client.CreateSubscription(ctx, subID, config); err != nil {
			logger.Fatal().Msgf("Failed to create subscription '%s': %v", subID, err)
		}
		return
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to get config for subscription '%s': %v", subID, err)
	}
	if existing.AckDeadline == config.AckDeadline && sameRetry(existing.RetryPolicy, config.RetryPolicy) {
		logger.Info().Msgf("Subscription %s is up to date.", subID)
		return
	}

	logger.Info().Msgf("Updating subscription '%s'", subID)
	update := pubsub.SubscriptionConfigToUpdate{
		AckDeadline: config.AckDeadline,
		RetryPolicy: config.RetryPolicy,
	}
	if _, err := sub.Update(ctx, update); err != nil {
		logger.Fatal().Msgf("Failed to update subscription '%s': %v", subID, err)
	}
}

func sameRetry(a, b *pubsub.RetryPolicy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.MinimumBackoff == b.MinimumBackoff && a.MaximumBackoff == b.MaximumBackoff
}
