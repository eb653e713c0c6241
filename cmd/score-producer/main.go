package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// scoreSubmission mirrors the consumer's expected message shape
type scoreSubmission struct {
	GameID string  `json:"gameId"`
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "arcade-scores", "Kafka topic")
	gameID := flag.String("game", "", "Game ID to submit scores for (required)")
	users := flag.String("users", "", "Comma-separated user IDs to submit as (required)")
	rate := flag.Int("rate", 50, "Submissions per second")
	maxScore := flag.Int("max-score", 10000, "Upper bound for generated scores")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *gameID == "" || *users == "" {
		flag.Usage()
		os.Exit(1)
	}
	if _, err := uuid.Parse(*gameID); err != nil {
		log.Fatalf("Invalid game ID: %v", err)
	}

	userIDs := strings.Split(*users, ",")
	for _, id := range userIDs {
		if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
			log.Fatalf("Invalid user ID %q: %v", id, err)
		}
	}

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("Arcade score producer")
	fmt.Printf("  Brokers:  %s\n", *brokers)
	fmt.Printf("  Topic:    %s\n", *topic)
	fmt.Printf("  Game:     %s\n", *gameID)
	fmt.Printf("  Users:    %d\n", len(userIDs))
	fmt.Printf("  Rate:     %d/sec\n", *rate)
	fmt.Println()

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	sendSubmission := func(sub scoreSubmission) {
		data, err := json.Marshal(sub)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			// Key on user so one player's submissions stay ordered
			Key:   sarama.StringEncoder(sub.UserID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	shutdown := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nCompleted. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	interval := time.Second / time.Duration(*rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var sentCount int64

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\n\nDuration reached, shutting down...")
				shutdown()
				return
			}

			sub := scoreSubmission{
				GameID: *gameID,
				UserID: strings.TrimSpace(userIDs[rand.Intn(len(userIDs))]),
				Score:  float64(rand.Intn(*maxScore) + 1),
			}
			sendSubmission(sub)
			atomic.AddInt64(&sentCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Submitted: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&sentCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
