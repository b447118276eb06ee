/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package supervisor wires a set of stream definitions to a configuration
// file and runs them against live Kafka brokers, restarting the whole
// epoch whenever the broker client fails.
package supervisor

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/mjolnir42/kjp/internal/config"
	"github.com/mjolnir42/kjp/internal/consumer"
	"github.com/mjolnir42/kjp/internal/journal"
	"github.com/mjolnir42/kjp/internal/pipeline"
	"github.com/mjolnir42/kjp/internal/producer"
	"github.com/mjolnir42/kjp/internal/stream"
)

// logThroughput emits a debug line with the current input/output message
// rates, read from the meters internal/consumer and internal/producer
// mark on every message. Called on the same tick as the journal flush so
// the two observable "every 30s" behaviors stay next to each other in the
// log.
func logThroughput() {
	logrus.WithFields(logrus.Fields{
		"input.messages.per.second":  consumer.InputMeter.Rate1(),
		"output.messages.per.second": producer.OutputMeter.Rate1(),
	}).Debug("throughput")
}

// configPathEnvVar is checked for a configuration file path whenever the
// caller does not pin one explicitly (e.g. via a CLI flag left at its
// zero value).
const configPathEnvVar = "KAFKA_PROCESSOR_CONFIG_PATH"

// defaultConfigPath is used when neither an explicit path nor
// configPathEnvVar is set.
const defaultConfigPath = "./processor.properties"

// brokerRetryDelay is how long an epoch waits before retrying after it
// fails to construct either broker client.
const brokerRetryDelay = 10 * time.Second

// journalFlushInterval is how often the journal is written to disk while
// an epoch is running, independent of shutdown.
const journalFlushInterval = 30 * time.Second

// Run reads its configuration and runs streams against the configured
// brokers until the process receives SIGINT or SIGTERM. On any broker
// client construction failure, or if the journal cannot be opened, it
// waits brokerRetryDelay and starts a fresh epoch rather than giving up;
// if the consumer loop exits, with or without an error, a fresh epoch
// starts right away.
//
// configPath pins the configuration file location. If empty, it is
// resolved from configPathEnvVar, falling back to defaultConfigPath if
// that is also unset.
func Run(configPath string, streams map[string]stream.Stream) error {
	logrus.Info("Starting kafka-json-processor...")

	configPath = resolveConfigPath(configPath)
	logrus.Infof("Reading config from %s", configPath)
	cfg, err := config.ReadFrom(configPath)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logrus.Info("Received shutdown signal, exiting.")
			return nil
		default:
		}

		if shouldStop := runEpoch(cfg, streams, sig); shouldStop {
			return nil
		}
		logrus.Warn("Epoch ended, restarting...")
	}
}

// runEpoch runs a single consumer/producer epoch to completion. It returns
// true if the caller should stop entirely (a shutdown signal arrived),
// false if the caller should start a new epoch.
func runEpoch(cfg *config.Config, streams map[string]stream.Stream, sig <-chan os.Signal) bool {
	consumerClient, err := sarama.NewConsumer(cfg.Consumer.Brokers, cfg.Consumer.Sarama)
	if err != nil {
		logrus.WithError(err).Errorf("Connection error, retrying in %s...", brokerRetryDelay)
		return sleepOrStop(sig, brokerRetryDelay)
	}
	defer consumerClient.Close()

	producerClient, err := sarama.NewAsyncProducer(cfg.Producer.Brokers, cfg.Producer.Sarama)
	if err != nil {
		logrus.WithError(err).Errorf("Connection error, retrying in %s...", brokerRetryDelay)
		return sleepOrStop(sig, brokerRetryDelay)
	}
	defer producerClient.Close()

	jrn, err := journal.Open(cfg.Internal.JournalPath, cfg.Internal.JournalEnabled)
	if err != nil {
		logrus.WithError(err).Error("Cannot open journal, retrying...")
		return sleepOrStop(sig, brokerRetryDelay)
	}
	defer jrn.Close()

	showStreams(streams)

	events := make(chan pipeline.Event, cfg.Internal.ChannelCapacity)
	done := make(chan struct{})

	flushTicker := time.NewTicker(journalFlushInterval)
	defer flushTicker.Stop()
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		for {
			select {
			case <-flushTicker.C:
				logrus.Debug("Timeout, flushing journal")
				jrn.Flush()
				logThroughput()
			case <-done:
				return
			}
		}
	}()

	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		producer.Run(producerClient, jrn, events, cfg.Internal.QueueSize, time.Duration(cfg.Internal.QueueSlowdownMs)*time.Millisecond)
	}()

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Run(consumerClient, streams, jrn.Offsets(), events, cfg.Internal.WorkerThreads, done)
	}()

	stop := false
	select {
	case <-sig:
		logrus.Info("Received shutdown signal, exiting.")
		stop = true
		close(done)
		<-consumerErr
	case err := <-consumerErr:
		// consumer.Run already returned on its own; done still needs
		// closing so the journal flush loop stops too.
		close(done)
		if err != nil {
			logrus.WithError(err).Error("Consumer loop failed")
		}
	}

	// consumer.Run has fully returned by the time consumerErr yields a
	// value, including every in-flight transform goroutine that might
	// still send to events, so it is now safe to close it.
	<-flushDone
	close(events)
	<-producerDone

	return stop
}

// resolveConfigPath returns path unchanged if non-empty, otherwise falls
// back to configPathEnvVar, then to defaultConfigPath.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if v, ok := os.LookupEnv(configPathEnvVar); ok && v != "" {
		return v
	}
	logrus.Infof("Environment variable %s not found, using default config path.", configPathEnvVar)
	return defaultConfigPath
}

func showStreams(streams map[string]stream.Stream) {
	for _, st := range streams {
		logrus.Infof("Stream [%s] --> [%s]: %d step(s).", st.SourceTopic, st.TargetTopic, len(st.Steps))
	}
}

func sleepOrStop(sig <-chan os.Signal, d time.Duration) bool {
	select {
	case <-sig:
		return true
	case <-time.After(d):
		return false
	}
}
