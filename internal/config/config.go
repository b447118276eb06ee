/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package config reads the worker's flat key=value properties file and
// turns it into a consumer BrokerConfig, a producer BrokerConfig, and the
// InternalConfig governing the worker's own runtime knobs.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// InternalConfig holds the processor.* knobs that govern this worker's own
// runtime behavior rather than the broker client's.
type InternalConfig struct {
	WorkerThreads   int
	ChannelCapacity int
	QueueSize       int
	QueueSlowdownMs int
	JournalEnabled  bool
	JournalPath     string
}

// DefaultInternalConfig returns the defaults used when a key is never set
// in the properties file.
func DefaultInternalConfig() InternalConfig {
	return InternalConfig{
		WorkerThreads:   4,
		ChannelCapacity: 50,
		QueueSlowdownMs: 10_000,
		QueueSize:       100_000,
		JournalEnabled:  true,
		JournalPath:     "./kjp_journal",
	}
}

// BrokerConfig is the broker address list plus the sarama.Config built
// from the consumer.* or producer.* properties forwarded to it.
type BrokerConfig struct {
	Brokers []string
	Sarama  *sarama.Config
}

// Config is everything ReadFrom produces from a properties file.
type Config struct {
	Consumer BrokerConfig
	Producer BrokerConfig
	Internal InternalConfig
}

// ReadFrom parses the properties file at path. Lines are trimmed of
// leading whitespace; blank lines and lines starting with '#' are
// ignored. A key prefixed "consumer." or "producer." is routed to that
// broker's property bag (with the prefix stripped); a key prefixed
// "processor." sets an InternalConfig field; anything else is forwarded
// to both broker property bags unprefixed.
func ReadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer f.Close()

	consumerProps := make(map[string]string)
	producerProps := make(map[string]string)
	internal := DefaultInternalConfig()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t")
		if shouldIgnore(line) {
			continue
		}
		key, value, err := keyValue(line)
		if err != nil {
			return nil, err
		}

		switch {
		case strings.HasPrefix(key, "consumer."):
			consumerProps[strings.TrimPrefix(key, "consumer.")] = value
		case strings.HasPrefix(key, "producer."):
			producerProps[strings.TrimPrefix(key, "producer.")] = value
		case strings.HasPrefix(key, "processor."):
			if err := setInternal(key, value, &internal); err != nil {
				return nil, err
			}
		default:
			consumerProps[key] = value
			producerProps[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	consumerBroker := translateProperties(consumerProps)
	consumerBroker.Sarama.Consumer.Return.Errors = true

	producerBroker := translateProperties(producerProps)
	producerBroker.Sarama.Producer.Return.Successes = true
	producerBroker.Sarama.Producer.Return.Errors = true

	return &Config{
		Consumer: consumerBroker,
		Producer: producerBroker,
		Internal: internal,
	}, nil
}

func shouldIgnore(line string) bool {
	return strings.HasPrefix(line, "#") || strings.TrimSpace(line) == ""
}

func keyValue(line string) (string, string, error) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("illegal config entry (missing '='): %q", line)
	}
	return parts[0], parts[1], nil
}

func setInternal(key, value string, ic *InternalConfig) error {
	var err error
	switch key {
	case "processor.channel.capacity":
		ic.ChannelCapacity, err = strconv.Atoi(value)
	case "processor.worker.threads":
		ic.WorkerThreads, err = strconv.Atoi(value)
	case "processor.queue.size":
		ic.QueueSize, err = strconv.Atoi(value)
	case "processor.queue.slowdown.ms":
		ic.QueueSlowdownMs, err = strconv.Atoi(value)
	case "processor.journal.path":
		ic.JournalPath = value
	case "processor.journal.enabled":
		ic.JournalEnabled, err = strconv.ParseBool(value)
	default:
		logrus.Warnf("Unknown config option: %s=%s. Ignoring.", key, value)
		return nil
	}
	if err != nil {
		return fmt.Errorf("parsing %s=%s: %w", key, value, err)
	}
	return nil
}

// translateProperties maps the handful of broker properties this worker
// understands onto sarama.Config fields; any key it does not recognize is
// logged and ignored, never treated as fatal.
func translateProperties(props map[string]string) BrokerConfig {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	var brokers []string

	for key, value := range props {
		switch key {
		case "bootstrap.servers":
			brokers = splitTrim(value)
		case "client.id":
			cfg.ClientID = value
		case "offset.reset":
			switch value {
			case "earliest":
				cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
			case "latest":
				cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
			default:
				logrus.Warnf("Unknown offset.reset value: %s. Ignoring.", value)
			}
		case "required.acks":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.Producer.RequiredAcks = sarama.RequiredAcks(n)
			} else {
				logrus.Warnf("Invalid required.acks value: %s. Ignoring.", value)
			}
		case "retry.max":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.Producer.Retry.Max = n
				cfg.Metadata.Retry.Max = n
			} else {
				logrus.Warnf("Invalid retry.max value: %s. Ignoring.", value)
			}
		case "compression.type":
			if codec, ok := compressionCodecs[value]; ok {
				cfg.Producer.Compression = codec
			} else {
				logrus.Warnf("Unknown compression.type value: %s. Ignoring.", value)
			}
		case "net.keepalive.ms":
			if ms, err := strconv.Atoi(value); err == nil {
				cfg.Net.KeepAlive = time.Duration(ms) * time.Millisecond
			} else {
				logrus.Warnf("Invalid net.keepalive.ms value: %s. Ignoring.", value)
			}
		default:
			logrus.Warnf("Unknown config option: %s=%s. Ignoring.", key, value)
		}
	}

	return BrokerConfig{Brokers: brokers, Sarama: cfg}
}

var compressionCodecs = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

func splitTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
