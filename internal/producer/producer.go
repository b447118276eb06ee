/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package producer publishes processed messages to their stream's target
// topic and journals the source offset once the broker confirms the
// publish.
package producer

import (
	"time"

	"github.com/IBM/sarama"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/mjolnir42/kjp/internal/inflight"
	"github.com/mjolnir42/kjp/internal/journal"
	"github.com/mjolnir42/kjp/internal/pipeline"
)

// OutputMeter tracks the rate of messages successfully published to the
// broker, registered with the default metrics registry so it shows up
// alongside any other process-wide meters.
var OutputMeter = metrics.GetOrRegisterMeter(`/output/messages.per.second`, metrics.DefaultRegistry)

// metadata rides along on a sarama.ProducerMessage so the Successes/Errors
// drain can journal the right key once the broker confirms (or rejects)
// the publish.
type metadata struct {
	id          string
	sourceTopic string
	partition   int32
	offset      int64
}

// Run reads events off in until it is closed. Received events are dropped;
// they exist only to occupy a slot on the bounded channel upstream.
// Processed events are published to their TargetTopic, and on successful
// confirmation update jrn with the source offset. When the number of
// unconfirmed in-flight publishes reaches 95% of queueSize, Run pauses for
// slowdown before accepting the next event, to avoid unbounded memory
// growth in the broker client's internal buffers. If the client's input
// queue is full when a message is handed over, Run waits slowdown and
// retries the same message.
//
// Run blocks until in is closed and every in-flight publish has been
// confirmed, then returns.
func Run(client sarama.AsyncProducer, jrn *journal.Journal, in <-chan pipeline.Event, queueSize int, slowdown time.Duration) {
	tracker := inflight.New()
	go drainConfirmations(client, jrn, tracker)

	threshold := (queueSize * 95) / 100

	for ev := range in {
		if ev.Kind != pipeline.Processed {
			continue
		}
		for tracker.Count() >= threshold {
			logrus.Warnf("producer: %d in-flight publishes at or above threshold %d, slowing down", tracker.Count(), threshold)
			time.Sleep(slowdown)
		}
		tracker.Use()
		msg := &sarama.ProducerMessage{
			Topic: ev.TargetTopic,
			Key:   sarama.StringEncoder(ev.Message.Key),
			Value: sarama.StringEncoder(ev.Message.Message),
			Metadata: metadata{
				id:          ev.ID,
				sourceTopic: ev.SourceTopic,
				partition:   ev.Partition,
				offset:      ev.Offset,
			},
		}
		for sent := false; !sent; {
			select {
			case client.Input() <- msg:
				sent = true
			default:
				logrus.WithField("id", ev.ID).Warnf("producer: input queue full, retrying in %s", slowdown)
				time.Sleep(slowdown)
			}
		}
	}

	client.AsyncClose()
	tracker.Wait()
}

// drainConfirmations reads client's Successes() and Errors() channels until
// both are closed (which sarama guarantees once AsyncClose has drained any
// in-flight requests), journaling each confirmed offset and releasing its
// tracker slot.
func drainConfirmations(client sarama.AsyncProducer, jrn *journal.Journal, tracker *inflight.Tracker) {
	successes := client.Successes()
	errs := client.Errors()
	for successes != nil || errs != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			md := msg.Metadata.(metadata)
			jrn.Update(md.sourceTopic, md.partition, md.offset)
			OutputMeter.Mark(1)
			tracker.Done()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			md := err.Msg.Metadata.(metadata)
			logrus.WithError(err.Err).WithFields(logrus.Fields{
				"id":        md.id,
				"topic":     err.Msg.Topic,
				"partition": md.partition,
				"offset":    md.offset,
			}).Error("producer: publish failed, offset will not be journaled")
			tracker.Done()
		}
	}
}
