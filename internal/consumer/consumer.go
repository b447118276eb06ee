/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package consumer reads messages off every partition of every configured
// stream's source topic, tags each with a stable id, and hands it off to
// the transform pipeline.
package consumer

import (
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/mjolnir42/kjp/internal/journal"
	"github.com/mjolnir42/kjp/internal/pipeline"
	"github.com/mjolnir42/kjp/internal/processor"
	"github.com/mjolnir42/kjp/internal/stream"
)

// InputMeter tracks the rate of messages read off the broker, before any
// transform runs.
var InputMeter = metrics.GetOrRegisterMeter(`/input/messages.per.second`, metrics.DefaultRegistry)

// Run subscribes to every stream's source topic at the given starting
// offsets (OffsetNewest for any partition with none journaled), and blocks
// until either done is closed or every partition consumer exits on its
// own. Received and Processed events are sent to out; at most
// workerThreads transforms run concurrently.
func Run(client sarama.Consumer, streams map[string]stream.Stream, offsets map[journal.Key]int64, out chan<- pipeline.Event, workerThreads int, done <-chan struct{}) error {
	msgCh := make(chan *sarama.ConsumerMessage, 64)

	var partitionConsumers []sarama.PartitionConsumer
	var partitionWG sync.WaitGroup
	for topic := range streams {
		partitions, err := client.Partitions(topic)
		if err != nil {
			closeAll(partitionConsumers)
			return fmt.Errorf("listing partitions for topic %s: %w", topic, err)
		}
		for _, p := range partitions {
			offset := int64(sarama.OffsetNewest)
			if o, ok := offsets[journal.Key{Topic: topic, Partition: p}]; ok {
				offset = o
			}
			pc, err := client.ConsumePartition(topic, p, offset)
			if err != nil {
				closeAll(partitionConsumers)
				return fmt.Errorf("consuming %s/%d at offset %d: %w", topic, p, offset, err)
			}
			partitionConsumers = append(partitionConsumers, pc)
			partitionWG.Add(1)
			go fanIn(pc, msgCh, &partitionWG)
		}
	}

	drained := make(chan struct{})
	go func() {
		partitionWG.Wait()
		close(drained)
	}()

	sem := make(chan struct{}, workerThreads)
	var tasks sync.WaitGroup
	defer tasks.Wait()

	for {
		select {
		case <-done:
			closeAll(partitionConsumers)
			drainUntilClosed(msgCh, drained)
			return nil
		case <-drained:
			return nil
		case msg := <-msgCh:
			dispatch(msg, streams, out, sem, &tasks)
		}
	}
}

// drainUntilClosed discards messages still arriving on msgCh until every
// fanIn goroutine has exited and closed drained. Without this, a fanIn
// goroutine blocked on "out <- msg" would never notice done closing, and
// partitionWG.Wait (and so drained) would never complete.
func drainUntilClosed(msgCh <-chan *sarama.ConsumerMessage, drained <-chan struct{}) {
	for {
		select {
		case <-msgCh:
		case <-drained:
			return
		}
	}
}

func closeAll(pcs []sarama.PartitionConsumer) {
	for _, pc := range pcs {
		pc.AsyncClose()
	}
}

// fanIn forwards pc's messages to out until pc is closed, either by the
// broker or by a caller invoking AsyncClose on it via closeAll.
func fanIn(pc sarama.PartitionConsumer, out chan<- *sarama.ConsumerMessage, wg *sync.WaitGroup) {
	defer wg.Done()

	errDone := make(chan struct{})
	go func() {
		defer close(errDone)
		for err := range pc.Errors() {
			logrus.WithError(err.Err).WithFields(logrus.Fields{
				"topic":     err.Topic,
				"partition": err.Partition,
			}).Error("consumer: partition error")
		}
	}()

	for msg := range pc.Messages() {
		out <- msg
	}
	<-errDone
}

func dispatch(msg *sarama.ConsumerMessage, streams map[string]stream.Stream, out chan<- pipeline.Event, sem chan struct{}, tasks *sync.WaitGroup) {
	id := fmt.Sprintf("%s:%d@%d(%d)", msg.Topic, msg.Partition, msg.Offset, msg.Timestamp.UnixMilli())
	log := logrus.WithField("id", id)
	log.Debug("received message")
	log.Tracef("message: %s", string(msg.Value))

	out <- pipeline.Event{Kind: pipeline.Received}

	st, ok := streams[msg.Topic]
	if !ok {
		log.Warnf("topic %s is unsupported! ignoring message.", msg.Topic)
		return
	}
	InputMeter.Mark(1)

	sem <- struct{}{}
	tasks.Add(1)
	go func() {
		defer tasks.Done()
		defer func() { <-sem }()

		serialized, err := processor.Execute(id, msg.Value, st)
		if err != nil {
			log.Errorf("processing error: %s. Message will be ignored and lost.", err)
			return
		}
		out <- pipeline.Event{
			Kind:        pipeline.Processed,
			ID:          id,
			SourceTopic: msg.Topic,
			TargetTopic: st.TargetTopic,
			Partition:   msg.Partition,
			Offset:      msg.Offset,
			Message:     serialized,
		}
	}()
}
