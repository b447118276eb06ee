/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package main // import "github.com/mjolnir42/kjp/cmd/kjp"

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mjolnir42/kjp/internal/kjplog"
	"github.com/mjolnir42/kjp/internal/objtree"
	"github.com/mjolnir42/kjp/internal/stream"
	"github.com/mjolnir42/kjp/internal/supervisor"
)

var githash, shorthash, builddate, buildtime string

func init() {
	kjplog.Init()
}

func main() {
	var (
		configPath  string
		versionFlag bool
	)
	flag.StringVar(&configPath, `config`, ``,
		`Configuration file location (default: $KAFKA_PROCESSOR_CONFIG_PATH, or ./processor.properties)`)
	flag.BoolVar(&versionFlag, `version`, false,
		`Print version information`)
	flag.Parse()

	if versionFlag {
		fmt.Fprintln(os.Stderr, `Kafka JSON Processor`)
		fmt.Fprintf(os.Stderr, "Version  : %s-%s\n", builddate, shorthash)
		fmt.Fprintf(os.Stderr, "Git Hash : %s\n", githash)
		fmt.Fprintf(os.Stderr, "Timestamp: %s\n", buildtime)
		os.Exit(0)
	}

	if err := supervisor.Run(configPath, streams()); err != nil {
		logrus.WithError(err).Fatal("kjp exited with an error")
	}
}

// streams is the static stream registry for this worker. A real deployment
// would likely build this from its own package; it lives here so the
// example transforms below have somewhere concrete to run.
func streams() map[string]stream.Stream {
	raw := stream.Stream{
		Name:        "raw-events",
		SourceTopic: "raw-events",
		TargetTopic: "clean-events",
		Steps: []stream.Step{
			stream.StaticField(
				objtree.P(objtree.Key("processed_by")),
				objtree.String("kjp"),
			),
			stream.CopyField(
				objtree.P(objtree.Key("user"), objtree.Key("email")),
				objtree.P(objtree.Key("contact_email")),
			),
			stream.PrettyJSONField(
				objtree.P(objtree.Key("payload_json")),
				objtree.P(objtree.Key("payload_pretty")),
			),
			stream.PrettyXMLField(
				objtree.P(objtree.Key("payload_xml")),
				objtree.P(objtree.Key("payload_xml_pretty")),
			),
		},
	}

	return map[string]stream.Stream{
		raw.SourceTopic: raw,
	}
}
