/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package kjplog sets up the process-wide logrus formatter.
package kjplog

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Init sets the standard logger's formatter. Meant to be called once, from
// main, before anything else logs.
func Init() {
	std := logrus.StandardLogger()
	std.Formatter = &logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	}
}
