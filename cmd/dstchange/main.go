// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"os"
	_ "time/tzdata"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
)

const cmdSpec = `name: dstchange
summary: dstchange finds the next two daylight saving time transitions for a set of time zones
commands:
  - name: resolve
    summary: find and display the next two transitions for the specified, or configured, zones
    arguments:
      - <zone>...
  - name: save
    summary: find and store the next two transitions for the specified, or configured, zones
    arguments:
      - <zone>...
  - name: serve
    summary: run an http server that finds and stores transitions on request
  - name: config
    summary: query/inspect the configuration file
    commands:
      - name: display
  - name: logs
    summary: query/inspect the log files
    commands:
      - name: status
        arguments:
          - <log-file>...
`

func cli() *subcmd.CommandSetYAML {
	cmd := subcmd.MustFromYAML(cmdSpec)

	resolve := &Resolve{out: os.Stdout}
	cmd.Set("resolve").MustRunner(resolve.Resolve, &ResolveFlags{})
	cmd.Set("save").MustRunner(resolve.Save, &SaveFlags{})

	serve := &Serve{}
	cmd.Set("serve").MustRunner(serve.Run, &ServeFlags{})

	config := &Config{out: os.Stdout}
	cmd.Set("config", "display").MustRunner(config.Display, &ConfigFlags{})

	log := &Log{out: os.Stdout}
	cmd.Set("logs", "status").MustRunner(log.Status, &LogStatusFlags{})
	return cmd
}

var errInterrupt = errors.New("interrupt")

func main() {
	ctx := context.Background()
	ctx, cancel := context.WithCancelCause(ctx)
	cmdutil.HandleSignals(func() { cancel(errInterrupt) }, os.Interrupt)
	err := cli().Dispatch(ctx)
	if context.Cause(ctx) == errInterrupt {
		cmdutil.Exit("%v", errInterrupt)
	}
	if err != nil {
		cmdutil.Exit("%v", err)
	}
}
