package main

import "flag"

type cliArgs struct {
	config string
	logTo  string
	debug  bool
}

func parseFlags() cliArgs {
	var args cliArgs

	flag.StringVar(&args.config, "config", "", "Config file (default $XDG_CONFIG_HOME/keyloop.toml)")
	flag.StringVar(&args.logTo, "log", "", "Write logs to this file")
	flag.BoolVar(&args.debug, "debug", false, "Log at debug level")

	flag.Parse()
	return args
}
