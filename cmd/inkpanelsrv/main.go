package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jypelle/inkpanel/internal/srv"
	"github.com/jypelle/inkpanel/internal/srv/config"
	"github.com/jypelle/inkpanel/internal/version"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const configSuffix = "inkpanel"

type options struct {
	debugMode      bool
	simulationMode bool
	configDir      string
}

type command struct {
	name  string
	short string
	long  string
	run   func(opts options)
}

var commands = []command{
	{"run", "Run server", "Run the panel until a stop signal is received", runServer},
	{"config", "Print the effective configuration", "Print param.yaml with every default filled in", printConfig},
	{"version", "Show the version number", "Show the version information", printVersion},
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	defaultConfigDir := "./." + configSuffix
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}

	var opts options
	flag.BoolVar(&opts.debugMode, "d", false, "Enable debug mode")
	flag.BoolVar(&opts.simulationMode, "s", false, "Enable simulation mode (software controller and on-screen panel)")
	flag.StringVar(&opts.configDir, "c", defaultConfigDir, "Location of inkpanel config folder")

	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] COMMAND\n", mainCommand)
		fmt.Printf("\nAn e-paper smart-home wall panel\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		for _, c := range commands {
			fmt.Printf("  %-9s %s\n", c.name, c.short)
		}
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var selected *command
	for i := range commands {
		if commands[i].name == flag.Arg(0) {
			selected = &commands[i]
		}
	}
	if selected == nil {
		fmt.Printf("\n%s is not an inkpanel command\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}

	// Commands take no argument of their own
	cmdFlags := flag.NewFlagSet(selected.name, flag.ExitOnError)
	cmdFlags.Usage = func() {
		fmt.Printf("\nUsage: %s %s\n", mainCommand, selected.name)
		fmt.Printf("\n%s\n", selected.long)
	}
	cmdFlags.Parse(flag.Args()[1:])
	if cmdFlags.NArg() > 0 {
		fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, selected.name)
		cmdFlags.Usage()
		os.Exit(1)
	}

	if opts.debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Debugf("Debug mode activated")
	}

	selected.run(opts)
}

func runServer(opts options) {
	serverApp := srv.NewServerApp(opts.configDir, opts.debugMode, opts.simulationMode)

	// SIGUSR1 also halts the system once stopped
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT, syscall.SIGHUP, syscall.SIGUSR1)

	serverApp.Start()

	sig := <-ch
	logrus.Infof("Received signal: %v", sig)
	serverApp.Stop(sig == syscall.SIGUSR1)
	os.Exit(0)
}

func printConfig(opts options) {
	serverConfig, err := config.LoadServerConfig(opts.configDir, opts.debugMode, opts.simulationMode)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	serverConfig.FlushSave()
	out, err := yaml.Marshal(serverConfig.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize config: %v", err)
	}
	fmt.Printf("# %s\n%s", serverConfig.GetCompleteParamFilename(), out)
}

func printVersion(_ options) {
	fmt.Printf("Version %s\n", version.Full())
}
