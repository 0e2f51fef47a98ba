/*
  FirmwareUploader
  Copyright (c) 2021 Arduino LLC.  All right reserved.

  This library is free software; you can redistribute it and/or
  modify it under the terms of the GNU Lesser General Public
  License as published by the Free Software Foundation; either
  version 2.1 of the License, or (at your option) any later version.

  This library is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
  Lesser General Public License for more details.

  You should have received a copy of the GNU Lesser General Public
  License along with this library; if not, write to the Free Software
  Foundation, Inc., 51 Franklin St, Fifth Floor, Boston, MA  02110-1301  USA
*/

package cli

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/senilio/gcfflasher/cli/feedback"
	"github.com/senilio/gcfflasher/cli/firmware"
	"github.com/senilio/gcfflasher/cli/version"
	"github.com/senilio/gcfflasher/internal/engine"
	"github.com/senilio/gcfflasher/internal/gcf"
	"github.com/senilio/gcfflasher/internal/platform"
	v "github.com/senilio/gcfflasher/version"
)

const maxTimeoutSeconds = 3600

var (
	doReset      bool
	doConnect    bool
	doList       bool
	firmwareFile string
	devicePath   string
	timeout      int

	outputFormat string
	verbose      bool
	logFile      string
	logFormat    string
	logLevel     string
)

// NewCommand builds the gcfflasher root command: the engine-driving flags
// of spec.md §6.5 plus the version and firmware subcommands.
func NewCommand() *cobra.Command {
	gcfflasherCli := &cobra.Command{
		Use:              "gcfflasher",
		Short:            "gcfflasher.",
		Long:             "gcfflasher: a Zigbee coprocessor firmware flasher for ConBee/RaspBee dongles.",
		Example:          "  " + os.Args[0] + " -d /dev/ttyACM0 -f firmware.gcf",
		Args:             cobra.NoArgs,
		Run:              run,
		PersistentPreRun: preRun,
	}

	gcfflasherCli.AddCommand(version.NewCommand())
	gcfflasherCli.AddCommand(firmware.NewCommand())

	gcfflasherCli.Flags().BoolVarP(&doReset, "reset", "r", false, "reset the device into its bootloader and leave it there")
	gcfflasherCli.Flags().StringVarP(&firmwareFile, "firmware", "f", "", "GCF firmware file to flash")
	gcfflasherCli.Flags().StringVarP(&devicePath, "device", "d", "", "serial device path")
	gcfflasherCli.Flags().BoolVarP(&doConnect, "connect", "c", false, "connect to the device and report status, without flashing")
	gcfflasherCli.Flags().IntVarP(&timeout, "timeout", "t", 10, "overall deadline in seconds (max 3600)")
	gcfflasherCli.Flags().BoolVarP(&doList, "list", "l", false, "list candidate devices and exit")

	gcfflasherCli.PersistentFlags().StringVar(&outputFormat, "format", "text", "The output format, can be {text|json}.")
	gcfflasherCli.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to the file where logs will be written")
	gcfflasherCli.PersistentFlags().StringVar(&logFormat, "log-format", "", "The output format for the logs, can be {text|json}.")
	gcfflasherCli.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Messages with this level and above will be logged. Valid levels are: trace, debug, info, warn, error, fatal, panic")
	gcfflasherCli.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print the logs on the standard output.")

	return gcfflasherCli
}

// selectTask maps the flag combination onto the single engine.Task the run
// will perform, in a fixed priority order: list, reset, connect, then
// program (when a firmware file is given); otherwise help.
func selectTask() engine.Task {
	switch {
	case doList:
		return engine.TaskList
	case doReset:
		return engine.TaskReset
	case doConnect:
		return engine.TaskConnect
	case firmwareFile != "":
		return engine.TaskProgram
	default:
		return engine.TaskHelp
	}
}

func run(cmd *cobra.Command, args []string) {
	if timeout <= 0 || timeout > maxTimeoutSeconds {
		feedback.Fatal(fmt.Sprintf("timeout must be between 1 and %d seconds", maxTimeoutSeconds), feedback.ErrBadArgument)
	}

	task := selectTask()
	if task == engine.TaskHelp {
		cmd.Help()
		return
	}

	cfg := engine.Config{
		Task:       task,
		DevicePath: devicePath,
		Deadline:   time.Duration(timeout) * time.Second,
	}

	if task == engine.TaskProgram {
		content, err := os.ReadFile(firmwareFile)
		if err != nil {
			feedback.Fatal(fmt.Sprintf("cannot read firmware file: %v", err), feedback.ErrBadArgument)
		}
		file, err := gcf.Parse(firmwareFile, content)
		if err != nil {
			feedback.Fatal(fmt.Sprintf("cannot parse firmware file: %v", err), feedback.ErrBadArgument)
		}
		cfg.File = file
	}

	if err := cfg.Validate(); err != nil {
		feedback.Fatal(err.Error(), feedback.ErrBadArgument)
	}

	pf := platform.New()
	e := engine.New(pf, cfg)
	if err := pf.Run(e); err != nil {
		feedback.FatalError(err, feedback.ErrGeneric)
	}
}

// toLogLevel converts the string passed to --log-level option to the
// corresponding logrus formal level.
func toLogLevel(s string) (t logrus.Level, found bool) {
	t, found = map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}[s]

	return
}

func parseFormatString(arg string) (feedback.OutputFormat, bool) {
	return feedback.ParseOutputFormat(arg)
}

func preRun(cmd *cobra.Command, args []string) {
	// Prepare logging
	if verbose {
		// if we print on stdout, do it in full colors
		logrus.SetOutput(colorable.NewColorableStdout())
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors: true,
		})
	} else {
		logrus.SetOutput(ioutil.Discard)
	}

	// Normalize the format strings
	logFormat = strings.ToLower(logFormat)
	if logFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Printf("Unable to open file for logging: %s", logFile)
			os.Exit(int(feedback.ErrBadArgument))
		}

		// Use a hook so we don't get color codes in the log file
		if outputFormat == "json" {
			logrus.AddHook(lfshook.NewHook(file, &logrus.JSONFormatter{}))
		} else {
			logrus.AddHook(lfshook.NewHook(file, &logrus.TextFormatter{}))
		}
	}

	// Configure logging filter
	if lvl, found := toLogLevel(logLevel); !found {
		feedback.Errorf("Invalid option for --log-level: %s", logLevel)
		os.Exit(int(feedback.ErrBadArgument))
	} else {
		logrus.SetLevel(lvl)
	}

	// normalize the format strings
	outputFormat = strings.ToLower(outputFormat)
	// check the right output format was passed
	format, found := parseFormatString(outputFormat)
	if !found {
		feedback.Errorf("Invalid output format: %s", outputFormat)
		os.Exit(int(feedback.ErrGeneric))
	}

	// use the output format to configure the Feedback
	feedback.SetFormat(format)

	logrus.Info(v.VersionInfo)

	if outputFormat != "text" {
		cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
			logrus.Warn("Calling help on JSON format")
			feedback.Error("Invalid Call : should show Help, but it is available only in TEXT mode.")
			os.Exit(int(feedback.ErrGeneric))
		})
	}
}
